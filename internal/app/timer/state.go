package timer

import (
	"math"

	"github.com/osa030/pomobox/internal/domain/phase"
)

// Settings holds the user-configurable values of a session.
type Settings struct {
	WorkSeconds  int64
	BreakSeconds int64
	Iterations   uint8
}

// State is the engine's countdown record.
// The engine is its only writer; everyone else sees copies via Engine.Snapshot.
type State struct {
	running         bool
	timeLeft        int64
	iteration       uint8
	totalIterations uint8
	currentPhase    phase.Phase
	nextPhase       phase.Phase
	workPhase       phase.Phase
	breakPhase      phase.Phase
	totalTime       int64
	totalElapsed    int64
}

func newState(s Settings) State {
	st := State{
		workPhase:       phase.Work(s.WorkSeconds),
		breakPhase:      phase.Break(s.BreakSeconds),
		totalIterations: s.Iterations,
	}
	st.restart()
	return st
}

// Running reports whether the countdown is decrementing.
func (s State) Running() bool { return s.running }

// TimeLeft returns the seconds remaining in the current phase.
// It is -1 once the phase has been exhausted.
func (s State) TimeLeft() int64 { return s.timeLeft }

// Iteration returns the 1-based work cycle count.
func (s State) Iteration() uint8 { return s.iteration }

// TotalIterations returns the configured number of work cycles.
func (s State) TotalIterations() uint8 { return s.totalIterations }

// CurrentPhase returns the active phase.
func (s State) CurrentPhase() phase.Phase { return s.currentPhase }

// NextPhase returns the phase that the next swap activates.
func (s State) NextPhase() phase.Phase { return s.nextPhase }

// WorkPhase returns the configured work phase.
func (s State) WorkPhase() phase.Phase { return s.workPhase }

// BreakPhase returns the configured break phase.
func (s State) BreakPhase() phase.Phase { return s.breakPhase }

// TotalTime returns work duration * total iterations.
func (s State) TotalTime() int64 { return s.totalTime }

// TotalElapsed returns the seconds spent counting down work phases.
func (s State) TotalElapsed() int64 { return s.totalElapsed }

// Progress returns TotalElapsed / TotalTime clamped to [0, 1].
func (s State) Progress() float64 {
	if s.totalTime <= 0 {
		return 0
	}
	p := float64(s.totalElapsed) / float64(s.totalTime)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Settings returns the configured durations and iteration count.
func (s State) Settings() Settings {
	return Settings{
		WorkSeconds:  s.workPhase.Duration(),
		BreakSeconds: s.breakPhase.Duration(),
		Iterations:   s.totalIterations,
	}
}

// Setting returns the configured value addressed by kind.
func (s State) Setting(kind SettingKind) int64 {
	switch kind {
	case SettingWorkTime:
		return s.workPhase.Duration()
	case SettingBreakTime:
		return s.breakPhase.Duration()
	case SettingIterations:
		return int64(s.totalIterations)
	default:
		return 0
	}
}

// tick decrements the countdown by one second and returns the new value.
func (s *State) tick() int64 {
	s.timeLeft--
	if s.currentPhase.IsWork() {
		s.totalElapsed++
	}
	return s.timeLeft
}

// swapPhases exchanges the current and next phase. It refuses while running.
func (s *State) swapPhases() bool {
	if s.running {
		return false
	}
	if s.currentPhase.IsWork() {
		s.currentPhase = s.breakPhase
		s.nextPhase = s.workPhase
	} else {
		s.currentPhase = s.workPhase
		s.nextPhase = s.breakPhase
	}
	s.timeLeft = s.currentPhase.Duration()
	return true
}

// nextIteration swaps phases and counts a new iteration when entering Work.
func (s *State) nextIteration() bool {
	if !s.swapPhases() {
		return false
	}
	if s.currentPhase.IsWork() && s.iteration < math.MaxUint8 {
		s.iteration++
	}
	return true
}

// customize applies a validated change and restarts the session.
// Callers must reject the change while running.
func (s *State) customize(change SettingChange) {
	switch change.Kind {
	case SettingWorkTime:
		s.workPhase = phase.Work(change.Value)
	case SettingBreakTime:
		s.breakPhase = phase.Break(change.Value)
	case SettingIterations:
		s.totalIterations = uint8(change.Value)
	}
	s.restart()
}

// restart returns to the first work phase with a fresh countdown.
func (s *State) restart() {
	s.running = false
	if s.currentPhase.IsBreak() {
		s.swapPhases()
	}
	// Durations may have changed, so re-derive both slots from configuration.
	s.currentPhase = s.workPhase
	s.nextPhase = s.breakPhase
	s.iteration = 1
	s.timeLeft = s.workPhase.Duration()
	s.totalElapsed = 0
	s.recomputeTotalTime()
}

func (s *State) recomputeTotalTime() {
	s.totalTime = s.workPhase.Duration() * int64(s.totalIterations)
}
