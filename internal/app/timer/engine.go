// Package timer provides the Pomodoro countdown engine.
//
// The Engine owns the countdown State and is its only writer. All outside
// influence arrives as Commands on a channel, and every decrement is
// reported as a tick value on another channel. A tick value of -1 marks the
// end of the current phase; deciding what happens next is left to the
// consumer.
package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// EndOfPhase is the tick value emitted once the countdown passes zero.
const EndOfPhase int64 = -1

// Errors
var (
	ErrTimerRunning   = errors.New("timer is running, stop it first")
	ErrInvalidSetting = errors.New("invalid setting")
	ErrEngineStopped  = errors.New("timer engine stopped")
	ErrAlreadyRunning = errors.New("timer engine already running")
)

// Config holds engine configuration.
type Config struct {
	Settings
	TickInterval time.Duration // One countdown second; defaults to time.Second
}

// Engine runs the authoritative countdown and phase state machine.
type Engine struct {
	interval time.Duration

	// state is only touched by the Run goroutine after construction.
	state    State
	snapshot atomic.Pointer[State]

	started  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

// New creates an engine in the initial Idle(Work, iteration=1) state.
func New(cfg Config) (*Engine, error) {
	for _, change := range []SettingChange{
		WorkTime(cfg.WorkSeconds),
		BreakTime(cfg.BreakSeconds),
		{Kind: SettingIterations, Value: int64(cfg.Iterations)},
	} {
		if err := change.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid timer config")
		}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	e := &Engine{
		interval: cfg.TickInterval,
		state:    newState(cfg.Settings),
		done:     make(chan struct{}),
	}
	e.publish()
	return e, nil
}

// Snapshot returns a copy of the most recently published state.
func (e *Engine) Snapshot() State {
	return *e.snapshot.Load()
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run drives the countdown until ctx is cancelled or commands is closed.
// Each loop iteration acts on exactly one of: a command, a one-interval
// timer (armed only while running with time left), or cancellation.
// Ticks are sent best-effort: a consumer that stalls for longer than one
// interval loses that tick.
func (e *Engine) Run(ctx context.Context, ticks chan<- int64, commands <-chan Command) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.doneOnce.Do(func() { close(e.done) })

	countdown := time.NewTimer(e.interval)
	countdown.Stop()
	defer countdown.Stop()
	armed := false

	zlog.Debug().Msgf("timer: engine started: interval=%v", e.interval)

	for {
		if err := ctx.Err(); err != nil {
			zlog.Debug().Msg("timer: engine cancelled")
			return err
		}

		shouldCount := e.state.running && e.state.timeLeft >= 0
		switch {
		case shouldCount && !armed:
			countdown.Reset(e.interval)
			armed = true
		case !shouldCount && armed:
			countdown.Stop()
			armed = false
		}

		// A nil channel never fires, so an idle engine just blocks.
		var tickC <-chan time.Time
		if armed {
			tickC = countdown.C
		}

		select {
		case cmd, ok := <-commands:
			if !ok {
				zlog.Debug().Msg("timer: command channel closed, engine exiting")
				return nil
			}
			err := e.apply(cmd)
			e.publish()
			reply(cmd, err)

		case <-tickC:
			armed = false
			value := e.state.tick()
			e.publish()
			if !e.emit(ctx, ticks, value) {
				return ctx.Err()
			}

		case <-ctx.Done():
			zlog.Debug().Msg("timer: engine cancelled")
			return ctx.Err()
		}
	}
}

func (e *Engine) apply(cmd Command) error {
	s := &e.state

	switch cmd.Type {
	case CmdStart:
		s.running = true
	case CmdStop:
		s.running = false
	case CmdNextIteration:
		if !s.nextIteration() {
			zlog.Debug().Msg("timer: next iteration ignored while running")
			return errors.Wrap(ErrTimerRunning, "next iteration")
		}
	case CmdCustomize:
		if s.running {
			return errors.Wrapf(ErrTimerRunning, "customize %s", cmd.Change.Kind)
		}
		if err := cmd.Change.Validate(); err != nil {
			return err
		}
		s.customize(cmd.Change)
	default:
		return errors.Newf("unknown timer command %d", int(cmd.Type))
	}

	zlog.Debug().Msgf("timer: command applied: type=%s running=%t phase=%s iteration=%d/%d time_left=%d",
		cmd.Type, s.running, s.currentPhase, s.iteration, s.totalIterations, s.timeLeft)
	return nil
}

// emit delivers a tick, giving a slow consumer at most one interval.
// It returns false only when ctx was cancelled while waiting.
func (e *Engine) emit(ctx context.Context, ticks chan<- int64, value int64) bool {
	select {
	case ticks <- value:
		return true
	default:
	}

	wait := time.NewTimer(e.interval)
	defer wait.Stop()

	select {
	case ticks <- value:
		return true
	case <-wait.C:
		zlog.Warn().Msgf("timer: tick dropped, consumer not keeping up: value=%d", value)
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) publish() {
	st := e.state
	e.snapshot.Store(&st)
}

func reply(cmd Command, err error) {
	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- err:
	default:
		zlog.Warn().Msgf("timer: reply channel full, dropping reply: type=%s", cmd.Type)
	}
}
