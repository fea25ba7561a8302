// Package session provides the Pomodoro session coordinator.
//
// The Coordinator is the only consumer of the engine's tick values. It turns
// the end-of-phase sentinel into the Stop, NextIteration, Start command
// sequence, decides when the session is over, and forwards user intents to
// the engine. It keeps a small mirror of the engine state so it can react
// before the next tick arrives.
package session

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/pomobox/internal/app/notifier"
	"github.com/osa030/pomobox/internal/app/timer"
)

// ErrSessionFinished is returned when toggling a session that already ran
// all of its iterations.
var ErrSessionFinished = errors.New("session finished, restart it first")

// State represents the coordinator-observed session state.
type State int

const (
	StateIdle     State = iota // Stopped, waiting for the user
	StateRunning               // Counting down
	StateFinished              // All iterations done
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Engine is the read side of the timer engine.
type Engine interface {
	Snapshot() timer.State
	Done() <-chan struct{}
}

// SettingsStore persists accepted timer settings.
type SettingsStore interface {
	SaveTimer(workSeconds, breakSeconds int64, iterations uint8) error
}

// EventSink receives phase_completed and session_finished events.
type EventSink interface {
	Dispatch(ctx context.Context, ev notifier.Event)
}

// Config holds coordinator policy.
type Config struct {
	// PauseAfterPhaseChange leaves the next phase stopped instead of
	// starting it.
	PauseAfterPhaseChange bool
	// SkipFinalBreak ends the session after the last work phase.
	SkipFinalBreak bool

	WorkStep      int64 // seconds
	BreakStep     int64 // seconds
	IterationStep uint8

	// Defaults is what RestoreDefaults applies.
	Defaults timer.Settings
}

// DefaultConfig returns the stock policy: 30/5 minutes, four iterations,
// 15 minute work steps and 1 minute break steps.
func DefaultConfig() Config {
	return Config{
		WorkStep:      900,
		BreakStep:     60,
		IterationStep: 1,
		Defaults: timer.Settings{
			WorkSeconds:  1800,
			BreakSeconds: 300,
			Iterations:   4,
		},
	}
}
