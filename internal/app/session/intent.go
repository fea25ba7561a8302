package session

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomobox/internal/app/timer"
)

// IntentType represents a user intent type.
type IntentType int

const (
	IntentToggle          IntentType = iota // Start or stop
	IntentApply                             // Set a value
	IntentAdjust                            // Step a value
	IntentRestoreDefaults                   // Apply configured defaults
	IntentRestart                           // Back to Work, iteration 1
)

// String returns the string representation of the intent type.
func (t IntentType) String() string {
	switch t {
	case IntentToggle:
		return "toggle"
	case IntentApply:
		return "apply"
	case IntentAdjust:
		return "adjust"
	case IntentRestoreDefaults:
		return "restore_defaults"
	case IntentRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// Intent is a user request handled by Run.
// Reply is optional; when set it must be buffered and receives exactly one
// value.
type Intent struct {
	Type      IntentType
	Change    timer.SettingChange // IntentApply
	Setting   timer.SettingKind   // IntentAdjust
	Direction Direction           // IntentAdjust
	Reply     chan error
}

// ToggleIntent returns a Toggle intent.
func ToggleIntent() Intent {
	return Intent{Type: IntentToggle}
}

// ApplyIntent returns an intent setting change.
func ApplyIntent(change timer.SettingChange) Intent {
	return Intent{Type: IntentApply, Change: change}
}

// AdjustIntent returns an intent stepping kind in dir.
func AdjustIntent(kind timer.SettingKind, dir Direction) Intent {
	return Intent{Type: IntentAdjust, Setting: kind, Direction: dir}
}

// RestoreDefaultsIntent returns a RestoreDefaults intent.
func RestoreDefaultsIntent() Intent {
	return Intent{Type: IntentRestoreDefaults}
}

// RestartIntent returns a Restart intent.
func RestartIntent() Intent {
	return Intent{Type: IntentRestart}
}

// WithReply returns a copy of the intent with a fresh reply channel.
func (i Intent) WithReply() Intent {
	i.Reply = make(chan error, 1)
	return i
}

// Run multiplexes engine ticks and user intents until ctx is cancelled,
// ticks is closed, or the engine stops. A closed intents channel only stops
// intent handling.
func (c *Coordinator) Run(ctx context.Context, ticks <-chan int64, intents <-chan Intent) error {
	zlog.Info().Msgf("session: coordinator running: id=%s work=%d break=%d iterations=%d",
		c.id, c.workPhase.Duration(), c.breakPhase.Duration(), c.totalIterations)

	for {
		select {
		case v, ok := <-ticks:
			if !ok {
				zlog.Debug().Msgf("session: tick channel closed: id=%s", c.id)
				return nil
			}
			if err := c.HandleTick(ctx, v); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, timer.ErrEngineStopped) {
					return err
				}
				zlog.Error().Err(err).Msgf("session: failed to handle tick: id=%s value=%d", c.id, v)
			}

		case in, ok := <-intents:
			if !ok {
				intents = nil
				continue
			}
			err := c.handleIntent(ctx, in)
			if err != nil {
				zlog.Info().Msgf("session: intent refused: id=%s type=%s err=%v", c.id, in.Type, err)
			}
			in.reply(err)

		case <-c.engine.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return timer.ErrEngineStopped

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Coordinator) handleIntent(ctx context.Context, in Intent) error {
	switch in.Type {
	case IntentToggle:
		return c.Cycle(ctx)
	case IntentApply:
		return c.ApplySetting(ctx, in.Change)
	case IntentAdjust:
		return c.Adjust(ctx, in.Setting, in.Direction)
	case IntentRestoreDefaults:
		return c.RestoreDefaults(ctx)
	case IntentRestart:
		return c.Restart(ctx)
	default:
		return errors.Newf("unknown intent %d", int(in.Type))
	}
}

func (i Intent) reply(err error) {
	if i.Reply == nil {
		return
	}
	select {
	case i.Reply <- err:
	default:
	}
}
