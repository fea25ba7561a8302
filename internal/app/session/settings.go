package session

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomobox/internal/app/notification"
	"github.com/osa030/pomobox/internal/app/timer"
)

// Direction is the sign of an Adjust step.
type Direction int

const (
	Decrease Direction = -1
	Increase Direction = 1
)

// ApplySetting sends a Customize for change unless the engine already has
// that value. The engine rejects changes while running with
// timer.ErrTimerRunning. An accepted change restarts the session.
func (c *Coordinator) ApplySetting(ctx context.Context, change timer.SettingChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	if c.engine.Snapshot().Setting(change.Kind) == change.Value {
		zlog.Debug().Msgf("session: setting unchanged, not sent: id=%s %s", c.id, change)
		return nil
	}
	if err := c.customize(ctx, change); err != nil {
		return err
	}
	c.persist()
	return nil
}

// Adjust steps one setting up or down by the configured step.
// Steps that would reach zero or leave the iteration range are refused.
func (c *Coordinator) Adjust(ctx context.Context, kind timer.SettingKind, dir Direction) error {
	var step int64
	switch kind {
	case timer.SettingWorkTime:
		step = c.cfg.WorkStep
	case timer.SettingBreakTime:
		step = c.cfg.BreakStep
	case timer.SettingIterations:
		step = int64(c.cfg.IterationStep)
	default:
		return errors.Wrapf(timer.ErrInvalidSetting, "unknown setting kind %d", int(kind))
	}
	if step <= 0 {
		step = 1
	}

	value := c.engine.Snapshot().Setting(kind) + int64(dir)*step
	if value <= 0 || (kind == timer.SettingIterations && value > math.MaxUint8) {
		return errors.Wrapf(timer.ErrInvalidSetting, "%s cannot be adjusted to %d", kind, value)
	}
	return c.ApplySetting(ctx, timer.SettingChange{Kind: kind, Value: value})
}

// RestoreDefaults applies the configured default durations and iteration
// count.
func (c *Coordinator) RestoreDefaults(ctx context.Context) error {
	defaults := c.cfg.Defaults
	changes := []timer.SettingChange{
		timer.WorkTime(defaults.WorkSeconds),
		timer.BreakTime(defaults.BreakSeconds),
		timer.Iterations(defaults.Iterations),
	}

	changed := false
	snap := c.engine.Snapshot()
	for _, change := range changes {
		if snap.Setting(change.Kind) == change.Value {
			continue
		}
		if err := c.customize(ctx, change); err != nil {
			return errors.Wrap(err, "restore defaults")
		}
		changed = true
	}
	if changed {
		c.persist()
	}
	return nil
}

// Restart resets the session to Work, iteration 1, keeping the current
// settings. Rejected while running.
func (c *Coordinator) Restart(ctx context.Context) error {
	return c.customize(ctx, timer.WorkTime(c.engine.Snapshot().Setting(timer.SettingWorkTime)))
}

func (c *Coordinator) customize(ctx context.Context, change timer.SettingChange) error {
	if err := c.request(ctx, timer.CustomizeCommand(change)); err != nil {
		zlog.Debug().Msgf("session: customize rejected: id=%s %s err=%v", c.id, change, err)
		return err
	}

	// The reply follows the engine's publish, so the snapshot is current.
	c.sync(c.engine.Snapshot())
	c.finished = false

	zlog.Info().Msgf("session: settings changed: id=%s %s total_time=%d", c.id, change, c.totalTime)
	c.broadcast(notification.TypeSettingsChanged)
	return nil
}

func (c *Coordinator) persist() {
	if c.store == nil {
		return
	}
	s := c.engine.Snapshot().Settings()
	if err := c.store.SaveTimer(s.WorkSeconds, s.BreakSeconds, s.Iterations); err != nil {
		zlog.Error().Err(err).Msgf("session: failed to save settings: id=%s", c.id)
	}
}
