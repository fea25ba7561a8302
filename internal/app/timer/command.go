package timer

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// CommandType represents a timer command type.
type CommandType int

const (
	CmdStart         CommandType = iota // Resume the countdown
	CmdStop                             // Freeze the countdown
	CmdNextIteration                    // Swap phases (only while stopped)
	CmdCustomize                        // Change a setting and restart the session
)

// String returns the string representation of the command type.
func (c CommandType) String() string {
	switch c {
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdNextIteration:
		return "next_iteration"
	case CmdCustomize:
		return "customize"
	default:
		return "unknown"
	}
}

// SettingKind identifies which configuration value a SettingChange updates.
type SettingKind int

const (
	SettingWorkTime   SettingKind = iota // Work duration in seconds
	SettingBreakTime                     // Break duration in seconds
	SettingIterations                    // Number of work iterations
)

// String returns the string representation of the setting kind.
func (k SettingKind) String() string {
	switch k {
	case SettingWorkTime:
		return "work_time"
	case SettingBreakTime:
		return "break_time"
	case SettingIterations:
		return "iterations"
	default:
		return "unknown"
	}
}

// SettingChange is a typed update to one configuration value.
type SettingChange struct {
	Kind  SettingKind
	Value int64
}

// WorkTime returns a change of the work duration.
func WorkTime(seconds int64) SettingChange {
	return SettingChange{Kind: SettingWorkTime, Value: seconds}
}

// BreakTime returns a change of the break duration.
func BreakTime(seconds int64) SettingChange {
	return SettingChange{Kind: SettingBreakTime, Value: seconds}
}

// Iterations returns a change of the iteration count.
func Iterations(count uint8) SettingChange {
	return SettingChange{Kind: SettingIterations, Value: int64(count)}
}

// Validate checks that the value is acceptable for its kind.
func (c SettingChange) Validate() error {
	switch c.Kind {
	case SettingWorkTime, SettingBreakTime:
		if c.Value <= 0 {
			return errors.Wrapf(ErrInvalidSetting, "%s must be positive, got %d", c.Kind, c.Value)
		}
	case SettingIterations:
		if c.Value < 1 || c.Value > math.MaxUint8 {
			return errors.Wrapf(ErrInvalidSetting, "iterations must be between 1 and %d, got %d", math.MaxUint8, c.Value)
		}
	default:
		return errors.Wrapf(ErrInvalidSetting, "unknown setting kind %d", int(c.Kind))
	}
	return nil
}

func (c SettingChange) String() string {
	return fmt.Sprintf("%s=%d", c.Kind, c.Value)
}

// Command is a control message for the engine.
// Reply is optional; when set it must be buffered, and the engine sends
// exactly one value on it once the command has been applied.
type Command struct {
	Type   CommandType
	Change SettingChange // CmdCustomize only
	Reply  chan error
}

// StartCommand returns a Start command.
func StartCommand() Command {
	return Command{Type: CmdStart}
}

// StopCommand returns a Stop command.
func StopCommand() Command {
	return Command{Type: CmdStop}
}

// NextIterationCommand returns a NextIteration command.
func NextIterationCommand() Command {
	return Command{Type: CmdNextIteration}
}

// CustomizeCommand returns a Customize command carrying the change.
func CustomizeCommand(change SettingChange) Command {
	return Command{Type: CmdCustomize, Change: change}
}

// WithReply returns a copy of the command with a fresh reply channel.
func (c Command) WithReply() Command {
	c.Reply = make(chan error, 1)
	return c
}
