// Package phase provides the Pomodoro phase value type.
package phase

import "fmt"

// Kind represents which half of a Pomodoro cycle a phase belongs to.
type Kind int

const (
	KindWork  Kind = iota // Focused work
	KindBreak             // Rest between work phases
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindWork:
		return "work"
	case KindBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Phase is an immutable Work or Break phase.
// The duration is configuration, not remaining time.
type Phase struct {
	kind     Kind
	duration int64 // seconds
}

// Work returns a work phase lasting the given number of seconds.
func Work(seconds int64) Phase {
	return Phase{kind: KindWork, duration: seconds}
}

// Break returns a break phase lasting the given number of seconds.
func Break(seconds int64) Phase {
	return Phase{kind: KindBreak, duration: seconds}
}

// Kind returns the phase kind.
func (p Phase) Kind() Kind {
	return p.kind
}

// Duration returns the configured duration in seconds.
func (p Phase) Duration() int64 {
	return p.duration
}

// IsWork reports whether p is a work phase.
func (p Phase) IsWork() bool {
	return p.kind == KindWork
}

// IsBreak reports whether p is a break phase.
func (p Phase) IsBreak() bool {
	return p.kind == KindBreak
}

// String returns "Work" or "Break", the label shown to the user.
func (p Phase) String() string {
	switch p.kind {
	case KindWork:
		return "Work"
	case KindBreak:
		return "Break"
	default:
		return fmt.Sprintf("Phase(%d)", int(p.kind))
	}
}

// FormatClock converts seconds into an hh:mm:ss string.
// Negative values are shown as zero.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
