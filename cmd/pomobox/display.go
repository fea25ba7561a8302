package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/osa030/pomobox/internal/app/notification"
	"github.com/osa030/pomobox/internal/app/timer"
	"github.com/osa030/pomobox/internal/domain/phase"
)

const helpText = `Commands:
  <enter>, t      start / pause
  w <n>, b <n>    set work / break length (minutes, or a duration like 90s)
  i <n>           set number of work phases
  w+ w- b+ b-     step work / break length
  i+ i-           step number of work phases
  r               restore default settings
  n               new session (back to work phase 1)
  s               show status
  h               show this help
  q               quit`

// display is a plain line printer for session notifications.
type display struct {
	mu       sync.Mutex
	out      io.Writer
	hideWork bool
	inline   bool // last write was a countdown line without newline
}

func newDisplay(out io.Writer, hideWork bool) *display {
	return &display{out: out, hideWork: hideWork}
}

func (d *display) run(updates <-chan notification.Notification) {
	for n := range updates {
		d.render(n)
	}
}

func (d *display) render(n notification.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := n.Status
	switch n.Type {
	case notification.TypeTick:
		fmt.Fprintf(d.out, "\r%-50s", formatStatus(st, d.hideWork))
		d.inline = true
	case notification.TypeStateChanged:
		if st.Running {
			d.line("Started. %s", formatStatus(st, d.hideWork))
		} else {
			d.line("Paused.  %s", formatStatus(st, d.hideWork))
		}
	case notification.TypePhaseCompleted:
		if st.Running {
			d.line("%s time! %s", st.Phase, formatStatus(st, d.hideWork))
		} else {
			d.line("%s time! Press enter to start. %s", st.Phase, formatStatus(st, d.hideWork))
		}
	case notification.TypeSessionFinished:
		d.line("Session finished: %d work phases, %s focused. Type n for a new session.",
			st.TotalIterations, phase.FormatClock(st.TotalElapsed))
	case notification.TypeSettingsChanged:
		d.line("Settings updated. %s", formatStatus(st, d.hideWork))
	}
}

func (d *display) welcome(s timer.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line("pomobox: %d x %s work / %s break. Press enter to start, h for help.",
		s.Iterations, formatLength(s.WorkSeconds), formatLength(s.BreakSeconds))
}

func (d *display) goodbye(st notification.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line("Bye. %s focused.", phase.FormatClock(st.TotalElapsed))
}

func (d *display) status(st notification.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := "paused"
	switch {
	case st.Finished:
		state = "finished"
	case st.Running:
		state = "running"
	}
	d.line("%s (%s)", formatStatus(st, d.hideWork), state)
}

func (d *display) help() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line("%s", helpText)
}

func (d *display) message(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line(format, args...)
}

// line writes a full line, ending a pending countdown line first.
// Callers hold d.mu.
func (d *display) line(format string, args ...any) {
	if d.inline {
		fmt.Fprintln(d.out)
		d.inline = false
	}
	fmt.Fprintf(d.out, format+"\n", args...)
}

// formatStatus renders "[Work 1/4] 00:24:59 12%".
func formatStatus(st notification.Status, hideWork bool) string {
	clock := phase.FormatClock(st.TimeLeft)
	if hideWork && st.Phase.IsWork() {
		clock = "--:--:--"
	}
	return fmt.Sprintf("[%s %d/%d] %s %3.0f%%",
		st.Phase, st.Iteration, st.TotalIterations, clock, st.Progress()*100)
}

func formatLength(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}
