package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomobox/internal/app/notification"
	"github.com/osa030/pomobox/internal/app/session"
	"github.com/osa030/pomobox/internal/app/timer"
)

type action int

const (
	actionIntent action = iota
	actionStatus
	actionHelp
	actionQuit
)

// command is one parsed input line.
type command struct {
	action action
	intent session.Intent
}

var adjustments = map[string]session.Intent{
	"w+": session.AdjustIntent(timer.SettingWorkTime, session.Increase),
	"w-": session.AdjustIntent(timer.SettingWorkTime, session.Decrease),
	"b+": session.AdjustIntent(timer.SettingBreakTime, session.Increase),
	"b-": session.AdjustIntent(timer.SettingBreakTime, session.Decrease),
	"i+": session.AdjustIntent(timer.SettingIterations, session.Increase),
	"i-": session.AdjustIntent(timer.SettingIterations, session.Decrease),
}

// parseCommand turns an input line into a command.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{action: actionIntent, intent: session.ToggleIntent()}, nil
	}

	if in, ok := adjustments[fields[0]]; ok {
		return command{action: actionIntent, intent: in}, nil
	}

	switch fields[0] {
	case "t", "toggle":
		return command{action: actionIntent, intent: session.ToggleIntent()}, nil
	case "r", "reset":
		return command{action: actionIntent, intent: session.RestoreDefaultsIntent()}, nil
	case "n", "new":
		return command{action: actionIntent, intent: session.RestartIntent()}, nil
	case "s", "status":
		return command{action: actionStatus}, nil
	case "h", "?", "help":
		return command{action: actionHelp}, nil
	case "q", "quit", "exit":
		return command{action: actionQuit}, nil
	case "w", "b":
		if len(fields) != 2 {
			return command{}, errors.Newf("usage: %s <minutes|duration>", fields[0])
		}
		seconds, err := parseLength(fields[1])
		if err != nil {
			return command{}, err
		}
		change := timer.WorkTime(seconds)
		if fields[0] == "b" {
			change = timer.BreakTime(seconds)
		}
		return command{action: actionIntent, intent: session.ApplyIntent(change)}, nil
	case "i":
		if len(fields) != 2 {
			return command{}, errors.New("usage: i <count>")
		}
		n, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil || n == 0 {
			return command{}, errors.Newf("iterations must be between 1 and 255, got %q", fields[1])
		}
		return command{action: actionIntent, intent: session.ApplyIntent(timer.Iterations(uint8(n)))}, nil
	default:
		return command{}, errors.Newf("unknown command %q, h for help", fields[0])
	}
}

// parseLength reads whole minutes ("25") or a Go duration ("90s", "1h").
func parseLength(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, errors.Newf("length must be positive, got %d", n)
		}
		return n * 60, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Newf("invalid length %q", s)
	}
	if d < time.Second {
		return 0, errors.Newf("length must be at least 1s, got %s", d)
	}
	return int64(d / time.Second), nil
}

// describe returns the message shown for a refused intent.
func describe(err error) string {
	switch {
	case errors.Is(err, timer.ErrTimerRunning):
		return "Update failed! Stop the timer first"
	case errors.Is(err, session.ErrSessionFinished):
		return "Session finished. Type n for a new session"
	default:
		return err.Error()
	}
}

type statusSource interface {
	Status() notification.Status
}

// readInput forwards input lines to the coordinator until EOF, quit or
// cancellation. quit is closed when the user is done.
func readInput(ctx context.Context, r io.Reader, intents chan<- session.Intent, src statusSource, disp *display, quit chan<- struct{}) {
	defer close(quit)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd, err := parseCommand(scanner.Text())
		if err != nil {
			disp.message("%v", err)
			continue
		}

		switch cmd.action {
		case actionQuit:
			return
		case actionStatus:
			disp.status(src.Status())
		case actionHelp:
			disp.help()
		case actionIntent:
			in := cmd.intent.WithReply()
			select {
			case intents <- in:
			case <-ctx.Done():
				return
			}
			select {
			case err := <-in.Reply:
				if err != nil {
					disp.message("%s", describe(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		zlog.Error().Err(err).Msg("Failed to read input")
	}
}
