package notifier

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// CommandConfig represents the configuration for CommandNotifier.
type CommandConfig struct {
	Command    string `yaml:"command" mapstructure:"command" validate:"required"`
	TimeoutSec int    `yaml:"timeout_sec" mapstructure:"timeout_sec" default:"10" validate:"gte=1,lte=600"`
}

// CommandNotifier runs a shell command for every event.
// The event is described through POMOBOX_* environment variables.
type CommandNotifier struct {
	config *CommandConfig
}

// NewCommandNotifier creates a new command notifier.
func NewCommandNotifier() *CommandNotifier {
	return &CommandNotifier{}
}

func (n *CommandNotifier) Name() string {
	return "command_notifier"
}

func (n *CommandNotifier) Description() string {
	return "Runs a shell command when a phase completes or the session finishes"
}

func (n *CommandNotifier) ValidateConfig(settings map[string]any) error {
	var config CommandConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	if strings.TrimSpace(config.Command) == "" {
		return errors.New("command must not be blank")
	}
	n.config = &config
	zlog.Info().Msgf("command notifier config: %+v", config)
	return nil
}

func (n *CommandNotifier) Notify(ctx context.Context, ev Event) error {
	if n.config == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(n.config.TimeoutSec)*time.Second)
	defer cancel()

	// Use sh -c to allow shell features like redirection or pipes
	cmd := exec.CommandContext(ctx, "sh", "-c", n.config.Command)
	cmd.Env = append(os.Environ(), eventEnv(ev)...)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		zlog.Debug().Msgf("command notifier: output: %s", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return errors.Wrapf(err, "command %q", n.config.Command)
	}
	return nil
}

// eventEnv returns the environment describing ev.
func eventEnv(ev Event) []string {
	env := []string{
		"POMOBOX_EVENT=" + string(ev.Type),
		"POMOBOX_SESSION_ID=" + ev.SessionID,
		"POMOBOX_PHASE=" + ev.Phase.Kind().String(),
		"POMOBOX_ITERATION=" + strconv.Itoa(int(ev.Iteration)),
		"POMOBOX_TOTAL_ITERATIONS=" + strconv.Itoa(int(ev.TotalIterations)),
	}
	if ev.Type == EventPhaseCompleted {
		env = append(env, "POMOBOX_NEXT_PHASE="+ev.Next.Kind().String())
	}
	return env
}

func init() {
	Register("command_notifier", func() Notifier {
		return &CommandNotifier{}
	})
}
