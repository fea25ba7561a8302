package notifier

import (
	"context"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// LogConfig represents the configuration for LogNotifier.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
}

// LogNotifier writes events to the application log.
type LogNotifier struct {
	level zerolog.Level
}

func (n *LogNotifier) Name() string {
	return "log_notifier"
}

func (n *LogNotifier) Description() string {
	return "Writes phase and session events to the log"
}

func (n *LogNotifier) ValidateConfig(settings map[string]any) error {
	var config LogConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return err
	}
	n.level = level
	return nil
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	e := zlog.WithLevel(n.level)
	switch ev.Type {
	case EventPhaseCompleted:
		e.Msgf("notifier: %s completed: next=%s iteration=%d/%d session=%s",
			ev.Phase, ev.Next, ev.Iteration, ev.TotalIterations, ev.SessionID)
	default:
		e.Msgf("notifier: session finished: iterations=%d session=%s", ev.TotalIterations, ev.SessionID)
	}
	return nil
}

func init() {
	Register("log_notifier", func() Notifier {
		return &LogNotifier{level: zerolog.InfoLevel}
	})
}
