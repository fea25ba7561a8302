package notifier

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// BellConfig represents the configuration for BellNotifier.
type BellConfig struct {
	Count int `yaml:"count" mapstructure:"count" default:"1" validate:"gte=1,lte=10"`
}

// BellNotifier rings the terminal bell.
type BellNotifier struct {
	config *BellConfig
	out    io.Writer
}

// NewBellNotifier creates a bell notifier writing to w.
func NewBellNotifier(w io.Writer) *BellNotifier {
	return &BellNotifier{out: w}
}

func (n *BellNotifier) Name() string {
	return "bell_notifier"
}

func (n *BellNotifier) Description() string {
	return "Rings the terminal bell when a phase completes or the session finishes"
}

func (n *BellNotifier) ValidateConfig(settings map[string]any) error {
	var config BellConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	n.config = &config
	zlog.Info().Msgf("bell notifier config: %+v", config)
	return nil
}

func (n *BellNotifier) Notify(ctx context.Context, ev Event) error {
	count := 1
	if n.config != nil {
		count = n.config.Count
	}
	if _, err := io.WriteString(n.out, strings.Repeat("\a", count)); err != nil {
		return errors.Wrap(err, "failed to ring bell")
	}
	return nil
}

func init() {
	Register("bell_notifier", func() Notifier {
		return NewBellNotifier(os.Stdout)
	})
}
