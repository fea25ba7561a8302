// Package notifier provides pluggable notifiers that react to completed
// phases and finished sessions.
package notifier

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/pomobox/internal/domain/phase"
)

// ErrUnknownNotifier is returned when a configured notifier is not registered.
var ErrUnknownNotifier = errors.New("unknown notifier")

// EventType identifies what a notifier is told about.
type EventType string

const (
	EventPhaseCompleted  EventType = "phase_completed"
	EventSessionFinished EventType = "session_finished"
)

// Event describes a phase boundary.
type Event struct {
	Type            EventType
	SessionID       string
	Phase           phase.Phase // The phase that just ended
	Next            phase.Phase // The phase entered next; zero when finished
	Iteration       uint8
	TotalIterations uint8
	At              time.Time
}

// Notifier is the interface for completion notifiers.
type Notifier interface {
	// Name returns the notifier name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ValidateConfig validates and stores the notifier configuration.
	ValidateConfig(settings map[string]any) error
	// Notify delivers the event.
	Notify(ctx context.Context, ev Event) error
}

// registry holds registered notifier factories.
var registry = make(map[string]func() Notifier)

// Register registers a notifier factory.
func Register(name string, factory func() Notifier) {
	registry[name] = factory
}

// GetRegistered returns all registered notifier factories.
func GetRegistered() map[string]func() Notifier {
	return registry
}

// Names returns the registered notifier names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a registered notifier by name and applies its settings.
func New(name string, settings map[string]any) (Notifier, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNotifier, "%q", name)
	}
	n := factory()
	if err := n.ValidateConfig(settings); err != nil {
		return nil, errors.Wrapf(err, "notifier %s", name)
	}
	return n, nil
}

// decodeSettings fills out from settings, applies default tags and validates.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
