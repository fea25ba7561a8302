package notifier

import (
	"context"
	"sort"
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Dispatcher delivers events to every configured notifier.
type Dispatcher struct {
	notifiers []Notifier
	wg        sync.WaitGroup
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		notifiers: make([]Notifier, 0),
	}
}

// Build creates a dispatcher from name → settings pairs. Names are applied
// in sorted order so delivery order is stable.
func Build(enabled map[string]map[string]any) (*Dispatcher, error) {
	d := NewDispatcher()
	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n, err := New(name, enabled[name])
		if err != nil {
			return nil, err
		}
		zlog.Info().Msgf("notifier: enabled: name=%s", name)
		d.Add(n)
	}
	return d, nil
}

// Add adds a notifier.
func (d *Dispatcher) Add(n Notifier) {
	d.notifiers = append(d.notifiers, n)
}

// Notifiers returns all notifiers in the dispatcher.
func (d *Dispatcher) Notifiers() []Notifier {
	return d.notifiers
}

// Dispatch hands the event to every notifier in its own goroutine so a slow
// notifier never holds up the countdown. Failures are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n Notifier) {
			defer d.wg.Done()
			if err := n.Notify(ctx, ev); err != nil {
				zlog.Error().Err(err).Msgf("notifier: %s failed: event=%s", n.Name(), ev.Type)
			}
		}(n)
	}
}

// Wait blocks until every dispatched notification has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
