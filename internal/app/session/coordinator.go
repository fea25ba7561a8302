package session

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomobox/internal/app/notification"
	"github.com/osa030/pomobox/internal/app/notifier"
	"github.com/osa030/pomobox/internal/app/timer"
	"github.com/osa030/pomobox/internal/domain/phase"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSettingsStore persists accepted setting changes to store.
func WithSettingsStore(store SettingsStore) Option {
	return func(c *Coordinator) {
		c.store = store
	}
}

// WithEventSink delivers phase boundary events to sink.
func WithEventSink(sink EventSink) Option {
	return func(c *Coordinator) {
		c.sink = sink
	}
}

// WithNotifications broadcasts every status change through m.
func WithNotifications(m *notification.Manager) Option {
	return func(c *Coordinator) {
		c.notifications = m
	}
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(c *Coordinator) {
		c.id = id
	}
}

// Coordinator drives a session on top of a timer engine.
// Its methods are meant to be called from a single goroutine, normally Run.
// Status is safe to call from anywhere.
type Coordinator struct {
	id       string
	cfg      Config
	engine   Engine
	commands chan<- timer.Command

	store         SettingsStore
	sink          EventSink
	notifications *notification.Manager

	// Mirror of the engine state.
	running         bool
	finished        bool
	current         phase.Phase
	workPhase       phase.Phase
	breakPhase      phase.Phase
	iteration       uint8
	totalIterations uint8
	timeLeft        int64
	totalTime       int64
	totalElapsed    int64

	status atomic.Pointer[notification.Status]
}

// New creates a coordinator for engine, sending commands on commands.
// The mirror starts from the engine's current snapshot.
func New(cfg Config, engine Engine, commands chan<- timer.Command, opts ...Option) *Coordinator {
	c := &Coordinator{
		id:       uuid.New().String(),
		cfg:      cfg,
		engine:   engine,
		commands: commands,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sync(engine.Snapshot())
	c.publish()
	return c
}

// ID returns the session ID.
func (c *Coordinator) ID() string {
	return c.id
}

// Status returns the last published session status.
func (c *Coordinator) Status() notification.Status {
	return *c.status.Load()
}

// State returns the derived session state.
func (c *Coordinator) State() State {
	st := c.Status()
	switch {
	case st.Finished:
		return StateFinished
	case st.Running:
		return StateRunning
	default:
		return StateIdle
	}
}

// Cycle toggles between Start and Stop.
func (c *Coordinator) Cycle(ctx context.Context) error {
	if c.finished {
		return ErrSessionFinished
	}

	// A sentinel dropped under backpressure leaves the engine parked at the
	// end of the phase; finish that boundary instead of toggling.
	if snap := c.engine.Snapshot(); c.atBoundary(snap) {
		zlog.Warn().Msgf("session: completing phase boundary missed by the tick consumer: id=%s", c.id)
		return c.handleSentinel(ctx, snap)
	}

	if c.running {
		if err := c.send(ctx, timer.StopCommand()); err != nil {
			return err
		}
		c.running = false
		zlog.Info().Msgf("session: stopped: id=%s phase=%s iteration=%d/%d time_left=%d",
			c.id, c.current, c.iteration, c.totalIterations, c.timeLeft)
	} else {
		if err := c.send(ctx, timer.StartCommand()); err != nil {
			return err
		}
		c.running = true
		zlog.Info().Msgf("session: started: id=%s phase=%s iteration=%d/%d time_left=%d",
			c.id, c.current, c.iteration, c.totalIterations, c.timeLeft)
	}
	c.broadcast(notification.TypeStateChanged)
	return nil
}

// HandleTick consumes one tick value from the engine.
func (c *Coordinator) HandleTick(ctx context.Context, value int64) error {
	if value != timer.EndOfPhase {
		c.timeLeft = value
		if c.current.IsWork() {
			c.totalElapsed = c.engine.Snapshot().TotalElapsed()
		}
		c.broadcast(notification.TypeTick)
		return nil
	}

	snap := c.engine.Snapshot()
	if !c.atBoundary(snap) {
		zlog.Debug().Msgf("session: stale end-of-phase tick ignored: id=%s phase=%s iteration=%d",
			c.id, c.current, c.iteration)
		return nil
	}
	return c.handleSentinel(ctx, snap)
}

// atBoundary reports whether the engine sits at the end of the phase the
// mirror is in. A sentinel is only acted on when this holds, so each phase
// boundary advances the session once.
func (c *Coordinator) atBoundary(snap timer.State) bool {
	return !c.finished &&
		snap.TimeLeft() == timer.EndOfPhase &&
		snap.CurrentPhase().Kind() == c.current.Kind() &&
		snap.Iteration() == c.iteration
}

func (c *Coordinator) handleSentinel(ctx context.Context, snap timer.State) error {
	c.timeLeft = timer.EndOfPhase
	c.totalElapsed = snap.TotalElapsed()

	switch {
	case c.iteration < c.totalIterations:
		return c.advance(ctx)
	case c.iteration > c.totalIterations:
		return c.finish(ctx)
	case c.current.IsBreak():
		// Final break done.
		return c.finish(ctx)
	case c.cfg.SkipFinalBreak:
		return c.finish(ctx)
	default:
		// Final work phase done; the last break still runs.
		return c.advance(ctx)
	}
}

// advance moves the engine into the next phase with Stop, NextIteration and
// Start, relying on the engine applying commands in arrival order.
func (c *Coordinator) advance(ctx context.Context) error {
	if err := c.send(ctx, timer.StopCommand()); err != nil {
		return err
	}
	c.running = false

	if err := c.send(ctx, timer.NextIterationCommand()); err != nil {
		return err
	}
	completed := c.current
	if c.current.IsWork() {
		c.current = c.breakPhase
	} else {
		c.current = c.workPhase
		if c.iteration < math.MaxUint8 {
			c.iteration++
		}
	}
	c.timeLeft = c.current.Duration()

	if !c.cfg.PauseAfterPhaseChange {
		if err := c.send(ctx, timer.StartCommand()); err != nil {
			return err
		}
		c.running = true
	}

	zlog.Info().Msgf("session: phase completed: id=%s completed=%s next=%s iteration=%d/%d running=%t",
		c.id, completed, c.current, c.iteration, c.totalIterations, c.running)

	c.broadcast(notification.TypePhaseCompleted)
	c.dispatch(ctx, notifier.Event{
		Type:            notifier.EventPhaseCompleted,
		SessionID:       c.id,
		Phase:           completed,
		Next:            c.current,
		Iteration:       c.iteration,
		TotalIterations: c.totalIterations,
	})
	return nil
}

func (c *Coordinator) finish(ctx context.Context) error {
	if err := c.send(ctx, timer.StopCommand()); err != nil {
		return err
	}
	c.running = false
	c.finished = true

	zlog.Info().Msgf("session: finished: id=%s iterations=%d total_elapsed=%d",
		c.id, c.totalIterations, c.totalElapsed)

	c.broadcast(notification.TypeSessionFinished)
	c.dispatch(ctx, notifier.Event{
		Type:            notifier.EventSessionFinished,
		SessionID:       c.id,
		Phase:           c.current,
		Iteration:       c.iteration,
		TotalIterations: c.totalIterations,
	})
	return nil
}

// send delivers a command without waiting for it to be applied.
func (c *Coordinator) send(ctx context.Context, cmd timer.Command) error {
	select {
	case c.commands <- cmd:
		zlog.Debug().Msgf("session: command sent: id=%s type=%s", c.id, cmd.Type)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.engine.Done():
		return errors.Wrapf(timer.ErrEngineStopped, "send %s", cmd.Type)
	}
}

// request delivers a command and waits for the engine's verdict.
func (c *Coordinator) request(ctx context.Context, cmd timer.Command) error {
	cmd = cmd.WithReply()
	if err := c.send(ctx, cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.Reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.engine.Done():
		return errors.Wrapf(timer.ErrEngineStopped, "await %s", cmd.Type)
	}
}

// sync copies the engine snapshot into the mirror.
func (c *Coordinator) sync(snap timer.State) {
	c.running = snap.Running()
	c.current = snap.CurrentPhase()
	c.workPhase = snap.WorkPhase()
	c.breakPhase = snap.BreakPhase()
	c.iteration = snap.Iteration()
	c.totalIterations = snap.TotalIterations()
	c.timeLeft = snap.TimeLeft()
	c.totalTime = snap.TotalTime()
	c.totalElapsed = snap.TotalElapsed()
}

func (c *Coordinator) publish() notification.Status {
	st := notification.Status{
		Running:         c.running,
		Finished:        c.finished,
		TimeLeft:        c.timeLeft,
		Phase:           c.current,
		Iteration:       c.iteration,
		TotalIterations: c.totalIterations,
		TotalTime:       c.totalTime,
		TotalElapsed:    c.totalElapsed,
	}
	c.status.Store(&st)
	return st
}

func (c *Coordinator) broadcast(t notification.Type) {
	st := c.publish()
	if c.notifications == nil {
		return
	}
	c.notifications.Broadcast(notification.Notification{
		SessionID: c.id,
		Type:      t,
		Status:    st,
	})
}

func (c *Coordinator) dispatch(ctx context.Context, ev notifier.Event) {
	if c.sink == nil {
		return
	}
	ev.At = time.Now()
	c.sink.Dispatch(ctx, ev)
}
