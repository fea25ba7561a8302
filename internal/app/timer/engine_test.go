package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/pomobox/internal/domain/phase"
)

const testInterval = 5 * time.Millisecond

type harness struct {
	engine   *Engine
	ticks    chan int64
	commands chan Command
	cancel   context.CancelFunc
	result   chan error
}

func startEngine(t *testing.T, settings Settings) *harness {
	t.Helper()

	engine, err := New(Config{Settings: settings, TickInterval: testInterval})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		engine:   engine,
		ticks:    make(chan int64, 16),
		commands: make(chan Command, 4),
		cancel:   cancel,
		result:   make(chan error, 1),
	}
	go func() {
		h.result <- engine.Run(ctx, h.ticks, h.commands)
	}()
	t.Cleanup(func() {
		cancel()
		<-engine.Done()
	})
	return h
}

func (h *harness) send(t *testing.T, cmd Command) error {
	t.Helper()
	cmd = cmd.WithReply()
	h.commands <- cmd
	select {
	case err := <-cmd.Reply:
		return err
	case <-time.After(time.Second):
		t.Fatalf("no reply for %s", cmd.Type)
		return nil
	}
}

func (h *harness) nextTick(t *testing.T) int64 {
	t.Helper()
	select {
	case v := <-h.ticks:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}

func (h *harness) assertNoTick(t *testing.T) {
	t.Helper()
	select {
	case v := <-h.ticks:
		t.Fatalf("unexpected tick %d", v)
	case <-time.After(10 * testInterval):
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{name: "zero work", settings: Settings{WorkSeconds: 0, BreakSeconds: 2, Iterations: 1}},
		{name: "negative break", settings: Settings{WorkSeconds: 5, BreakSeconds: -1, Iterations: 1}},
		{name: "zero iterations", settings: Settings{WorkSeconds: 5, BreakSeconds: 2, Iterations: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := New(Config{Settings: tt.settings})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSetting)
			assert.Nil(t, engine)
		})
	}
}

func TestNew_DefaultTickInterval(t *testing.T) {
	engine, err := New(Config{Settings: testSettings()})
	require.NoError(t, err)
	assert.Equal(t, time.Second, engine.interval)

	snap := engine.Snapshot()
	assert.False(t, snap.Running())
	assert.Equal(t, uint8(1), snap.Iteration())
	assert.Equal(t, phase.Work(5), snap.CurrentPhase())
}

func TestEngine_CountsDownToSentinel(t *testing.T) {
	h := startEngine(t, testSettings())

	require.NoError(t, h.send(t, StartCommand()))

	var got []int64
	for i := 0; i < 6; i++ {
		got = append(got, h.nextTick(t))
	}
	assert.Equal(t, []int64{4, 3, 2, 1, 0, EndOfPhase}, got)

	// Exhausted countdown idles until told otherwise.
	h.assertNoTick(t)

	snap := h.engine.Snapshot()
	assert.True(t, snap.Running())
	assert.Equal(t, EndOfPhase, snap.TimeLeft())
	assert.Equal(t, int64(6), snap.TotalElapsed())
}

func TestEngine_IdleWhenStopped(t *testing.T) {
	h := startEngine(t, Settings{WorkSeconds: 1000, BreakSeconds: 2, Iterations: 1})

	h.assertNoTick(t)

	require.NoError(t, h.send(t, StartCommand()))
	assert.Equal(t, int64(999), h.nextTick(t))

	require.NoError(t, h.send(t, StopCommand()))
	// Drain anything emitted before Stop was applied.
	for len(h.ticks) > 0 {
		<-h.ticks
	}
	h.assertNoTick(t)

	snap := h.engine.Snapshot()
	assert.False(t, snap.Running())
	left := snap.TimeLeft()
	assert.GreaterOrEqual(t, left, int64(0))

	require.NoError(t, h.send(t, StartCommand()))
	assert.Equal(t, left-1, h.nextTick(t))
}

func TestEngine_StartStopIdempotent(t *testing.T) {
	h := startEngine(t, testSettings())

	sequences := [][]Command{
		{StopCommand()},
		{StopCommand(), StopCommand()},
		{StartCommand(), StopCommand(), StopCommand()},
		{StartCommand(), StartCommand(), StopCommand()},
		{StopCommand(), StartCommand()},
		{StartCommand(), StartCommand()},
	}

	for _, seq := range sequences {
		for _, cmd := range seq {
			require.NoError(t, h.send(t, cmd))
		}
		want := seq[len(seq)-1].Type == CmdStart
		assert.Equal(t, want, h.engine.Snapshot().Running())
	}
}

func TestEngine_CustomizeWhileRunningRejected(t *testing.T) {
	h := startEngine(t, testSettings())

	require.NoError(t, h.send(t, StartCommand()))
	h.nextTick(t)

	err := h.send(t, CustomizeCommand(WorkTime(1200)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimerRunning)

	snap := h.engine.Snapshot()
	assert.Equal(t, phase.Work(5), snap.WorkPhase())
	assert.Equal(t, int64(10), snap.TotalTime())
	assert.True(t, snap.Running())
}

func TestEngine_CustomizeInvalid(t *testing.T) {
	h := startEngine(t, testSettings())

	err := h.send(t, CustomizeCommand(BreakTime(0)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSetting)
	assert.Equal(t, phase.Break(2), h.engine.Snapshot().BreakPhase())
}

func TestEngine_CustomizeRestartsSession(t *testing.T) {
	h := startEngine(t, testSettings())

	require.NoError(t, h.send(t, StartCommand()))
	h.nextTick(t)
	require.NoError(t, h.send(t, StopCommand()))
	require.NoError(t, h.send(t, NextIterationCommand()))

	require.NoError(t, h.send(t, CustomizeCommand(Iterations(3))))

	snap := h.engine.Snapshot()
	assert.False(t, snap.Running())
	assert.Equal(t, uint8(1), snap.Iteration())
	assert.Equal(t, uint8(3), snap.TotalIterations())
	assert.Equal(t, int64(15), snap.TotalTime())
	assert.Equal(t, int64(0), snap.TotalElapsed())
	assert.Equal(t, int64(5), snap.TimeLeft())
	assert.True(t, snap.CurrentPhase().IsWork())
}

func TestEngine_NextIteration(t *testing.T) {
	h := startEngine(t, testSettings())

	require.NoError(t, h.send(t, NextIterationCommand()))
	snap := h.engine.Snapshot()
	assert.Equal(t, phase.Break(2), snap.CurrentPhase())
	assert.Equal(t, uint8(1), snap.Iteration())
	assert.Equal(t, int64(2), snap.TimeLeft())

	require.NoError(t, h.send(t, NextIterationCommand()))
	snap = h.engine.Snapshot()
	assert.Equal(t, phase.Work(5), snap.CurrentPhase())
	assert.Equal(t, uint8(2), snap.Iteration())

	require.NoError(t, h.send(t, StartCommand()))
	err := h.send(t, NextIterationCommand())
	assert.ErrorIs(t, err, ErrTimerRunning)
	snap = h.engine.Snapshot()
	assert.Equal(t, phase.Work(5), snap.CurrentPhase(), "no swap while running")
	assert.Equal(t, uint8(2), snap.Iteration())
}

func TestEngine_StopNextStartSequence(t *testing.T) {
	h := startEngine(t, testSettings())

	require.NoError(t, h.send(t, StartCommand()))
	for v := h.nextTick(t); v != EndOfPhase; v = h.nextTick(t) {
	}

	// Fire-and-forget like the coordinator; FIFO delivery keeps the order.
	h.commands <- StopCommand()
	h.commands <- NextIterationCommand()
	h.commands <- StartCommand()

	assert.Equal(t, int64(1), h.nextTick(t))
	assert.Equal(t, int64(0), h.nextTick(t))
	assert.Equal(t, EndOfPhase, h.nextTick(t))

	snap := h.engine.Snapshot()
	assert.True(t, snap.CurrentPhase().IsBreak())
	assert.Equal(t, uint8(1), snap.Iteration())
	assert.Equal(t, int64(6), snap.TotalElapsed(), "break seconds do not accrue")
}

func TestEngine_Cancellation(t *testing.T) {
	h := startEngine(t, Settings{WorkSeconds: 1000, BreakSeconds: 2, Iterations: 1})

	require.NoError(t, h.send(t, StartCommand()))
	h.nextTick(t)

	h.cancel()

	select {
	case err := <-h.result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}

	select {
	case <-h.engine.Done():
	default:
		t.Fatal("done channel not closed")
	}

	for len(h.ticks) > 0 {
		<-h.ticks
	}
	h.assertNoTick(t)
}

func TestEngine_CommandChannelClosed(t *testing.T) {
	h := startEngine(t, testSettings())

	close(h.commands)

	select {
	case err := <-h.result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestEngine_RunTwice(t *testing.T) {
	h := startEngine(t, testSettings())

	err := h.engine.Run(context.Background(), h.ticks, h.commands)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestEngine_DropsTicksForStalledConsumer(t *testing.T) {
	engine, err := New(Config{
		Settings:     Settings{WorkSeconds: 1000, BreakSeconds: 2, Iterations: 1},
		TickInterval: testInterval,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan int64) // never read
	commands := make(chan Command, 1)
	go func() { _ = engine.Run(ctx, ticks, commands) }()

	commands <- StartCommand()

	assert.Eventually(t, func() bool {
		return engine.Snapshot().TimeLeft() <= 995
	}, time.Second, testInterval, "countdown keeps advancing without a listener")

	cancel()
	<-engine.Done()
}
