package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/pomobox/internal/domain/phase"
)

func testSettings() Settings {
	return Settings{WorkSeconds: 5, BreakSeconds: 2, Iterations: 2}
}

func TestNewState(t *testing.T) {
	st := newState(testSettings())

	assert.False(t, st.Running())
	assert.Equal(t, int64(5), st.TimeLeft())
	assert.Equal(t, uint8(1), st.Iteration())
	assert.Equal(t, uint8(2), st.TotalIterations())
	assert.Equal(t, phase.Work(5), st.CurrentPhase())
	assert.Equal(t, phase.Break(2), st.NextPhase())
	assert.Equal(t, int64(10), st.TotalTime())
	assert.Equal(t, int64(0), st.TotalElapsed())
	assert.Equal(t, testSettings(), st.Settings())
}

func TestState_Tick(t *testing.T) {
	st := newState(testSettings())

	assert.Equal(t, int64(4), st.tick())
	assert.Equal(t, int64(1), st.TotalElapsed(), "work seconds accrue")

	require.True(t, st.swapPhases())
	assert.Equal(t, int64(1), st.tick())
	assert.Equal(t, int64(1), st.TotalElapsed(), "break seconds do not accrue")
}

func TestState_SwapPhases(t *testing.T) {
	t.Run("swaps while stopped", func(t *testing.T) {
		st := newState(testSettings())

		require.True(t, st.swapPhases())
		assert.Equal(t, phase.Break(2), st.CurrentPhase())
		assert.Equal(t, phase.Work(5), st.NextPhase())
		assert.Equal(t, int64(2), st.TimeLeft())

		require.True(t, st.swapPhases())
		assert.Equal(t, phase.Work(5), st.CurrentPhase())
		assert.Equal(t, phase.Break(2), st.NextPhase())
		assert.Equal(t, int64(5), st.TimeLeft())
	})

	t.Run("refuses while running", func(t *testing.T) {
		st := newState(testSettings())
		st.running = true
		st.tick()

		assert.False(t, st.swapPhases())
		assert.Equal(t, phase.Work(5), st.CurrentPhase())
		assert.Equal(t, int64(4), st.TimeLeft())
	})
}

func TestState_NextIteration(t *testing.T) {
	st := newState(testSettings())

	require.True(t, st.nextIteration())
	assert.Equal(t, uint8(1), st.Iteration(), "entering break does not count")
	assert.True(t, st.CurrentPhase().IsBreak())

	require.True(t, st.nextIteration())
	assert.Equal(t, uint8(2), st.Iteration(), "entering work counts")
	assert.True(t, st.CurrentPhase().IsWork())

	st.running = true
	assert.False(t, st.nextIteration())
	assert.Equal(t, uint8(2), st.Iteration(), "refused swap does not count")
	assert.True(t, st.CurrentPhase().IsWork())
}

func TestState_Customize(t *testing.T) {
	tests := []struct {
		name      string
		change    SettingChange
		settings  Settings
		totalTime int64
	}{
		{
			name:      "work time",
			change:    WorkTime(1200),
			settings:  Settings{WorkSeconds: 1200, BreakSeconds: 2, Iterations: 2},
			totalTime: 2400,
		},
		{
			name:      "break time",
			change:    BreakTime(60),
			settings:  Settings{WorkSeconds: 5, BreakSeconds: 60, Iterations: 2},
			totalTime: 10,
		},
		{
			name:      "iterations",
			change:    Iterations(4),
			settings:  Settings{WorkSeconds: 5, BreakSeconds: 2, Iterations: 4},
			totalTime: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState(testSettings())
			// Move into a mid-session break to prove the reset.
			st.tick()
			require.True(t, st.nextIteration())
			require.True(t, st.nextIteration())
			require.True(t, st.nextIteration())

			st.customize(tt.change)

			assert.Equal(t, tt.settings, st.Settings())
			assert.Equal(t, tt.totalTime, st.TotalTime())
			assert.Equal(t, tt.settings.WorkSeconds*int64(tt.settings.Iterations), st.TotalTime())
			assert.Equal(t, uint8(1), st.Iteration())
			assert.Equal(t, int64(0), st.TotalElapsed())
			assert.Equal(t, tt.settings.WorkSeconds, st.TimeLeft())
			assert.Equal(t, phase.Work(tt.settings.WorkSeconds), st.CurrentPhase())
			assert.Equal(t, phase.Break(tt.settings.BreakSeconds), st.NextPhase())
			assert.False(t, st.Running())
		})
	}
}

func TestState_BreakTimeChangeSurvivesSwap(t *testing.T) {
	st := newState(testSettings())
	st.customize(BreakTime(90))

	require.True(t, st.nextIteration())
	assert.Equal(t, phase.Break(90), st.CurrentPhase())
	assert.Equal(t, int64(90), st.TimeLeft())
}

func TestState_Progress(t *testing.T) {
	st := newState(testSettings())
	assert.Equal(t, 0.0, st.Progress())

	st.tick()
	st.tick()
	assert.InDelta(t, 0.2, st.Progress(), 1e-9)

	st.totalElapsed = 50
	assert.Equal(t, 1.0, st.Progress())

	st.totalTime = 0
	assert.Equal(t, 0.0, st.Progress())
}

func TestState_Setting(t *testing.T) {
	st := newState(testSettings())

	assert.Equal(t, int64(5), st.Setting(SettingWorkTime))
	assert.Equal(t, int64(2), st.Setting(SettingBreakTime))
	assert.Equal(t, int64(2), st.Setting(SettingIterations))
	assert.Equal(t, int64(0), st.Setting(SettingKind(99)))
}

func TestSettingChange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		change  SettingChange
		wantErr bool
	}{
		{name: "valid work", change: WorkTime(1800)},
		{name: "valid break", change: BreakTime(1)},
		{name: "valid iterations", change: Iterations(4)},
		{name: "zero work", change: WorkTime(0), wantErr: true},
		{name: "negative break", change: BreakTime(-5), wantErr: true},
		{name: "zero iterations", change: Iterations(0), wantErr: true},
		{name: "too many iterations", change: SettingChange{Kind: SettingIterations, Value: 256}, wantErr: true},
		{name: "unknown kind", change: SettingChange{Kind: SettingKind(9), Value: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidSetting)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
