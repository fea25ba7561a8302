package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase_Constructors(t *testing.T) {
	tests := []struct {
		name     string
		phase    Phase
		kind     Kind
		duration int64
		label    string
	}{
		{
			name:     "work phase",
			phase:    Work(1800),
			kind:     KindWork,
			duration: 1800,
			label:    "Work",
		},
		{
			name:     "break phase",
			phase:    Break(300),
			kind:     KindBreak,
			duration: 300,
			label:    "Break",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.phase.Kind())
			assert.Equal(t, tt.duration, tt.phase.Duration())
			assert.Equal(t, tt.label, tt.phase.String())
			assert.Equal(t, tt.kind == KindWork, tt.phase.IsWork())
			assert.Equal(t, tt.kind == KindBreak, tt.phase.IsBreak())
		})
	}
}

func TestPhase_Equality(t *testing.T) {
	assert.Equal(t, Work(60), Work(60))
	assert.NotEqual(t, Work(60), Break(60))
	assert.NotEqual(t, Work(60), Work(61))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "work", KindWork.String())
	assert.Equal(t, "break", KindBreak.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{seconds: 0, expected: "00:00:00"},
		{seconds: 59, expected: "00:00:59"},
		{seconds: 1800, expected: "00:30:00"},
		{seconds: 5549, expected: "01:32:29"},
		{seconds: -1, expected: "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatClock(tt.seconds))
		})
	}
}
