package scheduler

import (
	"testing"
	"time"

	"enrollment_notifier/internal/infra/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestIntervalTarget_Next(t *testing.T) {
	target := IntervalTarget{Every: 12 * time.Hour}
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, start.Add(12*time.Hour), target.Next(start, start.Add(10*time.Minute)))

	overrun := start.Add(13 * time.Hour)
	assert.Equal(t, overrun, target.Next(start, overrun), "overrun fires immediately")
}

func TestAnchorTarget_Next(t *testing.T) {
	ny := newYork(t)
	target, err := NewAnchorTarget([]int{9, 21}, "America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "morning goes to evening anchor",
			now:  time.Date(2026, 10, 15, 10, 0, 0, 0, ny),
			want: time.Date(2026, 10, 15, 21, 0, 0, 0, ny),
		},
		{
			name: "late evening goes to next morning",
			now:  time.Date(2026, 10, 15, 22, 0, 0, 0, ny),
			want: time.Date(2026, 10, 16, 9, 0, 0, 0, ny),
		},
		{
			name: "exactly on an anchor goes to the following one",
			now:  time.Date(2026, 10, 15, 21, 0, 0, 0, ny),
			want: time.Date(2026, 10, 16, 9, 0, 0, 0, ny),
		},
		{
			name: "input zone does not matter",
			now:  time.Date(2026, 10, 15, 14, 0, 0, 0, time.UTC), // 10:00 EDT
			want: time.Date(2026, 10, 15, 21, 0, 0, 0, ny),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := target.Next(tt.now, tt.now)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNewAnchorTarget_Errors(t *testing.T) {
	_, err := NewAnchorTarget(nil, "America/New_York")
	assert.Error(t, err)

	_, err = NewAnchorTarget([]int{24}, "America/New_York")
	assert.Error(t, err)

	_, err = NewAnchorTarget([]int{9}, "Mars/Olympus")
	assert.Error(t, err)
}

func TestNewTargetFromConfig(t *testing.T) {
	target, err := NewTargetFromConfig(config.ScheduleConfig{Mode: config.ScheduleInterval, Interval: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, IntervalTarget{Every: time.Hour}, target)

	target, err = NewTargetFromConfig(config.ScheduleConfig{Mode: config.ScheduleAnchors, AnchorHours: []int{9, 21}, TimeZone: "America/New_York"})
	require.NoError(t, err)
	assert.IsType(t, &AnchorTarget{}, target)

	_, err = NewTargetFromConfig(config.ScheduleConfig{Mode: config.ScheduleInterval})
	assert.Error(t, err)

	_, err = NewTargetFromConfig(config.ScheduleConfig{Mode: "weekly"})
	assert.Error(t, err)
}

func TestUpcoming(t *testing.T) {
	ny := newYork(t)
	target, err := NewAnchorTarget([]int{21, 9}, "America/New_York")
	require.NoError(t, err)

	got := Upcoming(target, time.Date(2026, 10, 15, 10, 0, 0, 0, ny), 3)
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(time.Date(2026, 10, 15, 21, 0, 0, 0, ny)))
	assert.True(t, got[1].Equal(time.Date(2026, 10, 16, 9, 0, 0, 0, ny)))
	assert.True(t, got[2].Equal(time.Date(2026, 10, 16, 21, 0, 0, 0, ny)))
}
