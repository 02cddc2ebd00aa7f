package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marathon-bot/internal/config"
)

func TestKeyOf_DiscardsSeconds(t *testing.T) {
	base := time.Date(2025, time.March, 10, 19, 30, 0, 0, time.Local)

	for _, sec := range []int{0, 1, 30, 59} {
		key := KeyOf(base.Add(time.Duration(sec) * time.Second))
		assert.Equal(t, TimeKey{2025, time.March, 10, 19, 30}, key)
	}
}

func TestTimeKey_Matches(t *testing.T) {
	at := time.Date(2025, time.March, 10, 19, 30, 0, 0, time.Local)

	tests := []struct {
		name  string
		now   time.Time
		want  bool
	}{
		{"exact minute", at, true},
		{"mid-minute", at.Add(42 * time.Second), true},
		{"minute before", at.Add(-time.Minute), false},
		{"minute after", at.Add(time.Minute), false},
		{"same minute next day", at.AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyOf(tt.now).Matches(at))
		})
	}
}

func TestTimeKey_NeverMatchesZeroInstant(t *testing.T) {
	key := KeyOf(time.Now())
	assert.False(t, key.Matches(time.Time{}))
}

func TestFromConfig_ParsesCalendar(t *testing.T) {
	cfg := config.MarathonConfig{
		Broadcasts: []config.BroadcastConfig{
			{
				Day:        "День 1",
				StartsAt:   "2025-03-10 19:00",
				DayBefore:  "2025-03-09 19:00",
				HourBefore: "2025-03-10 18:00",
				After:      "2025-03-10 21:00",
			},
			{
				Day:           "День 2",
				StartsAt:      "2025-03-12 19:00",
				DayBefore:     "2025-03-11 19:00",
				HourBefore:    "2025-03-12 18:00",
				FiveMinBefore: "2025-03-12 18:55",
				After:         "2025-03-12 21:00",
			},
		},
		EndAt: "2025-03-14 12:00",
	}

	cal, err := FromConfig(cfg)
	require.NoError(t, err)
	require.Len(t, cal.Events, 2)

	first := cal.Events[0]
	assert.Equal(t, "День 1", first.Day)
	assert.Equal(t, time.Date(2025, time.March, 10, 19, 0, 0, 0, time.Local), first.StartsAt)
	assert.Equal(t, time.Date(2025, time.March, 9, 19, 0, 0, 0, time.Local), first.DayBefore)
	assert.True(t, first.FiveMinBefore.IsZero(), "omitted five-minute reminder stays disabled")

	second := cal.Events[1]
	assert.Equal(t, time.Date(2025, time.March, 12, 18, 55, 0, 0, time.Local), second.FiveMinBefore)

	assert.Equal(t, time.Date(2025, time.March, 14, 12, 0, 0, 0, time.Local), cal.EndAt)
}

func TestFromConfig_BadTimestamp(t *testing.T) {
	cfg := config.MarathonConfig{
		Broadcasts: []config.BroadcastConfig{
			{
				Day:        "День 1",
				StartsAt:   "10.03.2025 19:00", // wrong layout
				DayBefore:  "2025-03-09 19:00",
				HourBefore: "2025-03-10 18:00",
				After:      "2025-03-10 21:00",
			},
		},
	}

	_, err := FromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starts_at")
}

func TestFromConfig_EmptyCalendar(t *testing.T) {
	cal, err := FromConfig(config.MarathonConfig{})
	require.NoError(t, err)
	assert.Empty(t, cal.Events)
	assert.True(t, cal.EndAt.IsZero())
}
