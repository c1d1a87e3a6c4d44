package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 42, 0, time.UTC)
}

func TestNextRunAtBeforeTargetHour(t *testing.T) {
	now := at(7, 30)
	next := NextRunAt(now, 9)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), next)
}

func TestNextRunAtAfterTargetHour(t *testing.T) {
	now := at(14, 5)
	next := NextRunAt(now, 9)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), next)
}

func TestNextRunAtWithinTargetHourAdvances(t *testing.T) {
	// 09:xx means today's 09:00 already started; schedule tomorrow
	now := at(9, 0)
	next := NextRunAt(now, 9)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), next)
}

func TestNextRunAtStrictlyFutureAtClockHour(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for _, now := range []time.Time{at(0, 0), at(hour, 0), at(23, 59)} {
			next := NextRunAt(now, hour)
			assert.True(t, next.After(now), "next=%v now=%v hour=%d", next, now, hour)
			assert.Equal(t, hour, next.Hour())
			assert.Zero(t, next.Minute())
			assert.Zero(t, next.Second())
			assert.Zero(t, next.Nanosecond())
		}
	}
}

func TestNextRunAtMonthRollover(t *testing.T) {
	now := time.Date(2026, 1, 31, 22, 0, 0, 0, time.UTC)
	next := NextRunAt(now, 6)
	assert.Equal(t, time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC), next)
}

func TestNextRunAtClampsHour(t *testing.T) {
	now := at(1, 0)
	assert.Equal(t, 23, NextRunAt(now, 99).Hour())
	assert.Equal(t, 0, NextRunAt(now, -3).Hour())
}

func TestIsDue(t *testing.T) {
	now := at(12, 0)
	past := at(11, 0)
	future := at(13, 0)

	assert.False(t, IsDue(now, nil), "paused automations are never due")
	assert.True(t, IsDue(now, &past))
	assert.True(t, IsDue(now, &now))
	assert.False(t, IsDue(now, &future))
}
