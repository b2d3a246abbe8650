package worker

import (
	"testing"
	"time"

	"dripmail/models"

	"github.com/stretchr/testify/assert"
)

func TestDaysSinceSubscription(t *testing.T) {
	sub := time.Date(2026, 3, 7, 18, 45, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"same day later", time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC), 0},
		{"next day just after midnight", time.Date(2026, 3, 8, 0, 0, 1, 0, time.UTC), 1},
		{"three days at 00:01", time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC), 3},
		{"three days at 23:59", time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC), 3},
		{"across month end", time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC), 30},
		{"subscription in the future", time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysSinceSubscription(tt.now, sub))
		})
	}
}

func TestDaysSinceSubscriptionUsesUTCDates(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2026-03-08 02:00 in Tokyo is still 2026-03-07 in UTC.
	sub := time.Date(2026, 3, 8, 2, 0, 0, 0, tokyo)
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)

	assert.Equal(t, 3, DaysSinceSubscription(now, sub))
}

func TestDaysSinceSubscriptionStableAcrossDay(t *testing.T) {
	sub := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	early := time.Date(2026, 1, 3, 0, 1, 0, 0, time.UTC)
	late := time.Date(2026, 1, 3, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, DaysSinceSubscription(early, sub), DaysSinceSubscription(late, sub))
	assert.Equal(t, 3, DaysSinceSubscription(early, sub))
}

func TestMatchStep(t *testing.T) {
	steps := []models.DripStep{step(1, 0, "Welcome"), step(2, 3, "Tips"), step(3, 7, "Offer")}

	got, ok := MatchStep(steps, 3)
	assert.True(t, ok)
	assert.Equal(t, "Tips", got.Subject)

	_, ok = MatchStep(steps, 4)
	assert.False(t, ok)

	_, ok = MatchStep(steps, -1)
	assert.False(t, ok)

	_, ok = MatchStep(nil, 0)
	assert.False(t, ok)
}

func TestMatchStepFirstInStoredOrderWins(t *testing.T) {
	steps := []models.DripStep{step(1, 7, "Offer"), step(2, 3, "First three"), step(3, 3, "Second three")}

	got, ok := MatchStep(steps, 3)
	assert.True(t, ok)
	assert.Equal(t, uint(2), got.ID)
}

func TestCalendarDate(t *testing.T) {
	ny := time.FixedZone("EST", -5*60*60)
	assert.Equal(t, "2026-03-11", CalendarDate(time.Date(2026, 3, 10, 22, 0, 0, 0, ny)))
}

func TestDaysSinceSubscriptionFarDates(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 119360, DaysSinceSubscription(now, time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -136309, DaysSinceSubscription(now, time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysSinceSubscription(now, time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)))
}
