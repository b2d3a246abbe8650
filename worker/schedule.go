package worker

import (
	"time"

	"dripmail/models"
)

// DaysSinceSubscription returns the number of whole calendar days between
// the UTC dates of subscribedAt and now. The time of day of either value
// does not matter. A subscription date in the future yields a negative count.
func DaysSinceSubscription(now, subscribedAt time.Time) int {
	// Unix seconds, since Duration saturates after about 292 years
	seconds := utcMidnight(now).Unix() - utcMidnight(subscribedAt).Unix()
	return int(seconds / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// MatchStep returns the first step, in stored order, whose DelayDays equals
// days. Every step is checked, so unsorted steps still match.
func MatchStep(steps []models.DripStep, days int) (*models.DripStep, bool) {
	if days < 0 {
		return nil, false
	}
	for i := range steps {
		if steps[i].DelayDays == days {
			return &steps[i], true
		}
	}
	return nil, false
}

// CalendarDate formats t's UTC date as YYYY-MM-DD.
func CalendarDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
