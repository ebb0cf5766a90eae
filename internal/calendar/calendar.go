package calendar

import (
	"sort"
	"time"
)

// Calendar is an ordered, de-duplicated sequence of valid trading days.
// Only the civil date of each entry matters; entries are normalized to
// midnight UTC so that lookups are independent of the supplied zone.
type Calendar struct {
	days []time.Time
}

// Normalize strips the clock from t, keeping its civil date at midnight UTC.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// New builds a calendar from an arbitrary day list. Days are normalized,
// sorted and de-duplicated.
func New(days []time.Time) *Calendar {
	normalized := make([]time.Time, 0, len(days))
	for _, d := range days {
		normalized = append(normalized, Normalize(d))
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Before(normalized[j])
	})

	deduped := normalized[:0]
	for _, d := range normalized {
		if len(deduped) == 0 || !deduped[len(deduped)-1].Equal(d) {
			deduped = append(deduped, d)
		}
	}

	return &Calendar{days: deduped}
}

// Weekdays generates a calendar of every Monday-Friday between start and end
// inclusive, skipping the given holidays.
func Weekdays(start, end time.Time, holidays ...time.Time) *Calendar {
	skip := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		skip[Normalize(h)] = struct{}{}
	}

	var days []time.Time
	for d := Normalize(start); !d.After(Normalize(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if _, holiday := skip[d]; holiday {
			continue
		}
		days = append(days, d)
	}

	return &Calendar{days: days}
}

func (c *Calendar) Len() int {
	return len(c.days)
}

// Day returns the i-th trading day.
func (c *Calendar) Day(i int) time.Time {
	return c.days[i]
}

// Position locates day in the calendar via binary search.
func (c *Calendar) Position(day time.Time) (int, bool) {
	target := Normalize(day)
	i := sort.Search(len(c.days), func(i int) bool {
		return !c.days[i].Before(target)
	})
	if i < len(c.days) && c.days[i].Equal(target) {
		return i, true
	}
	return 0, false
}

// Contains reports whether day is a trading day.
func (c *Calendar) Contains(day time.Time) bool {
	_, ok := c.Position(day)
	return ok
}

// Slice returns the calendar window of days on or after anchor.
func (c *Calendar) Slice(anchor time.Time) *Calendar {
	target := Normalize(anchor)
	i := sort.Search(len(c.days), func(i int) bool {
		return !c.days[i].Before(target)
	})
	return &Calendar{days: c.days[i:]}
}
