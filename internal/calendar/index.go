package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOutOfCalendarRange marks a date that is missing from the trading
	// calendar or precedes the anchor day.
	ErrOutOfCalendarRange = errors.New("date outside trading calendar window")

	// ErrOutOfSessionRange marks a time of day outside the fixed session.
	ErrOutOfSessionRange = errors.New("time outside trading session")
)

// Index maps timestamps to sequential minute offsets and back. Offset zero
// is the anchor day's session open; every trading day contributes exactly
// Session.MinutesPerDay slots regardless of its actual session length, so a
// lookup is pure arithmetic after one binary search over the day list.
type Index struct {
	cal       *Calendar
	session   Session
	anchorIdx int
}

// NewIndex binds a calendar and an anchor day. The anchor must itself be a
// trading day.
func NewIndex(cal *Calendar, anchor time.Time, session Session) (*Index, error) {
	idx, ok := cal.Position(anchor)
	if !ok {
		return nil, fmt.Errorf("anchor %s: %w", Normalize(anchor).Format("2006-01-02"), ErrOutOfCalendarRange)
	}
	return &Index{cal: cal, session: session, anchorIdx: idx}, nil
}

// Anchor returns the first trading day of the indexed window.
func (ix *Index) Anchor() time.Time {
	return ix.cal.Day(ix.anchorIdx)
}

func (ix *Index) Session() Session {
	return ix.session
}

// dayIndex returns the position of day relative to the anchor day.
func (ix *Index) dayIndex(day time.Time) (int, error) {
	pos, ok := ix.cal.Position(day)
	if !ok || pos < ix.anchorIdx {
		return 0, fmt.Errorf("%s: %w", Normalize(day).Format("2006-01-02"), ErrOutOfCalendarRange)
	}
	return pos - ix.anchorIdx, nil
}

// Offset computes the sequential minute offset of t since the anchor day's
// session open. The day component must be a trading day on or after the
// anchor; the clock component must fall inside the fixed session.
func (ix *Index) Offset(t time.Time) (int, error) {
	local := t.In(ix.session.Location)

	dayIdx, err := ix.dayIndex(local)
	if err != nil {
		return 0, err
	}

	open := ix.session.OpenAt(local)
	elapsed := t.Sub(open)
	if elapsed < 0 {
		return 0, fmt.Errorf("%s before session open %s: %w",
			t.Format(time.RFC3339), open.Format("15:04"), ErrOutOfSessionRange)
	}

	minuteIdx := int(elapsed / time.Minute)
	if minuteIdx >= ix.session.MinutesPerDay {
		return 0, fmt.Errorf("%s past minute %d of the session: %w",
			t.Format(time.RFC3339), ix.session.MinutesPerDay, ErrOutOfSessionRange)
	}

	return ix.session.MinutesPerDay*dayIdx + minuteIdx, nil
}

// Minute is the inverse of Offset: it returns the canonical timestamp at
// the given minute offset.
func (ix *Index) Minute(offset int) (time.Time, error) {
	if offset < 0 {
		return time.Time{}, fmt.Errorf("offset %d: %w", offset, ErrOutOfCalendarRange)
	}

	dayIdx := ix.anchorIdx + offset/ix.session.MinutesPerDay
	if dayIdx >= ix.cal.Len() {
		return time.Time{}, fmt.Errorf("offset %d past calendar end: %w", offset, ErrOutOfCalendarRange)
	}

	open := ix.session.OpenAt(ix.cal.Day(dayIdx))
	return open.Add(time.Duration(offset%ix.session.MinutesPerDay) * time.Minute), nil
}

// Grid produces every canonical per-minute timestamp from the anchor day
// through lastDay inclusive, ascending. Its length fixes the dense array
// size for an instrument whose final observation falls on lastDay.
func (ix *Index) Grid(lastDay time.Time) ([]time.Time, error) {
	lastIdx, err := ix.dayIndex(lastDay.In(ix.session.Location))
	if err != nil {
		return nil, err
	}

	grid := make([]time.Time, 0, (lastIdx+1)*ix.session.MinutesPerDay)
	for d := 0; d <= lastIdx; d++ {
		open := ix.session.OpenAt(ix.cal.Day(ix.anchorIdx + d))
		for m := 0; m < ix.session.MinutesPerDay; m++ {
			grid = append(grid, open.Add(time.Duration(m)*time.Minute))
		}
	}
	return grid, nil
}
