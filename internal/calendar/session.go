package calendar

import (
	"fmt"
	"time"
)

// Session describes the fixed geometry of one trading day shared by the
// writer and every reader of a store: how many minute slots each day
// contributes and the wall-clock session open in the market's zone.
type Session struct {
	MinutesPerDay int
	OpenHour      int
	OpenMinute    int
	Location      *time.Location
}

// NewSession parses an "HH:MM" session open clock and an IANA zone name.
func NewSession(minutesPerDay int, open, timezone string) (Session, error) {
	if minutesPerDay <= 0 {
		return Session{}, fmt.Errorf("minutes per day must be positive, got %d", minutesPerDay)
	}

	clock, err := time.Parse("15:04", open)
	if err != nil {
		return Session{}, fmt.Errorf("parse session open %q: %w", open, err)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Session{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return Session{
		MinutesPerDay: minutesPerDay,
		OpenHour:      clock.Hour(),
		OpenMinute:    clock.Minute(),
		Location:      loc,
	}, nil
}

// OpenAt returns the session open instant for the given trading day.
// The first stored minute of a day carries this timestamp.
func (s Session) OpenAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.OpenHour, s.OpenMinute, 0, 0, s.Location)
}
