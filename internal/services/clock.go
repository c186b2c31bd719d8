package services

import (
	"time"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
)

// Calendar turns the wall clock into calendar dates in the billing timezone.
// Services never call time.Now directly so tests can pin "today".
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

// NewCalendar returns a Calendar backed by time.Now in loc.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{Now: time.Now, Location: loc}
}

// FixedCalendar returns a Calendar whose clock is stopped at now.
func FixedCalendar(now time.Time) *Calendar {
	return &Calendar{Now: func() time.Time { return now }, Location: now.Location()}
}

// Today returns the current calendar date in the billing timezone.
func (c *Calendar) Today() time.Time {
	return billing.CalendarDay(c.Now().In(c.Location))
}

// Instant returns the current time, used for audit-style timestamps.
func (c *Calendar) Instant() time.Time {
	return c.Now().UTC()
}
