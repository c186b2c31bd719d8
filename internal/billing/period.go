// Package billing derives credit-card invoice periods from a card's closing
// and due days. Everything here is pure calendar arithmetic: no I/O and no
// implicit clock, so callers pass the reference date explicitly.
package billing

import (
	"errors"
	"time"
)

// ErrInvalidDays is returned when closing/due days are out of range.
var ErrInvalidDays = errors.New("billing: closing and due days must be between 1 and 31")

// Period is a single invoice window. Start and End are inclusive calendar
// dates; ClosingDate is the day after End, when the next window opens.
type Period struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ClosingDate time.Time `json:"closing_date"`
	DueDate     time.Time `json:"due_date"`
}

// Contains reports whether the calendar date of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Periods holds the invoice still to be paid and the one after it.
type Periods struct {
	Current Period `json:"current"`
	Next    Period `json:"next"`
}

// ValidateDays checks a card's closing/due day pair. Equal days are valid:
// the invoice is then due on its own closing date.
func ValidateDays(closingDay, dueDay int) error {
	if closingDay < 1 || closingDay > 31 || dueDay < 1 || dueDay > 31 {
		return ErrInvalidDays
	}
	return nil
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// ClampDay builds the date (year, month, day), moving day back to the last
// valid day of the month when the month is shorter.
func ClampDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	// normalise month overflow first so callers can pass month+1
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	year, month = first.Year(), first.Month()
	if last := DaysIn(year, month, loc); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// AddMonthsClamped moves t by n calendar months keeping the day of month,
// clamped to the target month's length (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	d := DateOf(t)
	return ClampDay(d.Year(), d.Month()+time.Month(n), d.Day(), d.Location())
}

// ClosingDate returns the card's closing date in the given month.
func ClosingDate(closingDay, year int, month time.Month, loc *time.Location) time.Time {
	return ClampDay(year, month, closingDay, loc)
}

// DueDateFor returns the due date of the invoice that closes on closingDate.
// When closingDay > dueDay the due date falls in the following month,
// otherwise in the closing month itself.
func DueDateFor(closingDay, dueDay int, closingDate time.Time) time.Time {
	month := closingDate.Month()
	if closingDay > dueDay {
		month++
	}
	return ClampDay(closingDate.Year(), month, dueDay, closingDate.Location())
}

// periodClosingIn builds the period whose closing date falls in (year, month).
func periodClosingIn(closingDay, dueDay, year int, month time.Month, loc *time.Location) Period {
	closing := ClosingDate(closingDay, year, month, loc)
	prev := ClosingDate(closingDay, year, month-1, loc)
	return Period{
		Start:       prev,
		End:         closing.AddDate(0, 0, -1),
		ClosingDate: closing,
		DueDate:     DueDateFor(closingDay, dueDay, closing),
	}
}

// following returns the period right after p.
func following(closingDay, dueDay int, p Period) Period {
	c := p.ClosingDate
	return periodClosingIn(closingDay, dueDay, c.Year(), c.Month()+1, c.Location())
}

// Compute returns the current and next invoice periods for ref. The current
// invoice is the earliest one whose due date is on or after ref, i.e. the
// bill that still has to be paid.
func Compute(closingDay, dueDay int, ref time.Time) (Periods, error) {
	if err := ValidateDays(closingDay, dueDay); err != nil {
		return Periods{}, err
	}
	day := DateOf(ref)

	// A due date is never more than two months after the month it closes in,
	// so starting two months back always finds the current period.
	p := periodClosingIn(closingDay, dueDay, day.Year(), day.Month()-2, day.Location())
	for p.DueDate.Before(day) {
		p = following(closingDay, dueDay, p)
	}
	return Periods{Current: p, Next: following(closingDay, dueDay, p)}, nil
}

// PeriodForCharge returns the invoice period a charge dated chargeDate
// belongs to. A charge on the closing day goes to the next period.
func PeriodForCharge(closingDay, dueDay int, chargeDate time.Time) (Period, error) {
	if err := ValidateDays(closingDay, dueDay); err != nil {
		return Period{}, err
	}
	day := DateOf(chargeDate)
	p := periodClosingIn(closingDay, dueDay, day.Year(), day.Month(), day.Location())
	if !day.Before(p.ClosingDate) {
		p = following(closingDay, dueDay, p)
	}
	return p, nil
}

// LatestClosing returns the most recent closing date on or before asOf.
func LatestClosing(closingDay int, asOf time.Time) time.Time {
	day := DateOf(asOf)
	c := ClosingDate(closingDay, day.Year(), day.Month(), day.Location())
	if c.After(day) {
		c = ClosingDate(closingDay, day.Year(), day.Month()-1, day.Location())
	}
	return c
}

// CalendarDay returns the calendar date of t, as seen in t's own location,
// as midnight UTC. Dates are persisted in this form so they compare the
// same way in every store.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
