package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultDayCountBasis is the number of days in an interest year.
	DefaultDayCountBasis = 365
	// DefaultPlaces is the number of decimal places interest amounts are rounded to.
	DefaultPlaces int32 = 2

	// DateLayout is the canonical text form of a calendar date.
	DateLayout = "2006-01-02"
)

// dateLayouts are the accepted input layouts, canonical first.
var dateLayouts = []string{DateLayout, "01/02/2006"}

// Calculator computes maturity dates and simple (non-compounding) interest.
// The zero value uses DefaultDayCountBasis and DefaultPlaces.
type Calculator struct {
	// Basis is the day-count denominator (365 unless configured otherwise).
	Basis int
	// Places is the rounding precision of interest amounts.
	Places int32
}

// DefaultCalculator is the policy used by the package-level helpers.
var DefaultCalculator = Calculator{Basis: DefaultDayCountBasis, Places: DefaultPlaces}

func (c Calculator) basis() int64 {
	if c.Basis <= 0 {
		return DefaultDayCountBasis
	}
	return int64(c.Basis)
}

func (c Calculator) places() int32 {
	if c.Places <= 0 {
		return DefaultPlaces
	}
	return c.Places
}

// MaturityDate advances origin by termMonths calendar months, keeping the
// day-of-month when the target month has it and clamping to the month's
// last day otherwise (2024-01-31 + 1 month = 2024-02-29).
func (c Calculator) MaturityDate(origin time.Time, termMonths int) (time.Time, error) {
	if termMonths <= 0 {
		return time.Time{}, invalidInput("term must be positive, got %d months", termMonths)
	}
	return AddMonths(origin, termMonths), nil
}

// AccruedInterest returns principal * rate * elapsedDays / basis, rounded.
// It is zero when asOf is on or before origin.
func (c Calculator) AccruedInterest(principal, rate decimal.Decimal, origin, asOf time.Time) (decimal.Decimal, error) {
	if principal.IsNegative() {
		return decimal.Zero, invalidInput("principal must not be negative, got %s", principal)
	}
	if rate.IsNegative() {
		return decimal.Zero, invalidInput("interest rate must not be negative, got %s", rate)
	}
	days := DaysBetween(origin, asOf)
	if days <= 0 {
		return decimal.Zero, nil
	}
	interest := principal.Mul(rate).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(c.basis()))
	return interest.Round(c.places()), nil
}

// NoteInterest is AccruedInterest for a note's principal, rate and origin.
func (c Calculator) NoteInterest(n Note, asOf time.Time) (decimal.Decimal, error) {
	return c.AccruedInterest(n.Principal, n.InterestRate, n.OriginDate, asOf)
}

// TotalValue returns principal plus interest accrued as of the given date.
func (c Calculator) TotalValue(n Note, asOf time.Time) (decimal.Decimal, error) {
	interest, err := c.NoteInterest(n, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return n.Principal.Add(interest), nil
}

// ValueAtMaturity is TotalValue as of the note's maturity date.
func (c Calculator) ValueAtMaturity(n Note) (decimal.Decimal, error) {
	return c.TotalValue(n, n.MaturityDate)
}

// MaturityDate computes a maturity date with DefaultCalculator.
func MaturityDate(origin time.Time, termMonths int) (time.Time, error) {
	return DefaultCalculator.MaturityDate(origin, termMonths)
}

// AccruedInterest computes simple interest with DefaultCalculator.
func AccruedInterest(principal, rate decimal.Decimal, origin, asOf time.Time) (decimal.Decimal, error) {
	return DefaultCalculator.AccruedInterest(principal, rate, origin, asOf)
}

// TotalValue computes principal plus accrued interest with DefaultCalculator.
func TotalValue(n Note, asOf time.Time) (decimal.Decimal, error) {
	return DefaultCalculator.TotalValue(n, asOf)
}

// DaysToMaturity returns the whole days from today until the note matures.
// It is negative once the maturity date has passed.
func DaysToMaturity(n Note, today time.Time) int {
	return DaysBetween(today, n.MaturityDate)
}

// AddMonths adds calendar months with end-of-month clamping.
func AddMonths(d time.Time, months int) time.Time {
	year, month, day := Day(d).Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the number of whole calendar days from a to b.
// Dates are compared as Unix seconds since time.Duration cannot span
// more than about 292 years.
func DaysBetween(a, b time.Time) int {
	return int((Day(b).Unix() - Day(a).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" and "01/02/2006".
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or MM/DD/YYYY)", text)
}

// FormatDate renders a date in DateLayout. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
