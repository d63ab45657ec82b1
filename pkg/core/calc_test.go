package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aretw0/noteledger/pkg/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMaturityDate(t *testing.T) {
	tests := []struct {
		name   string
		origin time.Time
		term   int
		want   time.Time
	}{
		{"same day next year", core.Date(2023, 1, 1), 12, core.Date(2024, 1, 1)},
		{"leap year clamp", core.Date(2024, 1, 31), 1, core.Date(2024, 2, 29)},
		{"non leap year clamp", core.Date(2023, 1, 31), 1, core.Date(2023, 2, 28)},
		{"thirty day month clamp", core.Date(2024, 3, 31), 1, core.Date(2024, 4, 30)},
		{"crosses year", core.Date(2024, 11, 15), 3, core.Date(2025, 2, 15)},
		{"long term", core.Date(2020, 2, 29), 48, core.Date(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.MaturityDate(tt.origin, tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaturityDate_RejectsNonPositiveTerm(t *testing.T) {
	for _, term := range []int{0, -1, -12} {
		_, err := core.MaturityDate(core.Date(2024, 1, 1), term)
		if !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("term %d: expected ErrInvalidInput, got %v", term, err)
		}
	}
}

func TestAccruedInterest(t *testing.T) {
	origin := core.Date(2023, 1, 1)

	t.Run("Full Year", func(t *testing.T) {
		got, err := core.AccruedInterest(dec("1000"), dec("0.05"), origin, core.Date(2024, 1, 1))
		require.NoError(t, err)
		assert.True(t, got.Equal(dec("50")), "got %s", got)
	})

	t.Run("Prorated By Days", func(t *testing.T) {
		// 73 days = 1/5 of a 365-day year.
		got, err := core.AccruedInterest(dec("1000"), dec("0.10"), origin, origin.AddDate(0, 0, 73))
		require.NoError(t, err)
		assert.True(t, got.Equal(dec("20")), "got %s", got)
	})

	t.Run("Rounded To Cents", func(t *testing.T) {
		got, err := core.AccruedInterest(dec("1000"), dec("0.05"), origin, origin.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.True(t, got.Equal(dec("0.14")), "got %s", got)
	})

	t.Run("Zero Before Origin", func(t *testing.T) {
		got, err := core.AccruedInterest(dec("1000"), dec("0.05"), origin, origin.AddDate(0, 0, -10))
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("Rejects Negative Principal", func(t *testing.T) {
		_, err := core.AccruedInterest(dec("-1"), dec("0.05"), origin, origin.AddDate(1, 0, 0))
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("Rejects Negative Rate", func(t *testing.T) {
		_, err := core.AccruedInterest(dec("1000"), dec("-0.01"), origin, origin.AddDate(1, 0, 0))
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("Custom Basis", func(t *testing.T) {
		calc := core.Calculator{Basis: 360, Places: 2}
		got, err := calc.AccruedInterest(dec("3600"), dec("0.10"), origin, origin.AddDate(0, 0, 36))
		require.NoError(t, err)
		assert.True(t, got.Equal(dec("36")), "got %s", got)
	})
}

func TestTotalValue(t *testing.T) {
	n := core.Note{
		Principal:    dec("2000"),
		InterestRate: dec("0.073"),
		OriginDate:   core.Date(2024, 1, 1),
		TermMonths:   12,
		MaturityDate: core.Date(2025, 1, 1),
	}
	got, err := core.TotalValue(n, core.Date(2024, 1, 11))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("2004")), "got %s", got)
}

func TestDaysToMaturity(t *testing.T) {
	n := core.Note{MaturityDate: core.Date(2024, 3, 1)}
	assert.Equal(t, 29, core.DaysToMaturity(n, core.Date(2024, 2, 1)))
	assert.Equal(t, 0, core.DaysToMaturity(n, core.Date(2024, 3, 1)))
	assert.Equal(t, -1, core.DaysToMaturity(n, core.Date(2024, 3, 2)))
	// Time of day does not matter.
	assert.Equal(t, 1, core.DaysToMaturity(n, time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)))
}

func TestDaysBetween_LongSpans(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"three centuries", core.Date(1700, 1, 1), core.Date(2024, 1, 1), 118338},
		{"backwards", core.Date(2024, 1, 1), core.Date(1700, 1, 1), -118338},
		{"five centuries", core.Date(1900, 3, 1), core.Date(2400, 3, 1), 182622},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.DaysBetween(tt.a, tt.b))
		})
	}

	got, err := core.AccruedInterest(dec("1000"), dec("0.05"), core.Date(1700, 1, 1), core.Date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "16210.68", got.StringFixed(2))

	n := core.Note{MaturityDate: core.Date(2400, 3, 1)}
	assert.Equal(t, 182622, core.DaysToMaturity(n, core.Date(1900, 3, 1)))
}

func TestParseDate(t *testing.T) {
	for _, input := range []string{"2024-02-29", "02/29/2024", " 2024-02-29 "} {
		got, err := core.ParseDate(input)
		require.NoError(t, err, input)
		assert.Equal(t, core.Date(2024, 2, 29), got, input)
	}
	_, err := core.ParseDate("29.02.2024")
	assert.Error(t, err)
	assert.Equal(t, "", core.FormatDate(time.Time{}))
	assert.Equal(t, "2024-02-29", core.FormatDate(core.Date(2024, 2, 29)))
}

// =============================================================================
// Properties
// =============================================================================

func drawDate(t *rapid.T, label string) time.Time {
	return core.Date(
		rapid.IntRange(1950, 2150).Draw(t, label+"_year"),
		time.Month(rapid.IntRange(1, 12).Draw(t, label+"_month")),
		rapid.IntRange(1, 31).Draw(t, label+"_day"),
	)
}

func drawAmount(t *rapid.T, label string) decimal.Decimal {
	cents := rapid.Int64Range(0, 1_000_000_000).Draw(t, label)
	return decimal.New(cents, -2)
}

func drawRate(t *rapid.T, label string) decimal.Decimal {
	bps := rapid.Int64Range(0, 5000).Draw(t, label)
	return decimal.New(bps, -4)
}

func TestMaturityDate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		origin := drawDate(t, "origin")
		term := rapid.IntRange(1, 600).Draw(t, "term")

		first, err := core.MaturityDate(origin, term)
		if err != nil {
			t.Fatalf("MaturityDate failed: %v", err)
		}

		// Property: recomputation from the same fields is idempotent.
		again, err := core.MaturityDate(origin, term)
		if err != nil {
			t.Fatalf("MaturityDate failed: %v", err)
		}
		if !first.Equal(again) {
			t.Fatalf("recomputed %s, first %s", again, first)
		}

		// Property: exactly term calendar months later.
		months := (first.Year()-origin.Year())*12 + int(first.Month()) - int(origin.Month())
		if months != term {
			t.Fatalf("expected %d months between %s and %s, got %d", term, origin, first, months)
		}

		// Property: the day is kept or clamped, never advanced.
		if first.Day() > origin.Day() {
			t.Fatalf("day advanced from %d to %d", origin.Day(), first.Day())
		}
		if first.Day() < origin.Day() && first.AddDate(0, 0, 1).Day() != 1 {
			t.Fatalf("day %d clamped but %s is not a month end", origin.Day(), first)
		}
	})
}

func TestAccruedInterest_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		principal := drawAmount(t, "principal")
		rate := drawRate(t, "rate")
		origin := drawDate(t, "origin")

		// Property: no interest on day zero.
		zero, err := core.AccruedInterest(principal, rate, origin, origin)
		if err != nil {
			t.Fatalf("AccruedInterest failed: %v", err)
		}
		if !zero.IsZero() {
			t.Fatalf("expected zero interest on day zero, got %s", zero)
		}

		// Property: interest never decreases as time passes and is never negative.
		d1 := rapid.IntRange(0, 4000).Draw(t, "d1")
		d2 := rapid.IntRange(d1, 8000).Draw(t, "d2")
		i1, err := core.AccruedInterest(principal, rate, origin, origin.AddDate(0, 0, d1))
		if err != nil {
			t.Fatalf("AccruedInterest failed: %v", err)
		}
		i2, err := core.AccruedInterest(principal, rate, origin, origin.AddDate(0, 0, d2))
		if err != nil {
			t.Fatalf("AccruedInterest failed: %v", err)
		}
		if i1.IsNegative() || i2.LessThan(i1) {
			t.Fatalf("interest not monotonic: %s after %d days, %s after %d days", i1, d1, i2, d2)
		}
	})
}
