package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rollover is the planned outcome of rolling a matured note into a new one.
// Neither note is stored until the Service commits the plan.
type Rollover struct {
	// Predecessor is the original note with Status set to StatusRolledOver.
	Predecessor Note
	// Successor is the new Active note. Its ID is assigned on commit.
	Successor Note
	// Interest is the amount capitalized into the successor's principal.
	Interest decimal.Decimal
}

type rolloverOptions struct {
	termMonths int
	rate       *decimal.Decimal
}

// RolloverOption overrides successor terms.
type RolloverOption func(*rolloverOptions)

// WithTerm sets the successor's term instead of inheriting it. Zero keeps the original term.
func WithTerm(months int) RolloverOption {
	return func(o *rolloverOptions) {
		o.termMonths = months
	}
}

// WithRate sets the successor's interest rate instead of inheriting it.
func WithRate(rate decimal.Decimal) RolloverOption {
	return func(o *rolloverOptions) {
		o.rate = &rate
	}
}

// PlanRollover computes the rollover of n as of asOf without touching n.
//
// The successor's principal is the original principal plus interest accrued
// up to the maturity date only; days between maturity and asOf earn nothing.
// The successor starts the day after the original maturity.
func PlanRollover(n Note, asOf time.Time, calc Calculator, opts ...RolloverOption) (Rollover, error) {
	if n.Status != StatusActive {
		return Rollover{}, invalidState("note %s is %s, only active notes can be rolled over", n.ID, n.Status)
	}
	if Day(asOf).Before(n.MaturityDate) {
		return Rollover{}, invalidState("note %s matures on %s, cannot roll over on %s",
			n.ID, FormatDate(n.MaturityDate), FormatDate(asOf))
	}

	o := rolloverOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	interest, err := calc.NoteInterest(n, n.MaturityDate)
	if err != nil {
		return Rollover{}, err
	}

	fields := NoteFields{
		ClientFirstName: n.ClientFirstName,
		ClientLastName:  n.ClientLastName,
		ProjectName:     n.ProjectName,
		Principal:       n.Principal.Add(interest),
		InterestRate:    n.InterestRate,
		OriginDate:      n.MaturityDate.AddDate(0, 0, 1),
		TermMonths:      n.TermMonths,
	}
	if o.termMonths != 0 {
		fields.TermMonths = o.termMonths
	}
	if o.rate != nil {
		fields.InterestRate = *o.rate
	}
	if err := fields.Validate(); err != nil {
		return Rollover{}, err
	}

	successor, err := fields.build(calc)
	if err != nil {
		return Rollover{}, err
	}
	successor.PredecessorID = n.ID

	predecessor := n
	predecessor.Status = StatusRolledOver

	return Rollover{
		Predecessor: predecessor,
		Successor:   successor,
		Interest:    interest,
	}, nil
}
