// Package core holds the note lifecycle engine: the Note record, the
// calculation rules, the maturity classifier, the rollover transition and
// the Service that keeps a collection of notes consistent.
//
// It is agnostic to storage format (YAML, SQLite, spreadsheets); durable
// storage is reached only through the Repository port.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a note.
type Status int

const (
	// StatusActive notes accrue interest and can be edited, settled or rolled over.
	StatusActive Status = iota
	// StatusMatured notes were paid out at maturity instead of being rolled over.
	StatusMatured
	// StatusRolledOver notes were replaced by a successor through rollover.
	StatusRolledOver
)

var statusNames = map[Status]string{
	StatusActive:     "active",
	StatusMatured:    "matured",
	StatusRolledOver: "rolled_over",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Closed reports whether the note is history: its financial fields are frozen.
func (s Status) Closed() bool {
	return s == StatusMatured || s == StatusRolledOver
}

// ParseStatus converts the text form ("active", "matured", "rolled_over") to a Status.
func ParseStatus(text string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "", "active":
		return StatusActive, nil
	case "matured":
		return StatusMatured, nil
	case "rolled_over", "rolledover":
		return StatusRolledOver, nil
	}
	return StatusActive, fmt.Errorf("unknown note status %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown note status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Note is the central entity of the domain: one client investment note.
// MaturityDate is derived from OriginDate and TermMonths and is recomputed
// by the Service on every change to either.
type Note struct {
	ID              string
	ClientFirstName string
	ClientLastName  string
	ProjectName     string
	Principal       decimal.Decimal
	InterestRate    decimal.Decimal
	OriginDate      time.Time
	TermMonths      int
	MaturityDate    time.Time
	Status          Status
	PredecessorID   string
}

// ClientName returns "First Last".
func (n Note) ClientName() string {
	return strings.TrimSpace(n.ClientFirstName + " " + n.ClientLastName)
}

// Fields returns the editable fields of the note.
func (n Note) Fields() NoteFields {
	return NoteFields{
		ClientFirstName: n.ClientFirstName,
		ClientLastName:  n.ClientLastName,
		ProjectName:     n.ProjectName,
		Principal:       n.Principal,
		InterestRate:    n.InterestRate,
		OriginDate:      n.OriginDate,
		TermMonths:      n.TermMonths,
	}
}

// Equal reports whether two notes hold the same values.
// Decimals are compared numerically and dates by calendar day.
func (n Note) Equal(other Note) bool {
	return n.ID == other.ID &&
		n.ClientFirstName == other.ClientFirstName &&
		n.ClientLastName == other.ClientLastName &&
		n.ProjectName == other.ProjectName &&
		n.Principal.Equal(other.Principal) &&
		n.InterestRate.Equal(other.InterestRate) &&
		n.OriginDate.Equal(other.OriginDate) &&
		n.TermMonths == other.TermMonths &&
		n.MaturityDate.Equal(other.MaturityDate) &&
		n.Status == other.Status &&
		n.PredecessorID == other.PredecessorID
}

// NoteFields are the user-supplied values of a new note.
type NoteFields struct {
	ClientFirstName string
	ClientLastName  string
	ProjectName     string
	Principal       decimal.Decimal
	InterestRate    decimal.Decimal
	OriginDate      time.Time
	TermMonths      int
}

// Validate checks every constraint and reports all violations at once.
func (f NoteFields) Validate() error {
	var violations []Violation
	if strings.TrimSpace(f.ClientFirstName) == "" {
		violations = append(violations, Violation{Field: "client_first_name", Message: "must not be empty"})
	}
	if strings.TrimSpace(f.ClientLastName) == "" {
		violations = append(violations, Violation{Field: "client_last_name", Message: "must not be empty"})
	}
	if !f.Principal.IsPositive() {
		violations = append(violations, Violation{Field: "principal", Message: "must be positive"})
	}
	if f.InterestRate.IsNegative() {
		violations = append(violations, Violation{Field: "interest_rate", Message: "must not be negative"})
	}
	if f.OriginDate.IsZero() {
		violations = append(violations, Violation{Field: "origin_date", Message: "is required"})
	}
	if f.TermMonths <= 0 {
		violations = append(violations, Violation{Field: "term_months", Message: "must be positive"})
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// NotePatch describes a partial edit. Nil fields are left unchanged.
type NotePatch struct {
	ClientFirstName *string
	ClientLastName  *string
	ProjectName     *string
	Principal       *decimal.Decimal
	InterestRate    *decimal.Decimal
	OriginDate      *time.Time
	TermMonths      *int
}

// Financial reports whether the patch touches principal, rate or schedule.
func (p NotePatch) Financial() bool {
	return p.Principal != nil || p.InterestRate != nil || p.OriginDate != nil || p.TermMonths != nil
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return !p.Financial() && p.ClientFirstName == nil && p.ClientLastName == nil && p.ProjectName == nil
}

// Apply returns the fields with the patch applied.
func (p NotePatch) Apply(f NoteFields) NoteFields {
	if p.ClientFirstName != nil {
		f.ClientFirstName = *p.ClientFirstName
	}
	if p.ClientLastName != nil {
		f.ClientLastName = *p.ClientLastName
	}
	if p.ProjectName != nil {
		f.ProjectName = *p.ProjectName
	}
	if p.Principal != nil {
		f.Principal = *p.Principal
	}
	if p.InterestRate != nil {
		f.InterestRate = *p.InterestRate
	}
	if p.OriginDate != nil {
		f.OriginDate = *p.OriginDate
	}
	if p.TermMonths != nil {
		f.TermMonths = *p.TermMonths
	}
	return f
}

// build turns validated fields into a note with a freshly derived maturity date.
func (f NoteFields) build(calc Calculator) (Note, error) {
	origin := Day(f.OriginDate)
	maturity, err := calc.MaturityDate(origin, f.TermMonths)
	if err != nil {
		return Note{}, err
	}
	return Note{
		ClientFirstName: strings.TrimSpace(f.ClientFirstName),
		ClientLastName:  strings.TrimSpace(f.ClientLastName),
		ProjectName:     strings.TrimSpace(f.ProjectName),
		Principal:       f.Principal,
		InterestRate:    f.InterestRate,
		OriginDate:      origin,
		TermMonths:      f.TermMonths,
		MaturityDate:    maturity,
		Status:          StatusActive,
	}, nil
}
