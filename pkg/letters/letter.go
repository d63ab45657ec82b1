// Package letters renders one client letter per investment note and exports
// them in bulk.
package letters

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/aretw0/noteledger/pkg/core"
)

// Letter is everything a renderer needs for one note.
type Letter struct {
	Note core.Note
	// AsOf is the date the letter is written for.
	AsOf time.Time
	// Accrued is the interest earned between origin and AsOf.
	Accrued decimal.Decimal
	// TotalValue is principal plus Accrued.
	TotalValue decimal.Decimal
	// MaturityValue is the expected payout at maturity.
	MaturityValue decimal.Decimal
	// Name is the file name without extension.
	Name string
}

// NewLetter computes the amounts of a letter for n as of asOf.
func NewLetter(n core.Note, asOf time.Time, calc core.Calculator) (Letter, error) {
	asOf = core.Day(asOf)
	accrued, err := calc.NoteInterest(n, asOf)
	if err != nil {
		return Letter{}, fmt.Errorf("note %s: %w", n.ID, err)
	}
	atMaturity, err := calc.ValueAtMaturity(n)
	if err != nil {
		return Letter{}, fmt.Errorf("note %s: %w", n.ID, err)
	}
	return Letter{
		Note:          n,
		AsOf:          asOf,
		Accrued:       accrued,
		TotalValue:    n.Principal.Add(accrued),
		MaturityValue: atMaturity,
		Name:          TargetName(n),
	}, nil
}

// NewLetters builds letters for every note and gives each a unique name.
func NewLetters(notes []core.Note, asOf time.Time, calc core.Calculator) ([]Letter, error) {
	out := make([]Letter, 0, len(notes))
	for _, n := range notes {
		l, err := NewLetter(n, asOf, calc)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	AssignNames(out)
	return out, nil
}

// TargetName returns "First_Last" for a note. Whitespace becomes underscores
// and characters that are unsafe in file names are dropped. A note without a
// usable client name is named after its id.
func TargetName(n core.Note) string {
	name := sanitize(n.ClientName())
	if name == "" {
		return sanitize(n.ID)
	}
	return name
}

func sanitize(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r):
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '.', r == '_':
			b.WriteRune(r)
			underscore = r == '_'
		}
	}
	return strings.Trim(b.String(), "._")
}

// AssignNames makes Name unique across letters, ignoring case. When a client
// owns several notes every one of them gets an "_<id tail>" suffix; the tail
// is the last 8 characters of the id, the random part of a UUIDv7.
func AssignNames(letters []Letter) {
	count := make(map[string]int, len(letters))
	for _, l := range letters {
		count[strings.ToLower(l.Name)]++
	}
	seen := make(map[string]bool, len(letters))
	for i := range letters {
		base := letters[i].Name
		if count[strings.ToLower(base)] > 1 {
			letters[i].Name = base + "_" + idTail(letters[i].Note.ID, 8)
		}
		if seen[strings.ToLower(letters[i].Name)] {
			letters[i].Name = base + "_" + sanitize(letters[i].Note.ID)
		}
		seen[strings.ToLower(letters[i].Name)] = true
	}
}

func idTail(id string, n int) string {
	id = sanitize(id)
	if len(id) > n {
		return id[len(id)-n:]
	}
	return id
}
