package fs

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/aretw0/noteledger/pkg/core"
)

var noteComparer = cmp.Options{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
}

func sampleNotes() []core.Note {
	return []core.Note{
		{
			ID:              "n-1",
			ClientFirstName: "Ada",
			ClientLastName:  "Lovelace",
			ProjectName:     "Harbor Tower",
			Principal:       decimal.RequireFromString("1000"),
			InterestRate:    decimal.RequireFromString("0.05"),
			OriginDate:      core.Date(2023, 1, 1),
			TermMonths:      12,
			MaturityDate:    core.Date(2024, 1, 1),
			Status:          core.StatusRolledOver,
		},
		{
			ID:              "n-2",
			ClientFirstName: "Ada",
			ClientLastName:  "Lovelace",
			ProjectName:     `Harbor "North", Phase 2`,
			Principal:       decimal.RequireFromString("1050.00"),
			InterestRate:    decimal.RequireFromString("0.0725"),
			OriginDate:      core.Date(2024, 1, 2),
			TermMonths:      12,
			MaturityDate:    core.Date(2025, 1, 2),
			Status:          core.StatusActive,
			PredecessorID:   "n-1",
		},
	}
}

func TestSerializers_RoundTrip(t *testing.T) {
	for ext, s := range DefaultSerializers(true) {
		t.Run(ext, func(t *testing.T) {
			want := sampleNotes()

			data, err := s.Encode(want)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			got, err := s.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode failed: %v\n%s", err, data)
			}

			if diff := cmp.Diff(want, got, noteComparer); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerializers_EmptyInput(t *testing.T) {
	for ext, s := range DefaultSerializers(false) {
		t.Run(ext, func(t *testing.T) {
			notes, err := s.Decode(strings.NewReader(""))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(notes) != 0 {
				t.Errorf("expected no notes, got %d", len(notes))
			}
		})
	}
}

func TestYAMLSerializer_Format(t *testing.T) {
	data, err := NewYAMLSerializer(false).Encode(sampleNotes()[:1])
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{"version: 1", `principal: "1000"`, "origin_date: \"2023-01-01\"", "status: rolled_over"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in:\n%s", want, s)
		}
	}
}

func TestSerializers_Strict(t *testing.T) {
	t.Run("YAML Unknown Field", func(t *testing.T) {
		input := "version: 1\nnotes:\n  - id: n-1\n    principal: \"1\"\n    interest_rate: \"0\"\n    origin_date: \"2024-01-01\"\n    term_months: 1\n    colour: red\n"
		if _, err := NewYAMLSerializer(true).Decode(strings.NewReader(input)); err == nil {
			t.Error("expected strict YAML to reject unknown field")
		}
		if _, err := NewYAMLSerializer(false).Decode(strings.NewReader(input)); err != nil {
			t.Errorf("lenient YAML should accept unknown field: %v", err)
		}
	})

	t.Run("CSV Unknown Column", func(t *testing.T) {
		input := "id,principal,interest_rate,origin_date,term_months,colour\nn-1,1,0,2024-01-01,1,red\n"
		if _, err := NewCSVSerializer(true).Decode(strings.NewReader(input)); err == nil {
			t.Error("expected strict CSV to reject unknown column")
		}
		notes, err := NewCSVSerializer(false).Decode(strings.NewReader(input))
		if err != nil {
			t.Fatalf("lenient CSV should accept unknown column: %v", err)
		}
		if len(notes) != 1 || notes[0].Status != core.StatusActive {
			t.Errorf("unexpected notes: %+v", notes)
		}
	})
}

func TestCSVSerializer_HeaderOrderAndCase(t *testing.T) {
	input := "Term_Months,ID,Principal,Interest_Rate,Origin_Date,Client_First_Name,Client_Last_Name\n" +
		"6,n-9,250.5,0.04,03/15/2024,Grace,Hopper\n"

	notes, err := NewCSVSerializer(true).Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	n := notes[0]
	if n.ID != "n-9" || n.ClientFirstName != "Grace" || n.TermMonths != 6 {
		t.Errorf("unexpected note: %+v", n)
	}
	if !n.OriginDate.Equal(core.Date(2024, 3, 15)) {
		t.Errorf("expected origin 2024-03-15, got %s", n.OriginDate)
	}
	if !n.MaturityDate.IsZero() {
		t.Errorf("missing maturity column should stay zero, got %s", n.MaturityDate)
	}
}

func TestSerializers_RejectBadValues(t *testing.T) {
	tests := []struct {
		name  string
		s     Serializer
		input string
	}{
		{"csv missing column", NewCSVSerializer(false), "id,principal\nn-1,10\n"},
		{"csv bad term", NewCSVSerializer(false), "id,principal,interest_rate,origin_date,term_months\nn-1,10,0.1,2024-01-01,twelve\n"},
		{"json bad amount", NewJSONSerializer(false), `{"version":1,"notes":[{"id":"n-1","principal":"ten","interest_rate":"0.1","origin_date":"2024-01-01","term_months":1}]}`},
		{"yaml bad status", NewYAMLSerializer(false), "version: 1\nnotes:\n  - id: n-1\n    principal: \"1\"\n    interest_rate: \"0\"\n    origin_date: \"2024-01-01\"\n    term_months: 1\n    status: lost\n"},
		{"newer version", NewJSONSerializer(false), `{"version":99,"notes":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.s.Decode(strings.NewReader(tt.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
