package fs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/noteledger/pkg/core"
)

// LedgerVersion is written in the envelope of YAML and JSON ledgers.
const LedgerVersion = 1

// Serializer defines how to read and write a specific ledger format.
type Serializer interface {
	// Decode reads every note from r, in order.
	Decode(r io.Reader) ([]core.Note, error)
	// Encode converts the notes to bytes.
	Encode(notes []core.Note) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by file extension.
func DefaultSerializers(strict bool) map[string]Serializer {
	return map[string]Serializer{
		".json": NewJSONSerializer(strict),
		".yaml": NewYAMLSerializer(strict),
		".yml":  NewYAMLSerializer(strict),
		".csv":  NewCSVSerializer(strict),
	}
}

// noteRecord is the on-disk shape of a note. Amounts and dates are kept as
// strings so no format ever rounds them through a float.
type noteRecord struct {
	ID              string `json:"id" yaml:"id"`
	ClientFirstName string `json:"client_first_name" yaml:"client_first_name"`
	ClientLastName  string `json:"client_last_name" yaml:"client_last_name"`
	ProjectName     string `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	Principal       string `json:"principal" yaml:"principal"`
	InterestRate    string `json:"interest_rate" yaml:"interest_rate"`
	OriginDate      string `json:"origin_date" yaml:"origin_date"`
	TermMonths      int    `json:"term_months" yaml:"term_months"`
	MaturityDate    string `json:"maturity_date,omitempty" yaml:"maturity_date,omitempty"`
	Status          string `json:"status" yaml:"status"`
	PredecessorID   string `json:"predecessor_id,omitempty" yaml:"predecessor_id,omitempty"`
}

// ledgerFile is the envelope of YAML and JSON ledgers.
type ledgerFile struct {
	Version int          `json:"version" yaml:"version"`
	Notes   []noteRecord `json:"notes" yaml:"notes"`
}

func toRecord(n core.Note) noteRecord {
	return noteRecord{
		ID:              n.ID,
		ClientFirstName: n.ClientFirstName,
		ClientLastName:  n.ClientLastName,
		ProjectName:     n.ProjectName,
		Principal:       n.Principal.String(),
		InterestRate:    n.InterestRate.String(),
		OriginDate:      core.FormatDate(n.OriginDate),
		TermMonths:      n.TermMonths,
		MaturityDate:    core.FormatDate(n.MaturityDate),
		Status:          n.Status.String(),
		PredecessorID:   n.PredecessorID,
	}
}

// fromRecord converts a stored record. Field errors are collected so a
// broken row reports every problem at once.
func fromRecord(rec noteRecord) (core.Note, error) {
	var errs []error
	n := core.Note{
		ID:              strings.TrimSpace(rec.ID),
		ClientFirstName: rec.ClientFirstName,
		ClientLastName:  rec.ClientLastName,
		ProjectName:     rec.ProjectName,
		TermMonths:      rec.TermMonths,
		PredecessorID:   strings.TrimSpace(rec.PredecessorID),
	}

	var err error
	if n.Principal, err = decimal.NewFromString(strings.TrimSpace(rec.Principal)); err != nil {
		errs = append(errs, fmt.Errorf("principal %q: %w", rec.Principal, err))
	}
	if n.InterestRate, err = decimal.NewFromString(strings.TrimSpace(rec.InterestRate)); err != nil {
		errs = append(errs, fmt.Errorf("interest_rate %q: %w", rec.InterestRate, err))
	}
	if n.OriginDate, err = core.ParseDate(rec.OriginDate); err != nil {
		errs = append(errs, fmt.Errorf("origin_date: %w", err))
	}
	if strings.TrimSpace(rec.MaturityDate) != "" {
		if n.MaturityDate, err = core.ParseDate(rec.MaturityDate); err != nil {
			errs = append(errs, fmt.Errorf("maturity_date: %w", err))
		}
	}
	if n.Status, err = core.ParseStatus(rec.Status); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return core.Note{}, fmt.Errorf("note %q: %w", rec.ID, errors.Join(errs...))
	}
	return n, nil
}

func fromRecords(records []noteRecord) ([]core.Note, error) {
	notes := make([]core.Note, 0, len(records))
	for _, rec := range records {
		n, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func toLedger(notes []core.Note) ledgerFile {
	records := make([]noteRecord, 0, len(notes))
	for _, n := range notes {
		records = append(records, toRecord(n))
	}
	return ledgerFile{Version: LedgerVersion, Notes: records}
}

func checkVersion(v int) error {
	if v > LedgerVersion {
		return fmt.Errorf("ledger version %d is newer than supported version %d", v, LedgerVersion)
	}
	return nil
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing JSON ledgers.
type JSONSerializer struct {
	// Strict rejects unknown fields.
	Strict bool
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer(strict bool) *JSONSerializer {
	return &JSONSerializer{Strict: strict}
}

func (s *JSONSerializer) Decode(r io.Reader) ([]core.Note, error) {
	decoder := json.NewDecoder(r)
	if s.Strict {
		decoder.DisallowUnknownFields()
	}
	var ledger ledgerFile
	if err := decoder.Decode(&ledger); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if err := checkVersion(ledger.Version); err != nil {
		return nil, err
	}
	return fromRecords(ledger.Notes)
}

func (s *JSONSerializer) Encode(notes []core.Note) ([]byte, error) {
	data, err := json.MarshalIndent(toLedger(notes), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML ledgers.
type YAMLSerializer struct {
	// Strict rejects unknown fields.
	Strict bool
}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer(strict bool) *YAMLSerializer {
	return &YAMLSerializer{Strict: strict}
}

func (s *YAMLSerializer) Decode(r io.Reader) ([]core.Note, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(s.Strict)
	var ledger ledgerFile
	if err := decoder.Decode(&ledger); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if err := checkVersion(ledger.Version); err != nil {
		return nil, err
	}
	return fromRecords(ledger.Notes)
}

func (s *YAMLSerializer) Encode(notes []core.Note) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(toLedger(notes)); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- CSV Serializer ---

// csvColumns is the header written by CSVSerializer, one note per row.
var csvColumns = []string{
	"id",
	"client_first_name",
	"client_last_name",
	"project_name",
	"principal",
	"interest_rate",
	"origin_date",
	"term_months",
	"maturity_date",
	"status",
	"predecessor_id",
}

// CSVSerializer handles reading and writing CSV ledgers.
// Columns are matched by header name, in any order and ignoring case.
type CSVSerializer struct {
	// Strict rejects unknown columns.
	Strict bool
}

// NewCSVSerializer creates a new CSV serializer.
func NewCSVSerializer(strict bool) *CSVSerializer {
	return &CSVSerializer{Strict: strict}
}

func (s *CSVSerializer) Decode(r io.Reader) ([]core.Note, error) {
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if s.Strict && !isCSVColumn(key) {
			return nil, fmt.Errorf("unknown csv column %q", h)
		}
		index[key] = i
	}
	for _, required := range []string{"id", "principal", "interest_rate", "origin_date", "term_months"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", required)
		}
	}

	var records []noteRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", line, err)
		}
		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		term, err := strconv.Atoi(get("term_months"))
		if err != nil {
			return nil, fmt.Errorf("csv row %d: term_months %q: %w", line, get("term_months"), err)
		}
		records = append(records, noteRecord{
			ID:              get("id"),
			ClientFirstName: get("client_first_name"),
			ClientLastName:  get("client_last_name"),
			ProjectName:     get("project_name"),
			Principal:       get("principal"),
			InterestRate:    get("interest_rate"),
			OriginDate:      get("origin_date"),
			TermMonths:      term,
			MaturityDate:    get("maturity_date"),
			Status:          get("status"),
			PredecessorID:   get("predecessor_id"),
		})
	}
	return fromRecords(records)
}

func (s *CSVSerializer) Encode(notes []core.Note) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, err
	}
	for _, n := range notes {
		rec := toRecord(n)
		row := []string{
			rec.ID,
			rec.ClientFirstName,
			rec.ClientLastName,
			rec.ProjectName,
			rec.Principal,
			rec.InterestRate,
			rec.OriginDate,
			strconv.Itoa(rec.TermMonths),
			rec.MaturityDate,
			rec.Status,
			rec.PredecessorID,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func isCSVColumn(name string) bool {
	for _, c := range csvColumns {
		if c == name {
			return true
		}
	}
	return false
}
