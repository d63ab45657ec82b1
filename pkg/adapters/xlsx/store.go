// Package xlsx stores the note ledger as a spreadsheet, one row per note,
// with human-readable column headers.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/aretw0/noteledger/internal/fsutil"
	"github.com/aretw0/noteledger/pkg/core"
)

// SheetName is the worksheet written by Save. Load falls back to the first sheet.
const SheetName = "Notes"

// Column headers. ColumnPrincipalPlusInterest is computed on save and ignored on load.
const (
	ColumnID                    = "ID"
	ColumnFirstName             = "First Name"
	ColumnLastName              = "Last Name"
	ColumnProjectName           = "Project Name"
	ColumnOriginDate            = "Note Origin Date"
	ColumnMaturityDate          = "Note Maturity Date"
	ColumnTermMonths            = "Term (Months)"
	ColumnPrincipal             = "Principal"
	ColumnInterestRate          = "Interest Rate"
	ColumnPrincipalPlusInterest = "Principal + Interest"
	ColumnStatus                = "Status"
	ColumnPredecessorID         = "Predecessor ID"
)

// Columns is the header row, in order.
var Columns = []string{
	ColumnID,
	ColumnFirstName,
	ColumnLastName,
	ColumnProjectName,
	ColumnOriginDate,
	ColumnMaturityDate,
	ColumnTermMonths,
	ColumnPrincipal,
	ColumnInterestRate,
	ColumnPrincipalPlusInterest,
	ColumnStatus,
	ColumnPredecessorID,
}

var requiredColumns = []string{ColumnID, ColumnPrincipal, ColumnInterestRate, ColumnOriginDate, ColumnTermMonths}

// Config holds the configuration for the spreadsheet store.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool
	// Calculator computes the Principal + Interest column. Defaults to core.DefaultCalculator.
	Calculator core.Calculator
	Logger     *slog.Logger
}

// Store implements core.Repository on an .xlsx workbook.
type Store struct {
	config Config

	mu       sync.RWMutex
	lastSave *time.Time
}

// NewStore creates a spreadsheet store.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{config: config}
}

// Initialize validates the path and creates the parent directory when needed.
func (s *Store) Initialize(ctx context.Context) error {
	if !strings.EqualFold(filepath.Ext(s.config.Path), ".xlsx") {
		return fmt.Errorf("spreadsheet ledger must be an .xlsx file: %s", s.config.Path)
	}
	info, err := os.Stat(s.config.Path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("ledger path is a directory: %s", s.config.Path)
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat ledger: %w", err)
	case s.config.MustExist:
		return fmt.Errorf("ledger does not exist: %s", s.config.Path)
	case s.config.ReadOnly:
		return nil
	}
	return os.MkdirAll(filepath.Dir(s.config.Path), 0755)
}

// Load reads every note row. A missing workbook is an empty ledger.
func (s *Store) Load(ctx context.Context) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.config.Path)
	if errors.Is(err, os.ErrNotExist) {
		return []core.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return readNotes(f)
}

func readNotes(f *excelize.File) ([]core.Note, error) {
	sheet := SheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return []core.Note{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	notes := []core.Note{}
	if len(rows) == 0 {
		return notes, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("sheet %s is missing column %q", sheet, col)
		}
	}

	for r, row := range rows[1:] {
		get := func(col string) string {
			if i, ok := index[strings.ToLower(col)]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		if isBlank(row) {
			continue
		}
		n, err := parseRow(get)
		if err != nil {
			// Row numbers as shown by spreadsheet tools: header is row 1.
			return nil, fmt.Errorf("sheet %s row %d: %w", sheet, r+2, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func parseRow(get func(string) string) (core.Note, error) {
	var errs []error
	n := core.Note{
		ID:              get(ColumnID),
		ClientFirstName: get(ColumnFirstName),
		ClientLastName:  get(ColumnLastName),
		ProjectName:     get(ColumnProjectName),
		PredecessorID:   get(ColumnPredecessorID),
	}

	var err error
	if n.Principal, err = decimal.NewFromString(get(ColumnPrincipal)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", ColumnPrincipal, err))
	}
	if n.InterestRate, err = decimal.NewFromString(get(ColumnInterestRate)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", ColumnInterestRate, err))
	}
	if n.OriginDate, err = core.ParseDate(get(ColumnOriginDate)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", ColumnOriginDate, err))
	}
	if n.TermMonths, err = strconv.Atoi(get(ColumnTermMonths)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", ColumnTermMonths, err))
	}
	if v := get(ColumnMaturityDate); v != "" {
		if n.MaturityDate, err = core.ParseDate(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ColumnMaturityDate, err))
		}
	}
	if n.Status, err = core.ParseStatus(get(ColumnStatus)); err != nil {
		errs = append(errs, err)
	}
	return n, errors.Join(errs...)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Save rewrites the workbook atomically.
func (s *Store) Save(ctx context.Context, notes []core.Note) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := s.build(notes)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fsutil.WriteAtomic(s.config.Path, 0644, func(w io.Writer) error {
		return f.Write(w)
	}); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastSave = &now
	s.config.Logger.Debug("spreadsheet ledger written", "path", s.config.Path, "notes", len(notes))
	return nil
}

func (s *Store) build(notes []core.Note) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, bold)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	_ = f.SetColWidth(SheetName, "A", lastCol, 20)

	for i, n := range notes {
		total, err := s.config.Calculator.ValueAtMaturity(n)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("note %s: %w", n.ID, err)
		}
		row := []any{
			n.ID,
			n.ClientFirstName,
			n.ClientLastName,
			n.ProjectName,
			core.FormatDate(n.OriginDate),
			core.FormatDate(n.MaturityDate),
			n.TermMonths,
			n.Principal.String(),
			n.InterestRate.String(),
			total.StringFixed(2),
			n.Status.String(),
			n.PredecessorID,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write note %s: %w", n.ID, err)
		}
	}
	return f, nil
}

var _ core.Repository = (*Store)(nil)
