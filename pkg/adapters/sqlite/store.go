// Package sqlite provides a SQLite-backed note ledger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/aretw0/noteledger/internal/sqlitemigrate"
	"github.com/aretw0/noteledger/pkg/adapters/sqlite/migrations"
	"github.com/aretw0/noteledger/pkg/core"
)

// Config holds the configuration for the SQLite store.
type Config struct {
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// Store implements core.Repository on a SQLite database file.
// Save replaces the whole table inside one transaction, so a failed write
// leaves the previous ledger intact.
type Store struct {
	sqlDB  *sql.DB
	config Config

	// missing is set when a read-only store is opened on a file that does
	// not exist; it loads as an empty ledger.
	missing bool

	mu       sync.RWMutex
	lastSave *time.Time
	applied  []string
}

// Open opens a SQLite ledger and applies embedded migrations.
func Open(config Config) (*Store, error) {
	if strings.TrimSpace(config.Path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	config.Path = filepath.Clean(config.Path)

	if config.ReadOnly {
		if _, err := os.Stat(config.Path); errors.Is(err, os.ErrNotExist) {
			config.Logger.Debug("sqlite ledger does not exist, serving empty read-only ledger", "path", config.Path)
			return &Store{config: config, missing: true}, nil
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(config))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{sqlDB: sqlDB, config: config}
	if !config.ReadOnly {
		applied, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ".")
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		s.applied = applied
		if len(applied) > 0 {
			config.Logger.Info("sqlite migrations applied", "path", config.Path, "migrations", applied)
		}
	}
	return s, nil
}

func dsn(config Config) string {
	if config.ReadOnly {
		return "file:" + config.Path + "?mode=ro&_pragma=busy_timeout(5000)"
	}
	return "file:" + config.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Initialize checks the database is reachable. The schema is created by Open.
func (s *Store) Initialize(ctx context.Context) error {
	if s != nil && s.missing {
		return nil
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// Load returns every note in ledger order.
func (s *Store) Load(ctx context.Context) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.missing {
		return []core.Note{}, nil
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT
	   id,
	   client_first_name,
	   client_last_name,
	   project_name,
	   principal,
	   interest_rate,
	   origin_date,
	   term_months,
	   maturity_date,
	   status,
	   predecessor_id
	 FROM notes
	 ORDER BY position`)
	if err != nil {
		if s.config.ReadOnly && isMissingTable(err) {
			// Read-only access to a database that was never written.
			return []core.Note{}, nil
		}
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []core.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func scanNote(rows *sql.Rows) (core.Note, error) {
	var (
		n                           core.Note
		principal, rate             string
		origin, maturity, statusTxt string
	)
	if err := rows.Scan(
		&n.ID,
		&n.ClientFirstName,
		&n.ClientLastName,
		&n.ProjectName,
		&principal,
		&rate,
		&origin,
		&n.TermMonths,
		&maturity,
		&statusTxt,
		&n.PredecessorID,
	); err != nil {
		return core.Note{}, fmt.Errorf("scan note: %w", err)
	}

	var err error
	if n.Principal, err = decimal.NewFromString(principal); err != nil {
		return core.Note{}, fmt.Errorf("note %s: principal %q: %w", n.ID, principal, err)
	}
	if n.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return core.Note{}, fmt.Errorf("note %s: interest_rate %q: %w", n.ID, rate, err)
	}
	if n.OriginDate, err = core.ParseDate(origin); err != nil {
		return core.Note{}, fmt.Errorf("note %s: origin_date: %w", n.ID, err)
	}
	if n.MaturityDate, err = core.ParseDate(maturity); err != nil {
		return core.Note{}, fmt.Errorf("note %s: maturity_date: %w", n.ID, err)
	}
	if n.Status, err = core.ParseStatus(statusTxt); err != nil {
		return core.Note{}, fmt.Errorf("note %s: %w", n.ID, err)
	}
	return n, nil
}

// Save replaces the stored ledger with notes in one transaction.
func (s *Store) Save(ctx context.Context, notes []core.Note) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO notes (
	   id,
	   position,
	   client_first_name,
	   client_last_name,
	   project_name,
	   principal,
	   interest_rate,
	   origin_date,
	   term_months,
	   maturity_date,
	   status,
	   predecessor_id
	 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range notes {
		if _, err := stmt.ExecContext(ctx,
			n.ID,
			i,
			n.ClientFirstName,
			n.ClientLastName,
			n.ProjectName,
			n.Principal.String(),
			n.InterestRate.String(),
			core.FormatDate(n.OriginDate),
			n.TermMonths,
			core.FormatDate(n.MaturityDate),
			n.Status.String(),
			n.PredecessorID,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate note id %s", core.ErrIntegrity, n.ID)
			}
			return fmt.Errorf("insert note %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastSave = &now
	s.config.Logger.Debug("sqlite ledger written", "path", s.config.Path, "notes", len(notes))
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isMissingTable(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}

var _ core.Repository = (*Store)(nil)
