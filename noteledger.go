package noteledger

import (
	"log/slog"

	"github.com/aretw0/noteledger/internal/platform"
	"github.com/aretw0/noteledger/pkg/core"
)

// --- Types ---

// Service is the note store.
type Service = core.Service

// Note is one client investment note.
type Note = core.Note

// --- Configuration ---

// Option defines a functional option for configuring the ledger.
type Option = platform.Option

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "xlsx").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithLogger sets the logger for the service and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository injects a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithReadOnly opens the ledger without allowing changes.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist fails when the ledger does not exist yet.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithStrict rejects unknown fields and columns in file ledgers.
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithForceTemp forces the ledger into the dev sandbox directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives errors raised while watching a file ledger.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithCalculator sets the interest policy.
func WithCalculator(c core.Calculator) Option {
	return platform.WithCalculator(c)
}

// WithWarningWindow sets the approaching-maturity look-ahead in days.
func WithWarningWindow(days int) Option {
	return platform.WithWarningWindow(days)
}

// WithDefaults sets the term and rate prefilled for new notes.
func WithDefaults(d core.Defaults) Option {
	return platform.WithDefaults(d)
}

// WithIDGenerator replaces the note id generator.
func WithIDGenerator(fn func() string) Option {
	return platform.WithIDGenerator(fn)
}

// --- Factory ---

// New opens the ledger at path and returns a loaded Service.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init builds and initializes the storage adapter for path without loading it.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// --- Safety & Utils ---

// ResolveLedgerPath returns where a ledger actually lives under the dev safety rules.
func ResolveLedgerPath(userPath string, forceTemp bool) string {
	return platform.ResolveLedgerPath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindLedger looks upwards from startDir for a ledger file.
func FindLedger(startDir string) (string, error) {
	return platform.FindLedger(startDir)
}
