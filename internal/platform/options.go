package platform

import (
	"log/slog"

	"github.com/aretw0/noteledger/pkg/core"
)

// options holds the internal configuration for the note ledger.
type options struct {
	repository core.Repository
	logger     *slog.Logger
	// adapter is empty until set; Init then picks one from the ledger extension.
	adapter string

	readOnly     bool
	mustExist    bool
	strict       bool
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)

	calculator *core.Calculator
	service    []core.ServiceOption
}

// Option defines a functional option for configuring the note ledger.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAdapter selects the storage adapter by name: "fs", "sqlite" or "xlsx".
// By default the adapter follows the ledger file extension.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithLogger sets the logger for the service and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom storage adapter. Path resolution and
// adapter selection are skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations return ErrReadOnly.
// 2. Initialization creates no directories or files.
// 3. The dev safety sandbox is bypassed (uses the real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithMustExist fails Init when the ledger does not exist yet.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithStrict rejects unknown fields and columns in file ledgers.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithForceTemp re-roots the ledger into the dev sandbox directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) the ledger is re-rooted into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives errors raised while watching a file ledger.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithCalculator sets the interest policy (day-count basis, rounding).
func WithCalculator(c core.Calculator) Option {
	return func(o *options) {
		o.calculator = &c
		o.service = append(o.service, core.WithCalculator(c))
	}
}

// WithWarningWindow sets how many days ahead a note counts as approaching maturity.
func WithWarningWindow(days int) Option {
	return func(o *options) {
		o.service = append(o.service, core.WithWarningWindow(days))
	}
}

// WithDefaults sets the term and rate prefilled for new notes.
func WithDefaults(d core.Defaults) Option {
	return func(o *options) {
		o.service = append(o.service, core.WithDefaults(d))
	}
}

// WithIDGenerator replaces the note id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.service = append(o.service, core.WithIDGenerator(fn))
	}
}
