// Package config reads the CLI configuration from NOTELEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Prefix is prepended to every variable name.
const Prefix = "NOTELEDGER_"

// Config is the environment-level configuration. Command-line flags
// override it.
type Config struct {
	// Path is the ledger location. Empty means discover it from the working directory.
	Path string `env:"PATH"`
	// Adapter forces a storage adapter (fs, sqlite, xlsx). Empty selects by extension.
	Adapter  string `env:"ADAPTER"`
	ReadOnly bool   `env:"READ_ONLY"`

	WarningDays       int             `env:"WARNING_DAYS" envDefault:"30"`
	DefaultTermMonths int             `env:"DEFAULT_TERM_MONTHS" envDefault:"12"`
	DefaultRate       decimal.Decimal `env:"DEFAULT_RATE" envDefault:"0.05"`
	DayCountBasis     int             `env:"DAY_COUNT_BASIS" envDefault:"365"`

	OutputDir    string `env:"OUTPUT_DIR" envDefault:"letters"`
	LetterFormat string `env:"LETTER_FORMAT" envDefault:"pdf"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range value.
func (c Config) Validate() error {
	var errs []error
	if c.WarningDays < 0 {
		errs = append(errs, fmt.Errorf("%sWARNING_DAYS must not be negative, got %d", Prefix, c.WarningDays))
	}
	if c.DefaultTermMonths <= 0 {
		errs = append(errs, fmt.Errorf("%sDEFAULT_TERM_MONTHS must be positive, got %d", Prefix, c.DefaultTermMonths))
	}
	if c.DefaultRate.IsNegative() {
		errs = append(errs, fmt.Errorf("%sDEFAULT_RATE must not be negative, got %s", Prefix, c.DefaultRate))
	}
	if c.DayCountBasis <= 0 {
		errs = append(errs, fmt.Errorf("%sDAY_COUNT_BASIS must be positive, got %d", Prefix, c.DayCountBasis))
	}
	switch c.Adapter {
	case "", "fs", "sqlite", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("%sADAPTER must be fs, sqlite or xlsx, got %q", Prefix, c.Adapter))
	}
	return errors.Join(errs...)
}
