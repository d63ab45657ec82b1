package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/noteledger/pkg/adapters/fs"
	"github.com/aretw0/noteledger/pkg/adapters/sqlite"
	"github.com/aretw0/noteledger/pkg/adapters/xlsx"
	"github.com/aretw0/noteledger/pkg/core"
)

// Adapter names.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterXLSX   = "xlsx"
)

// AdapterFor picks the adapter that stores a ledger with the given path.
func AdapterFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return AdapterSQLite
	case ".xlsx":
		return AdapterXLSX
	default:
		return AdapterFS
	}
}

// Init resolves the ledger path, builds the selected adapter and runs its
// Initialize. It returns the configured core.Repository.
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := buildOptions(opts)

	if o.repository != nil {
		return o.repository, nil
	}

	path := resolvePath(uri, o)
	adapter := o.adapter
	if adapter == "" {
		adapter = AdapterFor(path)
	}

	var repo core.Repository
	var err error
	switch adapter {
	case AdapterFS:
		repo = initFS(path, o)
	case AdapterSQLite:
		repo, err = initSQLite(path, o)
	case AdapterXLSX:
		repo = initXLSX(path, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		closeRepo(repo)
		return nil, err
	}
	if o.logger != nil {
		o.logger.Debug("ledger opened", "adapter", adapter, "path", path, "read_only", o.readOnly)
	}
	return repo, nil
}

// resolvePath applies the dev safety sandbox.
func resolvePath(uri string, o *options) string {
	// Read-only runs cannot damage anything, so they use the real path.
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolveLedgerPath(uri, useTemp)

	if o.logger != nil && IsDevRun() {
		switch {
		case o.readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolved)
		case bypassSafety:
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		default:
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolved)
		}
	}
	if o.logger != nil && useTemp && resolved != filepath.Clean(uri) {
		o.logger.Warn("ledger re-rooted into dev sandbox", "original_path", uri, "resolved_path", resolved)
	}
	return resolved
}

func initFS(path string, o *options) core.Repository {
	return fs.NewRepository(fs.Config{
		Path:         path,
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		Strict:       o.strict,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
}

func initSQLite(path string, o *options) (core.Repository, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if o.mustExist {
			return nil, fmt.Errorf("ledger does not exist: %s", path)
		}
		if o.readOnly {
			// The store serves an empty ledger and creates nothing.
			return sqlite.Open(sqlite.Config{Path: path, ReadOnly: true, Logger: o.logger})
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	return sqlite.Open(sqlite.Config{
		Path:     path,
		ReadOnly: o.readOnly,
		Logger:   o.logger,
	})
}

func initXLSX(path string, o *options) core.Repository {
	config := xlsx.Config{
		Path:      path,
		MustExist: o.mustExist,
		ReadOnly:  o.readOnly,
		Logger:    o.logger,
	}
	if o.calculator != nil {
		config.Calculator = *o.calculator
	}
	return xlsx.NewStore(config)
}

func closeRepo(repo core.Repository) {
	if c, ok := repo.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
