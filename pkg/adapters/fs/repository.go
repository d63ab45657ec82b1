package fs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/noteledger/internal/fsutil"
	"github.com/aretw0/noteledger/pkg/core"
)

// Repository implements core.Repository on top of a single ledger file.
// The format is chosen by the file extension (.yaml, .yml, .json, .csv).
type Repository struct {
	Path   string
	config Config

	serializers map[string]Serializer

	mu            sync.RWMutex
	readOnly      bool
	watcherActive bool
	lastSave      *time.Time
	lastWritten   fileStamp
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	MustExist bool // Fail Initialize when the ledger file does not exist yet.
	ReadOnly  bool
	Strict    bool // Reject unknown fields or columns.
	Perm      os.FileMode
	Logger    *slog.Logger
	// ErrorHandler receives watcher errors. Optional.
	ErrorHandler func(error)
	// Serializers overrides DefaultSerializers. Keys are extensions with the leading dot.
	Serializers map[string]Serializer
}

// fileStamp identifies a version of the ledger file written by this process.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// NewRepository creates a new file-backed repository.
func NewRepository(config Config) *Repository {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Perm == 0 {
		config.Perm = 0644
	}
	serializers := config.Serializers
	if serializers == nil {
		serializers = DefaultSerializers(config.Strict)
	}
	return &Repository{
		Path:        config.Path,
		config:      config,
		serializers: serializers,
		readOnly:    config.ReadOnly,
	}
}

// Format returns the extension that selects the serializer, e.g. ".yaml".
func (r *Repository) Format() string {
	return strings.ToLower(filepath.Ext(r.Path))
}

func (r *Repository) serializer() (Serializer, error) {
	ext := r.Format()
	s, ok := r.serializers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported ledger format %q", ext)
	}
	return s, nil
}

// Initialize validates the path and creates the parent directory when needed.
func (r *Repository) Initialize(ctx context.Context) error {
	if _, err := r.serializer(); err != nil {
		return err
	}

	info, err := os.Stat(r.Path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("ledger path is a directory: %s", r.Path)
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat ledger: %w", err)
	case r.config.MustExist:
		return fmt.Errorf("ledger does not exist: %s", r.Path)
	case r.readOnly:
		// Nothing to create; Load reports an empty ledger.
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return nil
}

// Load reads every note from the ledger file. A missing file is an empty ledger.
func (r *Repository) Load(ctx context.Context) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := r.serializer()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.Path)
	if os.IsNotExist(err) {
		return []core.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	notes, err := s.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(r.Path), err)
	}
	if notes == nil {
		notes = []core.Note{}
	}
	r.config.Logger.Debug("ledger read", "path", r.Path, "notes", len(notes))
	return notes, nil
}

// Save replaces the ledger file atomically. Readers never observe a partial file.
func (r *Repository) Save(ctx context.Context, notes []core.Note) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := r.serializer()
	if err != nil {
		return err
	}

	data, err := s.Encode(notes)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := fsutil.WriteFileAtomic(r.Path, data, r.config.Perm); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastSave = &now
	if info, err := os.Stat(r.Path); err == nil {
		r.lastWritten = fileStamp{modTime: info.ModTime(), size: info.Size()}
	}
	r.config.Logger.Debug("ledger written", "path", r.Path, "notes", len(notes), "bytes", len(data))
	return nil
}

// ownWrite reports whether the file on disk is the one last written by Save.
func (r *Repository) ownWrite() bool {
	info, err := os.Stat(r.Path)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return info.ModTime().Equal(r.lastWritten.modTime) && info.Size() == r.lastWritten.size
}

var _ core.Repository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
