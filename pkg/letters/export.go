package letters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/noteledger/internal/fsutil"
)

// Exporter writes letters into a directory, one file per letter.
type Exporter struct {
	Renderer Renderer
	Dir      string
	// Concurrency bounds the letters rendered at once. Defaults to GOMAXPROCS.
	Concurrency int
	Logger      *slog.Logger
}

// Path returns the file an exported letter is written to.
func (e *Exporter) Path(l Letter) string {
	return filepath.Join(e.Dir, l.Name+e.Renderer.Extension())
}

// Export renders every letter and returns the written paths in input order.
// The first failure cancels the remaining work; files already written stay.
func (e *Exporter) Export(ctx context.Context, letters []Letter) ([]string, error) {
	if e.Renderer == nil {
		return nil, fmt.Errorf("exporter has no renderer")
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	limit := e.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	paths := make([]string, len(letters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, l := range letters {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := e.Path(l)
			err := fsutil.WriteAtomic(path, 0644, func(w io.Writer) error {
				return e.Renderer.Render(w, l)
			})
			if err != nil {
				return fmt.Errorf("letter for note %s: %w", l.Note.ID, err)
			}
			logger.Debug("letter written", "note", l.Note.ID, "path", path)
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("letters exported", "dir", e.Dir, "count", len(paths))
	return paths, nil
}
