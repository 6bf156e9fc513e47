package gud

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/gud/internal/export"
)

// ExportOption configures Export.
type ExportOption func(*exportConfig)

type exportConfig struct {
	overwrite bool
}

// WithOverwrite allows Export to replace files that already exist in the
// destination.
func WithOverwrite(overwrite bool) ExportOption {
	return func(c *exportConfig) {
		c.overwrite = overwrite
	}
}

// Export writes every file of the version at index into dest, restoring
// the read-only flag and file times. A negative index counts back from
// the last version. Files are reconstructed and written in parallel; the
// first failure cancels the rest.
func (r *Repository) Export(ctx context.Context, version int, dest string, opts ...ExportOption) (int, error) {
	var cfg exportConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ar, err := r.openArchive()
	if err != nil {
		return 0, err
	}
	defer ar.Close()

	index := resolveIndex(ar, version)
	if _, err := ar.Version(index); err != nil {
		return 0, err
	}

	sink, err := export.New(dest, export.WithOverwrite(cfg.overwrite))
	if err != nil {
		return 0, err
	}
	defer sink.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.exportWorkers)
	n := 0
	for e := range ar.Entries(index) {
		if gctx.Err() != nil {
			break
		}
		n++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := ar.Materialize(index, e.Path)
			if err != nil {
				return err
			}
			return sink.Write(e.Path, content, e.Meta)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("export version %d: %w", index, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.log().Info("exported version", "index", index, "dest", dest, "files", n)
	return n, nil
}
