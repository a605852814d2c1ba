// Package csvfile writes tables as CSV files in the output directory.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

const bom = "\uFEFF"

// Writer writes each table to <dir>/<table name>. A file only appears once
// the whole table has been serialized.
type Writer struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a CSV writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	return &Writer{dir: dir, logger: logger, metrics: metrics}
}

// Path returns the file a table named name is written to.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteTable serializes t to a temporary file and renames it into place.
func (w *Writer) WriteTable(ctx context.Context, t domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Name == "" {
		return fmt.Errorf("%w: table has no name", domain.ErrConfig)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	dest := w.Path(t.Name)
	tmp, err := os.CreateTemp(w.dir, "."+t.Name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := encode(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", t.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.Name, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("move %s into place: %w", t.Name, err)
	}

	w.metrics.RowsWritten.WithLabelValues(t.Name).Add(float64(t.Len()))
	w.logger.Info("table written", "path", dest, "rows", t.Len(), "columns", len(t.Header))
	return nil
}

func encode(f *os.File, t domain.Table) error {
	bw := bufio.NewWriter(f)
	if t.BOM {
		if _, err := bw.WriteString(bom); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(bw)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return bw.Flush()
}
