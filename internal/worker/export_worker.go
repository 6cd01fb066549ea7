package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/export"
	"cashflow/internal/report"
	"cashflow/internal/state"
)

// ExportWorker renders requested report PDFs into an output directory. It
// reads the persisted ledger on every request so it always sees the latest
// saved snapshot.
type ExportWorker struct {
	kv       state.KV
	outDir   string
	defaults state.Defaults
	now      func() time.Time
}

func NewExportWorker(kv state.KV, outDir string, defaults state.Defaults) *ExportWorker {
	return &ExportWorker{
		kv:       kv,
		outDir:   outDir,
		defaults: defaults,
		now:      time.Now,
	}
}

// HandleExportRequest processes a single export request message from AMQP.
// Requests that can never succeed (unknown business, empty selection) are
// logged and acknowledged.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	path, err := w.Render(ctx, msg)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Export written", "request_id", msg.ID, "path", path)
		return nil
	case core.IsValidation(err), isPermanent(err):
		slog.WarnContext(ctx, "Dropping export request", "request_id", msg.ID, "error", err)
		return nil
	default:
		return err
	}
}

// Render writes the PDF for msg and returns its path.
func (w *ExportWorker) Render(ctx context.Context, msg *amqp.ExportRequestMessage) (string, error) {
	st := state.Load(ctx, w.kv, w.defaults, slog.Default())

	b, ok := st.Business(msg.BusinessID)
	if !ok {
		return "", fmt.Errorf("business %q: %w", msg.BusinessID, core.ErrNotFound)
	}
	f, err := report.ParseFilter(msg.BookIDs, msg.Start, msg.End, msg.Type)
	if err != nil {
		return "", err
	}
	stmt := report.ReportStatement(b, f.OrAllBooks(b))
	if len(stmt.Rows) == 0 {
		return "", export.ErrNoData
	}

	currency := core.Currency(msg.Currency)
	if !currency.IsValid() {
		currency = st.Currency
	}

	dir := filepath.Join(w.outDir, msg.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	now := w.now()
	path := filepath.Join(dir, export.FileName(stmt.Title, now))

	tmp, err := os.CreateTemp(dir, ".export-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := export.RenderStatement(tmp, stmt, export.Options{Currency: currency, Now: now}); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move export into place: %w", err)
	}

	slog.DebugContext(ctx, "Rendered export",
		"request_id", msg.ID,
		"business_id", b.ID,
		"rows", len(stmt.Rows))
	return path, nil
}

// CleanupOld removes export directories older than maxAge. It is the
// periodic counterpart to HandleExportRequest so the output directory does
// not grow without bound.
func (w *ExportWorker) CleanupOld(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.outDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read export directory: %w", err)
	}

	cutoff := w.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.outDir, e.Name())); err != nil {
			slog.ErrorContext(ctx, "Failed to remove old export", "dir", e.Name(), "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Removed old exports", "count", removed)
	}
	return removed, nil
}

// PeriodicCleanup runs CleanupOld every interval until ctx ends.
func (w *ExportWorker) PeriodicCleanup(ctx context.Context, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.CleanupOld(ctx, maxAge); err != nil {
				slog.ErrorContext(ctx, "Export cleanup failed", "error", err)
			}
		}
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, core.ErrNotFound) || errors.Is(err, export.ErrNoData)
}
