package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/export"
	"cashflow/internal/state"
	"cashflow/internal/storage/memory"
)

var fixedNow = time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)

func seededKV(t *testing.T) *memory.Store {
	t.Helper()
	businesses := []core.Business{{
		ID:   "biz_1",
		Name: "Shop",
		Books: []core.Book{
			{ID: "book_cash", Name: "Petty Cash", Transactions: []core.Transaction{
				{ID: "tx_1", Date: core.NewDate(2024, 1, 1), Description: "Sale", Amount: core.MustAmount("100"), Type: core.Income},
				{ID: "tx_2", Date: core.NewDate(2024, 1, 2), Description: "Rent", Amount: core.MustAmount("30"), Type: core.Expense},
			}},
			{ID: "book_empty", Name: "Empty"},
		},
	}}
	raw, err := json.Marshal(businesses)
	require.NoError(t, err)

	kv := memory.New()
	require.NoError(t, kv.Set(context.Background(), state.KeyBusinesses, string(raw)))
	return kv
}

func newTestWorker(t *testing.T) (*ExportWorker, string) {
	dir := t.TempDir()
	w := NewExportWorker(seededKV(t), dir, state.DefaultDefaults())
	w.now = func() time.Time { return fixedNow }
	return w, dir
}

func TestRenderWritesPDF(t *testing.T) {
	w, dir := newTestWorker(t)
	msg := &amqp.ExportRequestMessage{ID: "req-1", BusinessID: "biz_1", BookIDs: []string{"book_cash"}, Currency: "USD"}

	path, err := w.Render(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "req-1", "Cashflow-Report-Petty-Cash-2024-04-02.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))

	entries, err := os.ReadDir(filepath.Join(dir, "req-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestRenderAllBooksIsConsolidated(t *testing.T) {
	w, dir := newTestWorker(t)
	path, err := w.Render(context.Background(), &amqp.ExportRequestMessage{ID: "req-2", BusinessID: "biz_1"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "req-2", "Cashflow-Report-Consolidated-Ledger-2024-04-02.pdf"), path)
}

func TestHandleExportRequestDropsPermanentFailures(t *testing.T) {
	w, dir := newTestWorker(t)
	ctx := context.Background()

	cases := map[string]*amqp.ExportRequestMessage{
		"unknown business": {ID: "a", BusinessID: "biz_missing"},
		"empty selection":  {ID: "b", BusinessID: "biz_1", BookIDs: []string{"book_empty"}},
		"bad filter":       {ID: "c", BusinessID: "biz_1", Start: "yesterday"},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, w.HandleExportRequest(ctx, msg))
			_, err := os.Stat(filepath.Join(dir, msg.ID, "x"))
			assert.True(t, os.IsNotExist(err))
		})
	}

	_, err := w.Render(ctx, cases["empty selection"])
	assert.ErrorIs(t, err, export.ErrNoData)
	_, err = w.Render(ctx, cases["unknown business"])
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCleanupOld(t *testing.T) {
	w, dir := newTestWorker(t)
	ctx := context.Background()

	oldDir := filepath.Join(dir, "old")
	newDir := filepath.Join(dir, "new")
	require.NoError(t, os.MkdirAll(oldDir, 0755))
	require.NoError(t, os.MkdirAll(newDir, 0755))
	require.NoError(t, os.Chtimes(oldDir, fixedNow.Add(-48*time.Hour), fixedNow.Add(-48*time.Hour)))
	require.NoError(t, os.Chtimes(newDir, fixedNow, fixedNow))

	removed, err := w.CleanupOld(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newDir)
	assert.NoError(t, err)
}

func TestCleanupOldMissingDir(t *testing.T) {
	w := NewExportWorker(memory.New(), filepath.Join(t.TempDir(), "nope"), state.DefaultDefaults())
	removed, err := w.CleanupOld(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
