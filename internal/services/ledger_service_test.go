package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/importer"
	"cashflow/internal/ledger"
	"cashflow/internal/log"
	"cashflow/internal/session"
	"cashflow/internal/state"
	"cashflow/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	sent   []*amqp.ExportRequestMessage
	err    error
	closed bool
}

func (f *fakePublisher) PublishExportRequest(_ context.Context, msg *amqp.ExportRequestMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeTables struct {
	table importer.Table
	err   error
}

func (f fakeTables) ReadTable(context.Context, string, string) (importer.Table, error) {
	return f.table, f.err
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestService(t *testing.T, opts Options) *LedgerService {
	t.Helper()
	ctx := context.Background()
	n := 0
	envFn := func(u *core.User) ledger.Env {
		return ledger.Env{
			User: u,
			Now:  func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) },
			NewID: func(prefix string) string {
				n++
				return fmt.Sprintf("%s_%d", prefix, n)
			},
		}
	}
	logger := quietLogger()
	st := state.Open(ctx, memory.New(), state.DefaultDefaults(), logger.Slog())
	sess := session.New(ctx, st, session.Options{Env: envFn, Logger: logger.Slog()})
	opts.Logger = logger
	svc := NewLedgerService(st, sess, opts)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

// signedIn returns a service with Ana signed in and a "Cash" book in her business.
func signedIn(t *testing.T, opts Options) (*LedgerService, string, string) {
	t.Helper()
	svc := newTestService(t, opts)
	ctx := context.Background()
	_, err := svc.Session().Login(ctx, "Ana", "pw")
	require.NoError(t, err)
	biz := svc.Snapshot().ActiveBusinessID
	res, err := svc.Execute(ctx, ledger.CreateBook{BusinessID: biz, Name: "Cash"})
	require.NoError(t, err)
	return svc, biz, res.ID
}

func TestExecute(t *testing.T) {
	svc, biz, book := signedIn(t, Options{})
	ctx := context.Background()
	v := svc.Version()

	res, err := svc.Execute(ctx, ledger.CreateTransaction{BusinessID: biz, BookID: book, Draft: core.TransactionDraft{
		Date: core.NewDate(2024, 1, 5), Description: "Sale", Amount: core.MustAmount("12"), Type: core.Income,
	}})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Greater(t, svc.Version(), v)

	b, _ := svc.Snapshot().Business(biz)
	bk, _ := b.FindBook(book)
	require.Len(t, bk.Transactions, 1)
	assert.Equal(t, "Ana", bk.Transactions[0].CreatorName)
}

func TestExecuteRejectsInvalidInput(t *testing.T) {
	svc, biz, _ := signedIn(t, Options{})
	before := svc.Snapshot()

	_, err := svc.Execute(context.Background(), ledger.CreateBook{BusinessID: biz, Name: "cash"})
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	assert.Equal(t, before, svc.Snapshot())
}

const csvFile = "Date,Description,Amount,Type\n2024-01-01,Sale,100,income\n2024-01-02,Rent,30,expense\n"

func TestImport(t *testing.T) {
	svc, biz, book := signedIn(t, Options{})

	n, err := svc.Import(context.Background(), biz, book, "bank.csv", strings.NewReader(csvFile))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, _ := svc.Snapshot().Business(biz)
	bk, _ := b.FindBook(book)
	require.Len(t, bk.Transactions, 2)
	assert.Equal(t, bk.Transactions[0].EntryTimestamp, bk.Transactions[1].EntryTimestamp)
}

func TestImportIsAllOrNothing(t *testing.T) {
	svc, biz, book := signedIn(t, Options{})
	bad := csvFile + "2024-01-03,Broken,-5,expense\n"

	_, err := svc.Import(context.Background(), biz, book, "bank.csv", strings.NewReader(bad))
	var verr *importer.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 4, verr.Rows[0].Row)

	b, _ := svc.Snapshot().Business(biz)
	bk, _ := b.FindBook(book)
	assert.Empty(t, bk.Transactions)
}

func TestImportUnknownBookOrFormat(t *testing.T) {
	svc, biz, book := signedIn(t, Options{})
	ctx := context.Background()

	_, err := svc.Import(ctx, biz, "book_missing", "bank.csv", strings.NewReader(csvFile))
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Import(ctx, biz, book, "bank.pdf", bytes.NewReader(nil))
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestImportCancelled(t *testing.T) {
	svc, biz, book := signedIn(t, Options{ImportDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Import(ctx, biz, book, "bank.csv", strings.NewReader(csvFile))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	b, _ := svc.Snapshot().Business(biz)
	bk, _ := b.FindBook(book)
	assert.Empty(t, bk.Transactions)
}

// blockingReader holds the upload until release is closed.
type blockingReader struct {
	release <-chan struct{}
	r       io.Reader
}

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.release
	return b.r.Read(p)
}

func TestImportCancelledWhileReading(t *testing.T) {
	svc, biz, book := signedIn(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	go func() {
		cancel()
		close(release)
	}()

	n, err := svc.Import(ctx, biz, book, "bank.csv", &blockingReader{release: release, r: strings.NewReader(csvFile)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)

	time.Sleep(20 * time.Millisecond)
	b, _ := svc.Snapshot().Business(biz)
	bk, _ := b.FindBook(book)
	assert.Empty(t, bk.Transactions)
}

func TestImportSheet(t *testing.T) {
	table := importer.Table{
		Headers: []string{"Date", "Description", "Amount", "Type"},
		Rows:    []importer.Row{{Number: 2, Cells: []string{"2024-01-01", "Sale", "5", "income"}}},
	}
	svc, biz, book := signedIn(t, Options{Tables: fakeTables{table: table}})

	n, err := svc.ImportSheet(context.Background(), biz, book, "sheet-id", "A:D")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	noSheets, biz2, book2 := signedIn(t, Options{})
	_, err = noSheets.ImportSheet(context.Background(), biz2, book2, "sheet-id", "A:D")
	assert.ErrorIs(t, err, ErrSheetsUnavailable)
}

func TestRequestExport(t *testing.T) {
	pub := &fakePublisher{}
	svc, biz, book := signedIn(t, Options{Publisher: pub})
	ctx := context.Background()

	id, err := svc.RequestExport(ctx, biz, ExportSelection{BookIDs: []string{book}, Start: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	msg := pub.sent[0]
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, biz, msg.BusinessID)
	assert.Equal(t, []string{book}, msg.BookIDs)
	assert.Equal(t, string(core.DefaultCurrency), msg.Currency)
	assert.Equal(t, svc.Snapshot().CurrentUser.ID, msg.RequestedBy)

	_, err = svc.RequestExport(ctx, "biz_missing", ExportSelection{})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.RequestExport(ctx, biz, ExportSelection{Type: "transfers"})
	assert.ErrorIs(t, err, core.ErrInvalidType)

	pub.err = errors.New("channel closed")
	_, err = svc.RequestExport(ctx, biz, ExportSelection{})
	assert.Error(t, err)
}

func TestRequestExportWithoutBroker(t *testing.T) {
	svc, biz, _ := signedIn(t, Options{})
	assert.False(t, svc.ExportEnabled())
	_, err := svc.RequestExport(context.Background(), biz, ExportSelection{})
	assert.ErrorIs(t, err, ErrExportUnavailable)
}

func TestClose(t *testing.T) {
	pub := &fakePublisher{}
	storageErr := errors.New("disk gone")
	svc := newTestService(t, Options{Publisher: pub, Storage: closerFunc(func() error { return storageErr })})

	err := svc.Close()
	assert.ErrorIs(t, err, storageErr)
	assert.True(t, pub.closed)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "CreateBook", commandName(ledger.CreateBook{}))
	assert.Equal(t, "DeleteBook", commandName(ledger.Delete{Target: ledger.BookTarget{}}))
	assert.Equal(t, "DeleteAllTransactions", commandName(ledger.Delete{Target: ledger.AllTransactionsTarget{}}))
}
