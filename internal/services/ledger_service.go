package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/importer"
	"cashflow/internal/ledger"
	"cashflow/internal/log"
	"cashflow/internal/report"
	"cashflow/internal/session"
	"cashflow/internal/sheets"
	"cashflow/internal/state"
)

var (
	ErrExportUnavailable = errors.New("asynchronous export is not configured, download the PDF instead")
	ErrSheetsUnavailable = errors.New("google sheets import is not configured")
)

// ExportPublisher queues export requests for the worker.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error
	Close() error
}

// LedgerService orchestrates commands across the store, the session and AMQP
type LedgerService struct {
	store     *state.Store
	session   *session.Session
	publisher ExportPublisher
	tables    sheets.TableReader
	storage   io.Closer
	delay     time.Duration
	logger    *log.Logger
	events    *log.StructuredLogger
}

// Options carry the optional collaborators of a LedgerService.
type Options struct {
	// Publisher enables asynchronous export. Nil disables it.
	Publisher ExportPublisher
	// Tables enables import from Google Sheets. Nil disables it.
	Tables sheets.TableReader
	// Storage is closed with the service.
	Storage io.Closer
	// ImportDelay simulates processing latency before an import applies.
	ImportDelay time.Duration
	Logger      *log.Logger
}

func NewLedgerService(store *state.Store, sess *session.Session, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		store:     store,
		session:   sess,
		publisher: opts.Publisher,
		tables:    opts.Tables,
		storage:   opts.Storage,
		delay:     opts.ImportDelay,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

func (s *LedgerService) Session() *session.Session { return s.session }

// Snapshot returns a copy of the current ledger.
func (s *LedgerService) Snapshot() core.State { return s.store.Snapshot() }

// Version changes whenever the ledger changes.
func (s *LedgerService) Version() uint64 { return s.store.Version() }

// ExportEnabled reports whether RequestExport can succeed.
func (s *LedgerService) ExportEnabled() bool { return s.publisher != nil }

// Execute applies cmd as the signed-in user. Validation failures leave the
// ledger untouched and are returned as is.
func (s *LedgerService) Execute(ctx context.Context, cmd ledger.Command) (ledger.Result, error) {
	var res ledger.Result
	_, err := s.store.Update(ctx, func(st core.State) (core.State, error) {
		next, r, err := ledger.Apply(st, s.session.EnvFor(st.CurrentUser), cmd)
		res = r
		return next, err
	})
	name := commandName(cmd)
	if err != nil {
		s.logger.DebugContext(ctx, "Command rejected", log.FieldCommand, name, log.FieldError, err)
		return ledger.Result{}, err
	}
	s.events.LogCommand(ctx, name, businessOf(cmd), res.ID)
	return res, nil
}

// Import parses an uploaded file, validates every row and appends the rows
// to the book in one transition. It returns the number of imported rows.
func (s *LedgerService) Import(ctx context.Context, businessID, bookID, fileName string, r io.Reader) (int, error) {
	if err := s.checkBook(businessID, bookID); err != nil {
		return 0, err
	}
	// Parse up front so the delayed task never touches the caller's reader.
	drafts, err := importer.ParseFile(fileName, r)
	if err == nil {
		task := session.Go(ctx, s.delay, func(ctx context.Context) (int, error) {
			return s.importDrafts(ctx, bookID, drafts)
		})
		_, err = task.Wait(ctx)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Import rejected",
			log.FieldBookID, bookID,
			log.FieldFileName, fileName,
			log.FieldError, err)
		return 0, err
	}
	s.logger.InfoContext(ctx, "Import completed",
		log.FieldBusinessID, businessID,
		log.FieldBookID, bookID,
		log.FieldFileName, fileName,
		log.FieldRows, len(drafts))
	return len(drafts), nil
}

// ImportSheet imports a Google Sheets range into a book.
func (s *LedgerService) ImportSheet(ctx context.Context, businessID, bookID, spreadsheetID, rangeA1 string) (int, error) {
	if s.tables == nil {
		return 0, ErrSheetsUnavailable
	}
	if err := s.checkBook(businessID, bookID); err != nil {
		return 0, err
	}
	table, err := s.tables.ReadTable(ctx, spreadsheetID, rangeA1)
	if err != nil {
		return 0, fmt.Errorf("read sheet: %w", err)
	}
	drafts, err := importer.Validate(table)
	if err != nil {
		return 0, err
	}
	n, err := s.importDrafts(ctx, bookID, drafts)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Sheet import completed", log.FieldBookID, bookID, log.FieldRows, n)
	return n, nil
}

func (s *LedgerService) importDrafts(ctx context.Context, bookID string, drafts []core.TransactionDraft) (int, error) {
	if _, err := s.Execute(ctx, ledger.ImportTransactions{BookID: bookID, Rows: drafts}); err != nil {
		return 0, err
	}
	return len(drafts), nil
}

func (s *LedgerService) checkBook(businessID, bookID string) error {
	b, ok := s.store.Snapshot().Business(businessID)
	if !ok {
		return fmt.Errorf("business %q: %w", businessID, core.ErrNotFound)
	}
	if _, ok := b.FindBook(bookID); !ok {
		return fmt.Errorf("book %q: %w", bookID, core.ErrNotFound)
	}
	return nil
}

// ExportSelection is the report selection of an asynchronous export.
type ExportSelection struct {
	BookIDs []string
	Start   string
	End     string
	Type    string
}

// RequestExport queues a report PDF for the export worker and returns the
// request id.
func (s *LedgerService) RequestExport(ctx context.Context, businessID string, sel ExportSelection) (string, error) {
	if s.publisher == nil {
		return "", ErrExportUnavailable
	}
	st := s.store.Snapshot()
	if st.CurrentUser == nil {
		return "", session.ErrUnauthenticated
	}
	if _, ok := st.Business(businessID); !ok {
		return "", fmt.Errorf("business %q: %w", businessID, core.ErrNotFound)
	}
	if _, err := report.ParseFilter(sel.BookIDs, sel.Start, sel.End, sel.Type); err != nil {
		return "", err
	}

	msg := amqp.NewExportRequestMessage(businessID, st.CurrentUser.ID)
	msg.BookIDs = sel.BookIDs
	msg.Start = sel.Start
	msg.End = sel.End
	msg.Type = sel.Type
	msg.Currency = string(st.Currency)

	if err := s.publisher.PublishExportRequest(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish export request",
			log.FieldBusinessID, businessID,
			log.FieldError, err)
		return "", fmt.Errorf("queue export: %w", err)
	}
	s.logger.InfoContext(ctx, "Export requested", log.FieldExportID, msg.ID, log.FieldBusinessID, businessID)
	return msg.ID, nil
}

// Close detaches the session and closes AMQP and storage
func (s *LedgerService) Close() error {
	var errs []error

	if s.session != nil {
		s.session.Close()
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}

// commandName is the command's type name, e.g. "CreateBook".
func commandName(cmd ledger.Command) string {
	if cmd == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(cmd)
	if d, ok := cmd.(ledger.Delete); ok && d.Target != nil {
		return "Delete" + strings.TrimSuffix(reflect.TypeOf(d.Target).Name(), "Target")
	}
	return t.Name()
}

func businessOf(cmd ledger.Command) string {
	switch c := cmd.(type) {
	case ledger.UpdateBusiness:
		return c.ID
	case ledger.DuplicateBusiness:
		return c.ID
	case ledger.CreateBook:
		return c.BusinessID
	case ledger.UpdateBook:
		return c.BusinessID
	case ledger.CreateTransaction:
		return c.BusinessID
	case ledger.UpdateTransaction:
		return c.BusinessID
	case ledger.DeleteTransactions:
		return c.BusinessID
	case ledger.InviteMember:
		return c.BusinessID
	case ledger.UpdateMemberRole:
		return c.BusinessID
	case ledger.TransferOwnership:
		return c.BusinessID
	default:
		return ""
	}
}
