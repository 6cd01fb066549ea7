package http

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/report"
)

const maxUploadBytes = 10 << 20

type transactionRequest struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      amountInput `json:"amount"`
	Type        string      `json:"type"`
}

// draft parses the request into a validated transaction body.
func (req transactionRequest) draft() (core.TransactionDraft, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.TransactionDraft{}, fmt.Errorf("date %q: %w", req.Date, err)
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.TransactionDraft{}, fmt.Errorf("amount %q: %w", req.Amount, err)
	}
	typ, err := core.ParseEntryType(req.Type)
	if err != nil {
		return core.TransactionDraft{}, fmt.Errorf("type %q: %w", req.Type, err)
	}
	d := core.TransactionDraft{Date: date, Description: req.Description, Amount: amount, Type: typ}
	return d, d.Validate()
}

func (s *Server) book(r *http.Request) (core.Business, core.Book, error) {
	b, err := s.business(r)
	if err != nil {
		return core.Business{}, core.Book{}, err
	}
	bookID := r.PathValue("bookID")
	bk, ok := b.FindBook(bookID)
	if !ok {
		return core.Business{}, core.Book{}, fmt.Errorf("book %q: %w", bookID, core.ErrNotFound)
	}
	return b, bk, nil
}

func findTransaction(bk core.Book, id string) (core.Transaction, bool) {
	i := slices.IndexFunc(bk.Transactions, func(tx core.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return core.Transaction{}, false
	}
	return bk.Transactions[i], true
}

func (s *Server) handleBookView(w http.ResponseWriter, r *http.Request) error {
	_, bk, err := s.book(r)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, report.ViewBook(bk))
	return nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) error {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	d, err := req.draft()
	if err != nil {
		return err
	}
	businessID, bookID := r.PathValue("id"), r.PathValue("bookID")
	res, err := s.svc.Execute(r.Context(), ledger.CreateTransaction{BusinessID: businessID, BookID: bookID, Draft: d})
	if err != nil {
		return err
	}
	return s.writeTransaction(w, r, http.StatusCreated, res.ID)
}

// handleUpdateTransaction replaces the editable fields and keeps provenance.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) error {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	d, err := req.draft()
	if err != nil {
		return err
	}
	_, bk, err := s.book(r)
	if err != nil {
		return err
	}
	txID := r.PathValue("txID")
	tx, ok := findTransaction(bk, txID)
	if !ok {
		return fmt.Errorf("transaction %q: %w", txID, core.ErrNotFound)
	}
	tx.Date, tx.Description, tx.Amount, tx.Type = d.Date, d.Description, d.Amount, d.Type

	cmd := ledger.UpdateTransaction{BusinessID: r.PathValue("id"), BookID: bk.ID, Transaction: tx}
	if _, err := s.svc.Execute(r.Context(), cmd); err != nil {
		return err
	}
	return s.writeTransaction(w, r, http.StatusOK, txID)
}

func (s *Server) writeTransaction(w http.ResponseWriter, r *http.Request, status int, id string) error {
	_, bk, err := s.book(r)
	if err != nil {
		return err
	}
	tx, ok := findTransaction(bk, id)
	if !ok {
		return fmt.Errorf("transaction %q: %w", id, core.ErrNotFound)
	}
	writeJSON(w, status, tx)
	return nil
}

// handleDeleteTransactions empties the book, or removes the ?ids= selection.
func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) error {
	businessID, bookID := r.PathValue("id"), r.PathValue("bookID")
	var cmd ledger.Command = ledger.Delete{Target: ledger.AllTransactionsTarget{BusinessID: businessID, BookID: bookID}}
	if r.URL.Query().Has("ids") {
		ids := queryList(r, "ids")
		if len(ids) == 0 {
			return badRequest("ids must name at least one transaction")
		}
		cmd = ledger.DeleteTransactions{BusinessID: businessID, BookID: bookID, IDs: ids}
	}
	if _, err := s.svc.Execute(r.Context(), cmd); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) error {
	target := ledger.TransactionTarget{
		BusinessID:    r.PathValue("id"),
		BookID:        r.PathValue("bookID"),
		TransactionID: r.PathValue("txID"),
	}
	if _, err := s.svc.Execute(r.Context(), ledger.Delete{Target: target}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("file exceeds %d bytes", maxUploadBytes)
		}
		return badRequest("multipart field \"file\" is required")
	}
	defer file.Close()

	n, err := s.svc.Import(r.Context(), r.PathValue("id"), r.PathValue("bookID"), header.Filename, file)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
	return nil
}

func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		SpreadsheetID string `json:"spreadsheetId"`
		Range         string `json:"range"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.SpreadsheetID == "" {
		return badRequest("spreadsheetId is required")
	}
	n, err := s.svc.ImportSheet(r.Context(), r.PathValue("id"), r.PathValue("bookID"), req.SpreadsheetID, req.Range)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
	return nil
}
