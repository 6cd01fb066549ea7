package ledger

import (
	"fmt"
	"slices"

	"cashflow/internal/core"
)

func newTransaction(env Env, d core.TransactionDraft) core.Transaction {
	tx := core.Transaction{
		ID:             env.id("tx"),
		Date:           d.Date,
		Description:    core.NormalizeName(d.Description),
		Amount:         d.Amount,
		Type:           d.Type,
		EntryTimestamp: env.now(),
	}
	if env.User != nil {
		tx.CreatorID = env.User.ID
		tx.CreatorName = env.User.Name
	}
	return tx
}

func createTransaction(s core.State, env Env, c CreateTransaction) (core.State, Result, error) {
	if err := c.Draft.Validate(); err != nil {
		return s, Result{}, err
	}
	if env.User == nil {
		return s, Result{}, core.ErrNoCurrentUser
	}
	tx := newTransaction(env, c.Draft)
	next, err := withBusiness(s, c.BusinessID, func(b core.Business) (core.Business, error) {
		return withBook(b, c.BookID, func(bk core.Book) (core.Book, error) {
			bk.Transactions = append(slices.Clone(bk.Transactions), tx)
			return bk, nil
		})
	})
	if err != nil {
		return s, Result{}, err
	}
	return next, Result{ID: tx.ID}, nil
}

func updateTransaction(s core.State, c UpdateTransaction) (core.State, error) {
	if err := c.Transaction.Validate(); err != nil {
		return s, err
	}
	return withBusiness(s, c.BusinessID, func(b core.Business) (core.Business, error) {
		return withBook(b, c.BookID, func(bk core.Book) (core.Book, error) {
			i := slices.IndexFunc(bk.Transactions, func(t core.Transaction) bool { return t.ID == c.Transaction.ID })
			if i < 0 {
				return bk, fmt.Errorf("transaction %q: %w", c.Transaction.ID, core.ErrNotFound)
			}
			bk.Transactions = slices.Clone(bk.Transactions)
			bk.Transactions[i] = c.Transaction
			return bk, nil
		})
	})
}

// deleteTransactions removes the listed ids; ids not present are ignored.
func deleteTransactions(s core.State, businessID, bookID string, ids []string) (core.State, error) {
	b, ok := s.Business(businessID)
	if !ok {
		return s, nil
	}
	bk, ok := b.FindBook(bookID)
	if !ok || !slices.ContainsFunc(bk.Transactions, func(t core.Transaction) bool { return slices.Contains(ids, t.ID) }) {
		return s, nil
	}
	return withBusiness(s, businessID, func(b core.Business) (core.Business, error) {
		return withBook(b, bookID, func(bk core.Book) (core.Book, error) {
			bk.Transactions = slices.DeleteFunc(slices.Clone(bk.Transactions), func(t core.Transaction) bool {
				return slices.Contains(ids, t.ID)
			})
			return bk, nil
		})
	})
}

func deleteAllTransactions(s core.State, businessID, bookID string) core.State {
	next, err := withBusiness(s, businessID, func(b core.Business) (core.Business, error) {
		return withBook(b, bookID, func(bk core.Book) (core.Book, error) {
			bk.Transactions = []core.Transaction{}
			return bk, nil
		})
	})
	if err != nil {
		return s
	}
	return next
}

// importTransactions appends every row to the book with one shared provenance
// stamp. Rows are checked again so a bad row never lands half a batch.
func importTransactions(s core.State, env Env, c ImportTransactions) (core.State, error) {
	for i, row := range c.Rows {
		if err := row.Validate(); err != nil {
			return s, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if env.User == nil {
		return s, core.ErrNoCurrentUser
	}
	owner := slices.IndexFunc(s.Businesses, func(b core.Business) bool {
		_, ok := b.FindBook(c.BookID)
		return ok
	})
	if owner < 0 || len(c.Rows) == 0 {
		return s, nil
	}

	now := env.now()
	batch := make([]core.Transaction, 0, len(c.Rows))
	for _, row := range c.Rows {
		tx := newTransaction(env, row)
		tx.EntryTimestamp = now
		batch = append(batch, tx)
	}
	return withBusiness(s, s.Businesses[owner].ID, func(b core.Business) (core.Business, error) {
		return withBook(b, c.BookID, func(bk core.Book) (core.Book, error) {
			bk.Transactions = append(slices.Clone(bk.Transactions), batch...)
			return bk, nil
		})
	})
}
