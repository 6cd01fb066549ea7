package ledger

import (
	"fmt"
	"slices"

	"cashflow/internal/core"
)

func createBook(s core.State, env Env, c CreateBook) (core.State, Result, error) {
	name, err := validName(c.Name)
	if err != nil {
		return s, Result{}, err
	}
	book := core.Book{ID: env.id("book"), Name: name, Transactions: []core.Transaction{}}
	next, err := withBusiness(s, c.BusinessID, func(b core.Business) (core.Business, error) {
		if nameTaken(b.Books, name, "", bookKey) {
			return b, fmt.Errorf("book %q: %w", name, core.ErrDuplicateName)
		}
		b.Books = append(slices.Clone(b.Books), book)
		return b, nil
	})
	if err != nil {
		return s, Result{}, err
	}
	return next, Result{ID: book.ID}, nil
}

func updateBook(s core.State, c UpdateBook) (core.State, error) {
	name, err := validName(c.Name)
	if err != nil {
		return s, err
	}
	return withBusiness(s, c.BusinessID, func(b core.Business) (core.Business, error) {
		if nameTaken(b.Books, name, c.BookID, bookKey) {
			return b, fmt.Errorf("book %q: %w", name, core.ErrDuplicateName)
		}
		return withBook(b, c.BookID, func(bk core.Book) (core.Book, error) {
			bk.Name = name
			return bk, nil
		})
	})
}

// deleteBook is idempotent; the book's transactions go with it.
func deleteBook(s core.State, businessID, bookID string) core.State {
	b, ok := s.Business(businessID)
	if !ok {
		return s
	}
	if _, ok := b.FindBook(bookID); !ok {
		return s
	}
	next, _ := withBusiness(s, businessID, func(b core.Business) (core.Business, error) {
		b.Books = slices.DeleteFunc(slices.Clone(b.Books), func(bk core.Book) bool { return bk.ID == bookID })
		return b, nil
	})
	return next
}
