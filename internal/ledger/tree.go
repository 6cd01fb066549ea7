package ledger

import (
	"fmt"
	"slices"

	"cashflow/internal/core"
)

// withBusiness replaces the business id with fn's result in a copy of s.
func withBusiness(s core.State, id string, fn func(core.Business) (core.Business, error)) (core.State, error) {
	i := slices.IndexFunc(s.Businesses, func(b core.Business) bool { return b.ID == id })
	if i < 0 {
		return s, fmt.Errorf("business %q: %w", id, core.ErrNotFound)
	}
	b, err := fn(s.Businesses[i])
	if err != nil {
		return s, err
	}
	next := s
	next.Businesses = slices.Clone(s.Businesses)
	next.Businesses[i] = b
	return next, nil
}

// withBook replaces the book id with fn's result in a copy of b.
func withBook(b core.Business, id string, fn func(core.Book) (core.Book, error)) (core.Business, error) {
	i := slices.IndexFunc(b.Books, func(bk core.Book) bool { return bk.ID == id })
	if i < 0 {
		return b, fmt.Errorf("book %q: %w", id, core.ErrNotFound)
	}
	bk, err := fn(b.Books[i])
	if err != nil {
		return b, err
	}
	next := b
	next.Books = slices.Clone(b.Books)
	next.Books[i] = bk
	return next, nil
}

func hasBusiness(s core.State, id string) bool {
	_, ok := s.Business(id)
	return ok
}

func nameTaken[T any](items []T, name, exceptID string, key func(T) (id, name string)) bool {
	return slices.ContainsFunc(items, func(item T) bool {
		id, n := key(item)
		return id != exceptID && core.SameName(n, name)
	})
}

func businessKey(b core.Business) (string, string) { return b.ID, b.Name }
func bookKey(b core.Book) (string, string)         { return b.ID, b.Name }

func validName(name string) (string, error) {
	name = core.NormalizeName(name)
	if name == "" {
		return "", core.ErrEmptyName
	}
	return name, nil
}
