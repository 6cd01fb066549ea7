package report

import (
	"fmt"
	"slices"
	"strings"

	"cashflow/internal/core"
)

// EntryFilter narrows a report to one entry type.
type EntryFilter string

const (
	EntryAll     EntryFilter = "all"
	EntryIncome  EntryFilter = "income"
	EntryExpense EntryFilter = "expense"
)

// ParseEntryFilter accepts all, income or expense; empty means all.
func ParseEntryFilter(s string) (EntryFilter, error) {
	switch f := EntryFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return EntryAll, nil
	case EntryAll, EntryIncome, EntryExpense:
		return f, nil
	default:
		return "", fmt.Errorf("entry filter %q: %w", s, core.ErrInvalidType)
	}
}

func (f EntryFilter) match(t core.EntryType) bool {
	switch f {
	case EntryIncome:
		return t == core.Income
	case EntryExpense:
		return t == core.Expense
	default:
		return true
	}
}

// Filter selects report rows. Start and End are inclusive calendar days; a
// zero bound is open.
type Filter struct {
	BookIDs []string
	Start   core.Date
	End     core.Date
	Type    EntryFilter
}

// ParseFilter reads a filter from query-style strings. Empty dates are open
// bounds and an empty type means all entries.
func ParseFilter(bookIDs []string, start, end, entryType string) (Filter, error) {
	f := Filter{BookIDs: bookIDs}
	var err error
	if strings.TrimSpace(start) != "" {
		if f.Start, err = core.ParseDate(start); err != nil {
			return Filter{}, fmt.Errorf("start %q: %w", start, err)
		}
	}
	if strings.TrimSpace(end) != "" {
		if f.End, err = core.ParseDate(end); err != nil {
			return Filter{}, fmt.Errorf("end %q: %w", end, err)
		}
	}
	if f.Type, err = ParseEntryFilter(entryType); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// OrAllBooks selects every book of b when no book is selected.
func (f Filter) OrAllBooks(b core.Business) Filter {
	if len(f.BookIDs) > 0 {
		return f
	}
	f.BookIDs = make([]string, 0, len(b.Books))
	for _, bk := range b.Books {
		f.BookIDs = append(f.BookIDs, bk.ID)
	}
	return f
}

// Row is a report transaction annotated with its book.
type Row struct {
	core.Transaction
	BookID   string `json:"bookId"`
	BookName string `json:"bookName"`
}

// Apply returns the matching transactions of b in book order. No selected books
// means no rows.
func (f Filter) Apply(b core.Business) []Row {
	var rows []Row
	for _, bk := range b.Books {
		if !slices.Contains(f.BookIDs, bk.ID) {
			continue
		}
		for _, tx := range bk.Transactions {
			if !f.inRange(tx.Date) || !f.Type.match(tx.Type) {
				continue
			}
			rows = append(rows, Row{Transaction: tx, BookID: bk.ID, BookName: bk.Name})
		}
	}
	return rows
}

// Dates are whole days, so comparing days covers start 00:00 through end 23:59:59.
func (f Filter) inRange(d core.Date) bool {
	day := core.DateOf(d.Time)
	if !f.Start.IsZero() && day.Before(f.Start.Time) {
		return false
	}
	if !f.End.IsZero() && day.After(f.End.Time) {
		return false
	}
	return true
}

// Report is a filtered, sorted and summarized view across books.
type Report struct {
	Title   string  `json:"title"`
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
	Sort    Sort    `json:"sort"`
}

// ConsolidatedTitle names reports covering more than one book.
const ConsolidatedTitle = "Consolidated Ledger"

// Build applies f and sort to b.
func Build(b core.Business, f Filter, sort Sort) Report {
	rows := SortRows(f.Apply(b), sort)
	return Report{
		Title:   Title(b, f.BookIDs),
		Rows:    rows,
		Summary: summarizeRows(rows),
		Sort:    sort,
	}
}

// Title is the book's name when exactly one book is selected.
func Title(b core.Business, bookIDs []string) string {
	if len(bookIDs) == 1 {
		if bk, ok := b.FindBook(bookIDs[0]); ok {
			return bk.Name
		}
	}
	return ConsolidatedTitle
}

// SearchBooks matches book names case-insensitively; an empty term matches all.
func SearchBooks(b core.Business, term string) []core.Book {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []core.Book
	for _, bk := range b.Books {
		if strings.Contains(strings.ToLower(bk.Name), term) {
			out = append(out, bk)
		}
	}
	return out
}
