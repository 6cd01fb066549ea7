// Package report derives read-only views from ledger snapshots: running
// balances, summaries, filtered and sorted reports and the cross-business
// user directory. Nothing here mutates its input.
package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// BalancedTransaction is a transaction with the running balance after it.
type BalancedTransaction struct {
	core.Transaction
	Balance decimal.Decimal `json:"balance"`
}

// ByDateAscending returns a copy of txs stably sorted oldest first.
func ByDateAscending(txs []core.Transaction) []core.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out
}

// RunningBalance folds txs oldest first, income adding and expense subtracting.
func RunningBalance(txs []core.Transaction) []BalancedTransaction {
	sorted := ByDateAscending(txs)
	out := make([]BalancedTransaction, 0, len(sorted))
	balance := decimal.Zero
	for _, tx := range sorted {
		balance = balance.Add(tx.Signed())
		out = append(out, BalancedTransaction{Transaction: tx, Balance: balance})
	}
	return out
}

// NewestFirst reverses a running balance for display, keeping each balance.
func NewestFirst(rows []BalancedTransaction) []BalancedTransaction {
	out := slices.Clone(rows)
	slices.Reverse(out)
	return out
}

// DateGroup holds the transactions of one calendar day.
type DateGroup struct {
	Date         core.Date             `json:"date"`
	Transactions []BalancedTransaction `json:"transactions"`
}

// GroupByDate groups consecutive rows sharing a date, preserving order.
func GroupByDate(rows []BalancedTransaction) []DateGroup {
	var groups []DateGroup
	for _, row := range rows {
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(row.Date.Time) {
			groups[n-1].Transactions = append(groups[n-1].Transactions, row)
			continue
		}
		groups = append(groups, DateGroup{Date: row.Date, Transactions: []BalancedTransaction{row}})
	}
	return groups
}

// BookView is what a single book screen shows.
type BookView struct {
	BookID   string                `json:"bookId"`
	BookName string                `json:"bookName"`
	Summary  Summary               `json:"summary"`
	Rows     []BalancedTransaction `json:"rows"`
	Groups   []DateGroup           `json:"groups"`
}

// ViewBook builds the newest-first balanced view of one book.
func ViewBook(b core.Book) BookView {
	rows := NewestFirst(RunningBalance(b.Transactions))
	return BookView{
		BookID:   b.ID,
		BookName: b.Name,
		Summary:  Summarize(b.Transactions),
		Rows:     rows,
		Groups:   GroupByDate(rows),
	}
}
