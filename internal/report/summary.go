package report

import (
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Summary totals a set of transactions.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Summarize totals income and expense; Net is income minus expense.
func Summarize(txs []core.Transaction) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

func summarizeRows(rows []Row) Summary {
	txs := make([]core.Transaction, len(rows))
	for i, r := range rows {
		txs[i] = r.Transaction
	}
	return Summarize(txs)
}
