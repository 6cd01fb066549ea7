package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// StatementRow is one printed line of an exported statement.
type StatementRow struct {
	Date        core.Date       `json:"date"`
	Description string          `json:"description"`
	BookName    string          `json:"bookName"`
	CashIn      decimal.Decimal `json:"cashIn"`
	CashOut     decimal.Decimal `json:"cashOut"`
	Balance     decimal.Decimal `json:"balance"`
}

// Statement is the plain data handed to document generators.
type Statement struct {
	Title        string         `json:"title"`
	BusinessName string         `json:"businessName"`
	Summary      Summary        `json:"summary"`
	Rows         []StatementRow `json:"rows"`
}

// BookStatement covers every transaction of one book.
func BookStatement(b core.Business, bookID string) (Statement, error) {
	bk, ok := b.FindBook(bookID)
	if !ok {
		return Statement{}, fmt.Errorf("book %q: %w", bookID, core.ErrNotFound)
	}
	rows := make([]Row, 0, len(bk.Transactions))
	for _, tx := range bk.Transactions {
		rows = append(rows, Row{Transaction: tx, BookID: bk.ID, BookName: bk.Name})
	}
	return statement(bk.Name, b.Name, rows), nil
}

// ReportStatement covers the rows selected by f, oldest first.
func ReportStatement(b core.Business, f Filter) Statement {
	return statement(Title(b, f.BookIDs), b.Name, f.Apply(b))
}

func statement(title, business string, rows []Row) Statement {
	sorted := SortRows(rows, Sort{Key: SortByDate, Direction: Ascending})
	st := Statement{
		Title:        title,
		BusinessName: business,
		Summary:      summarizeRows(sorted),
		Rows:         make([]StatementRow, 0, len(sorted)),
	}
	balance := decimal.Zero
	for _, r := range sorted {
		balance = balance.Add(r.Signed())
		line := StatementRow{
			Date:        r.Date,
			Description: r.Description,
			BookName:    r.BookName,
			CashIn:      decimal.Zero,
			CashOut:     decimal.Zero,
			Balance:     balance,
		}
		if r.Type == core.Income {
			line.CashIn = r.Amount
		} else {
			line.CashOut = r.Amount
		}
		st.Rows = append(st.Rows, line)
	}
	return st
}
