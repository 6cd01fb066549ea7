package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/core"
	"cashflow/internal/report"
)

func TestFileName(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "Cashflow-Report-Consolidated-Ledger-2024-05-01.pdf", FileName("Consolidated Ledger", now))
	assert.Equal(t, "Cashflow-Report-Petty-Cash-2024-05-01.pdf", FileName("  Petty \t Cash ", now))
}

func TestFormatCode(t *testing.T) {
	cases := []struct {
		currency core.Currency
		amount   string
		want     string
	}{
		{"USD", "1000.25", "USD 1,000.25"},
		{"ETB", "-3", "-ETB 3.00"},
		{"JPY", "1234567", "JPY 1,234,567"},
		{"SOS", "1200", "SOS 1,200"},
		{"XXX", "5", "SOS 5"},
		{"EUR", "0", "EUR 0.00"},
		{"USD", "-0.001", "USD 0.00"},
	}
	for _, c := range cases {
		t.Run(string(c.currency)+c.amount, func(t *testing.T) {
			d := decimal.RequireFromString(c.amount)
			assert.Equal(t, c.want, FormatCode(c.currency, d))
		})
	}
}

func statementFixture(n int) report.Statement {
	b := core.Business{ID: "biz_1", Name: "Shop", Books: []core.Book{{ID: "book_1", Name: "Cash"}}}
	for i := 0; i < n; i++ {
		typ := core.Income
		if i%3 == 0 {
			typ = core.Expense
		}
		b.Books[0].Transactions = append(b.Books[0].Transactions, core.Transaction{
			ID:          "tx",
			Date:        core.NewDate(2024, 1, 1+i%28),
			Description: "A rather long description that will not fit into the column width ünïcode",
			Amount:      core.MustAmount("10.50"),
			Type:        typ,
		})
	}
	st, _ := report.BookStatement(b, "book_1")
	return st
}

func TestRenderStatement(t *testing.T) {
	var buf bytes.Buffer
	err := RenderStatement(&buf, statementFixture(120), Options{Currency: "USD", Now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestRenderStatementEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := RenderStatement(&buf, report.Statement{Title: "Cash"}, Options{})
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, buf.Len())
}
