// Package export renders ledger statements as PDF documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/report"
)

var ErrNoData = errors.New("no transactions to export")

type rgb struct{ r, g, b int }

var (
	colorPositive = rgb{82, 142, 82}
	colorNegative = rgb{209, 69, 59}
	colorNeutral  = rgb{29, 78, 216}
	colorHeader   = rgb{31, 41, 55}
	colorStripe   = rgb{243, 244, 246}
)

const (
	pageMargin = 12.0
	rowHeight  = 7.0
	tileHeight = 20.0
)

// Options control presentation of a rendered statement.
type Options struct {
	Currency core.Currency
	// Now is printed in the footer. Defaults to the current time.
	Now time.Time
}

// column widths in mm for date, description, book, in, out, balance.
var columns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 24, "L"},
	{"Description", 58, "L"},
	{"Book", 28, "L"},
	{"Cash In", 25, "R"},
	{"Cash Out", 25, "R"},
	{"Balance", 26, "R"},
}

// RenderStatement writes st as an A4 PDF to w.
func RenderStatement(w io.Writer, st report.Statement, opts Options) error {
	if len(st.Rows) == 0 {
		return ErrNoData
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if !opts.Currency.IsValid() {
		opts.Currency = core.DefaultCurrency
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	money := func(d decimal.Decimal) string { return FormatCode(opts.Currency, d) }

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 6, "Generated "+opts.Now.Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	// Header band.
	pdf.SetFillColor(colorHeader.r, colorHeader.g, colorHeader.b)
	pdf.Rect(0, 0, pageW, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(pageMargin, 7)
	pdf.CellFormat(contentW, 8, tr(st.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(pageMargin)
	pdf.CellFormat(contentW, 6, tr(st.BusinessName), "", 1, "L", false, 0, "")
	pdf.SetY(34)

	// Summary tiles.
	tiles := []struct {
		label string
		value decimal.Decimal
		tone  decimal.Decimal
	}{
		{"Cash In", st.Summary.Income, st.Summary.Income},
		{"Cash Out", st.Summary.Expense, st.Summary.Expense.Neg()},
		{"Net Balance", st.Summary.Net, st.Summary.Net},
	}
	gap := 4.0
	tileW := (contentW - gap*float64(len(tiles)-1)) / float64(len(tiles))
	y := pdf.GetY()
	for i, tile := range tiles {
		x := pageMargin + float64(i)*(tileW+gap)
		c := toneColor(tile.tone)
		pdf.SetFillColor(c.r, c.g, c.b)
		pdf.Rect(x, y, tileW, tileHeight, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(x+3, y+3)
		pdf.CellFormat(tileW-6, 5, tile.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(x+3, y+10)
		pdf.CellFormat(tileW-6, 7, money(tile.value), "", 0, "L", false, 0, "")
	}
	pdf.SetY(y + tileHeight + 8)

	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(colorHeader.r, colorHeader.g, colorHeader.b)
		pdf.SetTextColor(255, 255, 255)
		for _, col := range columns {
			pdf.CellFormat(col.width, rowHeight, col.title, "", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(17, 24, 39)
	}
	_, _, _, bottom := pdf.GetMargins()
	limit := pageH - bottom - rowHeight

	tableHeader()
	for i, row := range st.Rows {
		if pdf.GetY() > limit {
			pdf.AddPage()
			tableHeader()
		}
		pdf.SetFillColor(colorStripe.r, colorStripe.g, colorStripe.b)
		fill := i%2 == 1
		cells := []string{
			row.Date.String(),
			truncate(pdf, tr(row.Description), columns[1].width-2),
			truncate(pdf, tr(row.BookName), columns[2].width-2),
			amountOrBlank(money, row.CashIn),
			amountOrBlank(money, row.CashOut),
			money(row.Balance),
		}
		for j, col := range columns {
			pdf.CellFormat(col.width, rowHeight, cells[j], "", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	// Grand total.
	if pdf.GetY() > limit {
		pdf.AddPage()
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetDrawColor(colorHeader.r, colorHeader.g, colorHeader.b)
	labelW := columns[0].width + columns[1].width + columns[2].width
	pdf.CellFormat(labelW, rowHeight, "Grand Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(columns[3].width, rowHeight, money(st.Summary.Income), "T", 0, "R", false, 0, "")
	pdf.CellFormat(columns[4].width, rowHeight, money(st.Summary.Expense), "T", 0, "R", false, 0, "")
	pdf.CellFormat(columns[5].width, rowHeight, money(st.Summary.Net), "T", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func toneColor(d decimal.Decimal) rgb {
	switch d.Sign() {
	case 1:
		return colorPositive
	case -1:
		return colorNegative
	default:
		return colorNeutral
	}
}

func amountOrBlank(money func(decimal.Decimal) string, d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return money(d)
}

// truncate shortens s with an ellipsis so it fits width at the current font.
// s is already in the single-byte font encoding.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > width {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
