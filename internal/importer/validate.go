// Package importer turns tabular files into validated transaction drafts.
//
// Parsing (CSV, XLSX, remote sheets) produces a Table that keeps each row's
// position in the source file, so validation errors can point at the exact
// spreadsheet row. Validation is all-or-nothing: one bad row rejects the file.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"cashflow/internal/core"
)

// RequiredHeaders must all be present, compared trimmed and case-insensitively.
var RequiredHeaders = []string{"Date", "Description", "Amount", "Type"}

var (
	ErrMissingHeaders    = errors.New("missing required headers")
	ErrInvalidRows       = errors.New("invalid rows")
	ErrNoValidRows       = errors.New("no valid rows found in file")
	ErrUnsupportedFormat = errors.New("unsupported file type, please upload a CSV or Excel file")
)

// Row is one data row and its 1-based position in the source file.
type Row struct {
	Number int
	Cells  []string
}

// Table is a parsed file: the header row and the data rows below it.
type Table struct {
	Headers []string
	Rows    []Row
}

// HeaderError lists the required headers a file lacks.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("missing required headers: %s", strings.Join(e.Missing, ", "))
}

func (e *HeaderError) Unwrap() error { return ErrMissingHeaders }

// RowError is one failed check on one row.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ValidationError collects every row failure of a rejected file.
type ValidationError struct {
	Rows []RowError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		msgs[i] = r.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Rows), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRows }

// columns maps each required header to its cell index.
type columns map[string]int

func locate(headers []string) (columns, error) {
	cols := make(columns, len(RequiredHeaders))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := cols[strings.ToLower(h)]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing}
	}
	return cols, nil
}

func (c columns) get(cells []string, header string) string {
	i := c[strings.ToLower(header)]
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// Validate checks every row and returns the drafts only when all rows pass.
// Rows whose four required cells are blank are skipped.
func Validate(t Table) ([]core.TransactionDraft, error) {
	cols, err := locate(t.Headers)
	if err != nil {
		return nil, err
	}

	var (
		drafts []core.TransactionDraft
		errs   []RowError
	)
	for _, row := range t.Rows {
		date := cols.get(row.Cells, "Date")
		desc := cols.get(row.Cells, "Description")
		amount := cols.get(row.Cells, "Amount")
		typ := cols.get(row.Cells, "Type")
		if date == "" && desc == "" && amount == "" && typ == "" {
			continue
		}

		var rowErrs []RowError
		d, err := core.ParseDate(date)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: row.Number, Field: "Date", Value: date, Err: err})
		}
		if desc == "" {
			rowErrs = append(rowErrs, RowError{Row: row.Number, Field: "Description", Value: desc, Err: core.ErrEmptyDescription})
		}
		a, err := core.ParseAmount(amount)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: row.Number, Field: "Amount", Value: amount, Err: err})
		}
		et, err := core.ParseEntryType(typ)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: row.Number, Field: "Type", Value: typ, Err: err})
		}
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		drafts = append(drafts, core.TransactionDraft{Date: d, Description: desc, Amount: a, Type: et})
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Rows: errs}
	}
	if len(drafts) == 0 {
		return nil, ErrNoValidRows
	}
	return drafts, nil
}
