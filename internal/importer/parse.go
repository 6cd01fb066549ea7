package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"cashflow/internal/core"
)

// Format is a supported upload type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the parser from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Parse reads r as the format implied by name.
func Parse(name string, r io.Reader) (Table, error) {
	f, err := DetectFormat(name)
	if err != nil {
		return Table{}, err
	}
	switch f {
	case FormatCSV:
		return ParseCSV(r)
	default:
		return ParseXLSX(r)
	}
}

// ParseFile parses and validates in one step.
func ParseFile(name string, r io.Reader) ([]core.TransactionDraft, error) {
	t, err := Parse(name, r)
	if err != nil {
		return nil, err
	}
	return Validate(t)
}

// ParseCSV reads a comma separated file. Blank lines are skipped but row
// numbers still follow the physical lines of the file.
func ParseCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var t Table
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if t.Headers == nil {
			t.Headers = trimBOM(rec)
			continue
		}
		t.Rows = append(t.Rows, Row{Number: line, Cells: rec})
	}
	if t.Headers == nil {
		return Table{}, ErrNoValidRows
	}
	return t, nil
}

func trimBOM(rec []string) []string {
	if len(rec) > 0 {
		rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
	}
	return rec
}

// ParseXLSX reads the first worksheet. Date cells stored as spreadsheet serial
// numbers are converted to ISO dates.
func ParseXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrNoValidRows
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return FromRows(rows, 1)
}

// FromRows builds a Table from a matrix whose first non-blank row is the
// header. first is the 1-based number of rows[0] in the source.
func FromRows(rows [][]string, first int) (Table, error) {
	var t Table
	dateCol := -1
	for i, cells := range rows {
		if t.Headers == nil {
			if blank(cells) {
				continue
			}
			t.Headers = trimBOM(cells)
			for j, h := range t.Headers {
				if strings.EqualFold(strings.TrimSpace(h), "Date") {
					dateCol = j
					break
				}
			}
			continue
		}
		if dateCol >= 0 && dateCol < len(cells) {
			cells[dateCol] = serialToISO(cells[dateCol])
		}
		t.Rows = append(t.Rows, Row{Number: first + i, Cells: cells})
	}
	if t.Headers == nil {
		return Table{}, ErrNoValidRows
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// serialToISO converts a spreadsheet date serial such as "45225" to
// "2023-10-26"; anything else is returned unchanged.
func serialToISO(v string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 1 {
		return v
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}
