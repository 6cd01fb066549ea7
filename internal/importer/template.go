package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TemplateFileName is the suggested download name for WriteTemplate.
const TemplateFileName = "transaction_template.xlsx"

var templateRows = [][]any{
	{"Date", "Description", "Amount", "Type"},
	{"2023-10-26", "Client Payment", 1500, "income"},
	{"2023-10-27", "Office Supplies", 75.5, "expense"},
}

// WriteTemplate writes an XLSX workbook with the required header row and two
// sample rows.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Transactions"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, row := range templateRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Transactions", cell, &row); err != nil {
			return fmt.Errorf("write template row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth("Transactions", "A", "D", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
