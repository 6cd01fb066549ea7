package sheets

import (
	"context"

	"cashflow/internal/importer"
)

// Ports for outbound adapters.
type (
	// TableReader reads a remote spreadsheet range as an import table.
	TableReader interface {
		// ReadTable returns the range's rows; the first non-blank row is the header.
		ReadTable(ctx context.Context, spreadsheetID, rangeA1 string) (importer.Table, error)
	}
)
