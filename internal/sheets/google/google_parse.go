package google

import (
	"fmt"
	"strconv"
	"strings"

	"cashflow/internal/importer"
)

// tableFromValues converts a values matrix (as returned by Sheets API) into an
// import table. first is the sheet row number of values[0].
func tableFromValues(values [][]interface{}, first int) (importer.Table, error) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = toStrings(v)
	}
	return importer.FromRows(rows, first)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

// rangeStartRow returns the first row number of an A1 range such as
// "Sheet1!B5:E" (5). Ranges without a row, like "A:D", start at 1.
func rangeStartRow(rangeA1 string) int {
	if i := strings.LastIndex(rangeA1, "!"); i >= 0 {
		rangeA1 = rangeA1[i+1:]
	}
	start, _, _ := strings.Cut(rangeA1, ":")
	digits := strings.TrimLeftFunc(start, func(r rune) bool {
		return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '$'
	})
	n, err := strconv.Atoi(strings.TrimPrefix(digits, "$"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
