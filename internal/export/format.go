package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cashflow/internal/core"
)

// FileName returns Cashflow-Report-<scope>-<YYYY-MM-DD>.pdf with whitespace
// runs in scope replaced by "-".
func FileName(scope string, now time.Time) string {
	return "Cashflow-Report-" + strings.Join(strings.Fields(scope), "-") + "-" + now.Format(core.DateLayout) + ".pdf"
}

// FormatCode renders d prefixed by the ISO code with grouping and the
// currency's number of decimals, e.g. "USD 1,234.50". The PDF core fonts
// cannot print every currency symbol.
func FormatCode(c core.Currency, d decimal.Decimal) string {
	info := c.Info()
	return sign(d) + string(info.Code) + " " + formatNumber(d.Abs(), info.Decimals)
}

func sign(d decimal.Decimal) string {
	if d.IsNegative() && !d.Round(2).IsZero() {
		return "-"
	}
	return ""
}

func formatNumber(d decimal.Decimal, decimals int32) string {
	f, _ := d.Round(decimals).Float64()
	return message.NewPrinter(language.English).Sprintf(fmt.Sprintf("%%.%df", decimals), f)
}
