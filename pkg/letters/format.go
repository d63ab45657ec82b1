package letters

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is how dates appear in letters.
const DateLayout = "January 2, 2006"

var printer = message.NewPrinter(language.English)

// FormatAmount renders a money amount with thousands separators and two
// decimal places, e.g. "1,050.00".
func FormatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatRate renders an annualized rate as a percentage, e.g. "5%" or "4.25%".
func FormatRate(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}

// FormatDate renders a calendar date for a letter.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
