package assistant

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const rupee = "₹"

var indianEnglish = language.MustParse("en-IN")

// FormatAmount renders amount with Indian digit grouping and at most two decimals.
func FormatAmount(amount float64) string {
	return message.NewPrinter(indianEnglish).Sprint(number.Decimal(amount, number.MaxFractionDigits(2)))
}

func formatRupees(amount float64) string {
	return rupee + FormatAmount(amount)
}
