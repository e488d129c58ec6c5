package format

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Currency renders an amount as dollars with two decimals and thousands
// separators, e.g. "$1,234.50". The sign follows the dollar sign: "$-5.00".
func Currency(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Percent renders a fraction in [0,1] as a percentage, e.g. "20%".
func Percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).Round(1).String() + "%"
}
