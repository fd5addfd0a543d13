package rediscache

import "github.com/shopspring/decimal"

// mustDecimal parses a decimal string we wrote ourselves; corrupt cache
// entries degrade to zero rather than failing the read.
func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
