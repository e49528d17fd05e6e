package settlement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Conversion is the result of normalizing one expense into the ledger currency.
type Conversion struct {
	Amount decimal.Decimal `json:"amount"`
	// Rate is the rate actually applied; exactly 1 for ledger-currency expenses.
	Rate decimal.Decimal `json:"rate"`
	// Unreliable marks a missing or non-positive rate that was replaced by 1.
	Unreliable bool `json:"unreliable"`
}

// Apply converts another amount of the same expense (a share) with the rate
// this conversion used.
func (c Conversion) Apply(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.Rate)
}

// Normalize converts amount from currency into ledgerCurrency. The rate is
// supplied by the caller and is expected to have been fixed when the expense
// was created. A missing or non-positive rate falls back to 1 and flags the
// conversion as unreliable instead of failing.
func Normalize(amount decimal.Decimal, currency, ledgerCurrency string, rate decimal.NullDecimal) Conversion {
	if SameCurrency(currency, ledgerCurrency) {
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1)}
	}
	if !rate.Valid || !rate.Decimal.IsPositive() {
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1), Unreliable: true}
	}
	return Conversion{Amount: amount.Mul(rate.Decimal), Rate: rate.Decimal}
}

// ParseRate parses a user- or storage-supplied rate. Blank or non-numeric
// input yields an invalid NullDecimal, which Normalize treats as missing.
func ParseRate(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// SameCurrency compares ISO currency codes ignoring case and surrounding space.
func SameCurrency(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
