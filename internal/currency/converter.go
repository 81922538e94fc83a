// Package currency converts monetary values between ISO currency codes
// using a fixed-point exchange-rate table, keeping the exact-decimal
// guarantee the rest of the pipeline relies on (spec property: zero
// rounding drift from raw extraction through to derived metrics).
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate is one directed exchange rate: one unit of From converts to Rate
// units of To.
type Rate struct {
	From string
	To   string
	Rate decimal.Decimal
}

// Converter converts an amount between two currency codes. The contract
// carries no date, so every conversion uses a single rate per pair.
type Converter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// StaticTable is a Converter backed by a fixed set of rates, keyed
// "FROM/TO". It supports direct lookups, inverse lookups (1/rate when only
// the reverse pair is known), and same-currency no-ops, but does not chain
// through a third currency — callers needing that must supply both legs.
type StaticTable struct {
	rates map[string]decimal.Decimal
}

// NewStaticTable builds a converter from a flat list of known rates.
func NewStaticTable(rates []Rate) *StaticTable {
	t := &StaticTable{rates: make(map[string]decimal.Decimal, len(rates)*2)}
	for _, r := range rates {
		t.rates[key(r.From, r.To)] = r.Rate
	}
	return t
}

// Convert applies the from->to rate to amount. When only the inverse pair
// is registered, it divides by that rate instead (rounded to 10 decimal
// places, well beyond the precision any filed financial figure carries).
func (t *StaticTable) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	if rate, ok := t.rates[key(from, to)]; ok {
		return amount.Mul(rate), nil
	}
	if inverse, ok := t.rates[key(to, from)]; ok {
		if inverse.IsZero() {
			return decimal.Zero, fmt.Errorf("currency: inverse rate %s/%s is zero", to, from)
		}
		return amount.Div(inverse).DivRound(decimal.NewFromInt(1), 10), nil
	}
	return decimal.Zero, fmt.Errorf("currency: no rate known for %s to %s", from, to)
}

// HasRate reports whether a direct or inverse rate is registered for the
// pair, letting callers distinguish "no conversion needed" from "cannot
// convert" before attempting one.
func (t *StaticTable) HasRate(from, to string) bool {
	if from == to {
		return true
	}
	_, direct := t.rates[key(from, to)]
	_, inverse := t.rates[key(to, from)]
	return direct || inverse
}

func key(from, to string) string {
	return from + "/" + to
}
