package models

import "time"

// PriceQuote is one market observation from the price history table.
// The raw quote value is kept alongside the mass-normalized quote so the
// outlier gate and the report can refer back to the source number.
type PriceQuote struct {
	Metal    string    `json:"metal"`
	Maturity string    `json:"maturity"` // month-year label, see MaturityLayout
	Exchange string    `json:"exchange"`
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Unit     string    `json:"unit"`

	// Derived by risk.UnitNormalizer: price per metric ton. The sign is
	// never flipped for quotes.
	MassQuote float64 `json:"mass_quote"`
}

// Key returns the instrument key for position matching.
func (q PriceQuote) Key() InstrumentKey {
	return InstrumentKey{Metal: q.Metal, Maturity: q.Maturity, Exchange: q.Exchange}
}

// PricedPosition is a Position with the selected quote attached. HasQuote
// distinguishes "no matching quote" from a zero price: an absent match is
// never coerced to zero.
type PricedPosition struct {
	Position
	MassQuote float64   `json:"mass_quote"`
	QuoteDate time.Time `json:"quote_date"`
	HasQuote  bool      `json:"has_quote"`
}

// ValuePoint is one entry of a reconstructed portfolio value series: the
// total mark-to-market value of the book on a historical date.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
