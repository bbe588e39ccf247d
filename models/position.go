package models

// Position is one book entry from the position snapshot. Records are typed
// at the input boundary (reader package); the engine never inspects column
// names dynamically. A Position is immutable within a valuation run once
// normalized.
type Position struct {
	Metal        string  `json:"metal"`
	Maturity     string  `json:"maturity"` // month-year label, see MaturityLayout
	Exchange     string  `json:"exchange"`
	ContractType string  `json:"contract_type"`
	BusinessLine string  `json:"business_line"`
	Strategy     string  `json:"strategy"`
	Currency     string  `json:"currency"`
	LongShort    string  `json:"long_short"` // "L" for long, anything else is short
	Volume       float64 `json:"volume"`
	Unit         string  `json:"unit"`

	// Derived by risk.UnitNormalizer.
	MassVolume   float64 `json:"mass_volume"`   // volume in metric tons
	SignedVolume float64 `json:"signed_volume"` // mass volume with long/short sign
}

// Key returns the instrument key for quote matching.
func (p Position) Key() InstrumentKey {
	return InstrumentKey{Metal: p.Metal, Maturity: p.Maturity, Exchange: p.Exchange}
}
