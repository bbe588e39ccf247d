package models

import "time"

// MaturityLayout is the fixed month-year label format used for instrument
// matching, e.g. "Oct-2024". Matching is exact on the label, never on a
// date range.
const MaturityLayout = "Jan-2006"

// InstrumentKey identifies a tradable contract by metal, maturity month
// label and exchange. It is the equality key used to match positions to
// quotes and to index covariance columns and weights.
type InstrumentKey struct {
	Metal    string `json:"metal"`
	Maturity string `json:"maturity"`
	Exchange string `json:"exchange"`
}

// String renders the key in the canonical metal_maturity_exchange form.
func (k InstrumentKey) String() string {
	return k.Metal + "_" + k.Maturity + "_" + k.Exchange
}

// MaturityLabel formats a maturity date as the fixed month-year label.
func MaturityLabel(t time.Time) string {
	return t.Format(MaturityLayout)
}
