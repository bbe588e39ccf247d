package models

import "time"

// Metric carries a computed risk figure or the reason it could not be
// computed. Valid is false for expected data-quality conditions such as
// insufficient history; Cause holds the human-readable reason.
type Metric struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
	Cause string  `json:"cause,omitempty"`
}

// LevelResult is the outcome of one breakdown partition. Partitions fail
// independently: a Cause on one level never aborts the others.
type LevelResult struct {
	Dimension string  `json:"dimension"`
	Level     string  `json:"level"`
	VaR       float64 `json:"var"`
	Valid     bool    `json:"valid"`
	Cause     string  `json:"cause,omitempty"`
}

// RiskReport is the full output of a valuation run, handed unmodified to a
// reporting collaborator. The engine never formats currency or writes files.
type RiskReport struct {
	RunID        string    `json:"run_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	Confidence   float64   `json:"confidence"`
	LookbackDays int       `json:"lookback_days"`
	HorizonDays  float64   `json:"horizon_days"`

	ParametricVaR Metric `json:"parametric_var"`
	HistoricalVaR Metric `json:"historical_var"`

	// VaRByLevel maps dimension name -> partition value -> parametric VaR,
	// for levels that computed successfully. Levels carries every outcome
	// including failures.
	VaRByLevel map[string]map[string]float64 `json:"var_by_level"`
	Levels     []LevelResult                 `json:"levels"`

	OutlierCount      int      `json:"outlier_count"`
	UnpricedPositions int      `json:"unpriced_positions"`
	UnrecognizedUnits []string `json:"unrecognized_units,omitempty"`
}
