// Package risk implements the portfolio risk computation engine: unit
// normalization, price-to-position joining, covariance estimation,
// parametric and historical Value-at-Risk, outlier detection and breakdown
// aggregation. The engine is a pure batch computation over typed snapshots;
// loading and persisting data belongs to the reader and writer packages.
package risk

import (
	"errors"
	"fmt"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// Recoverable domain conditions. Callers branch on these with errors.Is
// rather than treating them as faults: a book with zero gross exposure or a
// price panel with too little history is bad data, not a bug.
var (
	// ErrZeroExposure is reported when the gross position value is exactly
	// zero. Weights are undefined by construction at zero exposure.
	ErrZeroExposure = errors.New("gross exposure is zero")

	// ErrInsufficientHistory is reported when fewer than two usable dates
	// or returns remain for covariance estimation or historical P&L.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrMissingMarketData is the base condition for an instrument with no
	// matching quote. A missing quote is propagated as an undefined price,
	// never coerced to zero.
	ErrMissingMarketData = errors.New("missing market data")
)

// MissingQuoteError reports the instrument that had no quote under a join
// mode. It unwraps to ErrMissingMarketData.
type MissingQuoteError struct {
	Key models.InstrumentKey
}

func (e *MissingQuoteError) Error() string {
	return fmt.Sprintf("no quote for instrument %s", e.Key)
}

func (e *MissingQuoteError) Unwrap() error { return ErrMissingMarketData }

// UnknownDimensionError reports a requested breakdown dimension that is not
// part of the position schema. The dimension is skipped, not fatal.
type UnknownDimensionError struct {
	Dimension string
}

func (e *UnknownDimensionError) Error() string {
	return fmt.Sprintf("unknown breakdown dimension %q", e.Dimension)
}
