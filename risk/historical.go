package risk

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// HistoricalVaR derives VaR from the empirical quantile of day-over-day
// P&L on a reconstructed portfolio value series. P&L is absolute
// (value_t - value_t-1), not returns; the first undefined difference is
// dropped. VaR is the negated empirical quantile at (1 - confidence),
// reported as a non-negative loss magnitude: the 1st percentile of P&L for
// 99% confidence. A window with no losses reports zero. A series with
// fewer than two dates is ErrInsufficientHistory.
func HistoricalVaR(series []models.ValuePoint, confidence float64) (float64, error) {
	if len(series) < 2 {
		return 0, ErrInsufficientHistory
	}

	pnl := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		pnl = append(pnl, series[i].Value-series[i-1].Value)
	}
	sort.Float64s(pnl)

	q := stat.Quantile(1-confidence, stat.Empirical, pnl, nil)
	if v := -q; v > 0 {
		return v, nil
	}
	return 0, nil
}
