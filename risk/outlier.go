package risk

import (
	"math"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// DefaultOutlierThreshold is the default |z| cutoff for the data-quality gate.
const DefaultOutlierThreshold = 4.0

// OutlierDetector flags anomalous quotes within each instrument group using
// a population z-score test (ddof=0). It is a data-quality gate independent
// of the VaR computation.
type OutlierDetector struct {
	Threshold float64
}

// OutlierReport holds both the flag count and the flagged rows. The source
// pipeline reported only the count; the row set is returned as well so a
// hosting surface can show which quotes tripped the gate.
type OutlierReport struct {
	Count   int
	Flagged []models.PriceQuote
}

// Detect computes each quote's z-score within its instrument group and
// flags |z| > Threshold. Groups with fewer than two observations or zero
// variance produce no flags; there is no silent division by zero.
func (d OutlierDetector) Detect(quotes []models.PriceQuote) OutlierReport {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}

	groups := make(map[models.InstrumentKey][]models.PriceQuote)
	for _, q := range quotes {
		groups[q.Key()] = append(groups[q.Key()], q)
	}

	var report OutlierReport
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		mean := 0.0
		for _, q := range group {
			mean += q.MassQuote
		}
		mean /= float64(len(group))

		variance := 0.0
		for _, q := range group {
			diff := q.MassQuote - mean
			variance += diff * diff
		}
		variance /= float64(len(group)) // population variance, ddof=0
		if variance == 0 {
			continue
		}
		std := math.Sqrt(variance)

		for _, q := range group {
			if math.Abs((q.MassQuote-mean)/std) > threshold {
				report.Count++
				report.Flagged = append(report.Flagged, q)
			}
		}
	}
	return report
}
