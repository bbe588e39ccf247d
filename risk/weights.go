package risk

import (
	"math"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// WeightVector maps each instrument to its signed weight, normalized by
// gross exposure so that sum(|weight|) == 1 whenever gross exposure is
// non-zero.
type WeightVector struct {
	W map[models.InstrumentKey]float64
}

// PortfolioValue is the total book value in monetary terms: the sum of
// |signed volume| x mass quote across priced positions. Positions without a
// quote contribute nothing; an undefined price is never treated as zero
// value silently. The engine reports unpriced positions separately.
func PortfolioValue(priced []models.PricedPosition) float64 {
	total := 0.0
	for _, p := range priced {
		if !p.HasQuote {
			continue
		}
		total += math.Abs(p.SignedVolume) * p.MassQuote
	}
	return total
}

// ComputeWeights sums signed position value per instrument and divides by
// gross exposure. Zero gross exposure is a hard precondition failure:
// weights are undefined by construction, so ErrZeroExposure is returned
// instead of dividing.
func ComputeWeights(priced []models.PricedPosition) (WeightVector, error) {
	signed := make(map[models.InstrumentKey]float64)
	gross := 0.0
	for _, p := range priced {
		if !p.HasQuote {
			continue
		}
		value := p.SignedVolume * p.MassQuote
		signed[p.Key()] += value
		gross += math.Abs(value)
	}
	if gross == 0 {
		return WeightVector{}, ErrZeroExposure
	}

	weights := make(map[models.InstrumentKey]float64, len(signed))
	for k, v := range signed {
		weights[k] = v / gross
	}
	return WeightVector{W: weights}, nil
}
