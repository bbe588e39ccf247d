package risk

import (
	"sort"
	"sync"

	"github.com/antoinejeanrenaud/RiskPipelineProject/logger"
	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// TotalDimension runs the computation over the whole book instead of a
// partition of it.
const TotalDimension = "Total"

// DimensionValue resolves a breakdown dimension name to the position's
// value for it. The schema is fixed: dimensions are declared here, and the
// engine never inspects column names dynamically.
func DimensionValue(p models.Position, dimension string) (string, bool) {
	switch dimension {
	case "BUSINESS LINE":
		return p.BusinessLine, true
	case "METAL":
		return p.Metal, true
	case "STRATEGY":
		return p.Strategy, true
	case "CONTRACTTYPE":
		return p.ContractType, true
	case "CURRENCY":
		return p.Currency, true
	case "EXCHANGE":
		return p.Exchange, true
	default:
		return "", false
	}
}

// ComputeFunc runs the full risk pipeline over one position partition and
// the price panel filtered to that partition's instruments.
type ComputeFunc func(positions []models.Position, quotes []models.PriceQuote) (float64, error)

// Outcome is the result of one partition: a VaR figure or the typed error
// that prevented it. Failures are collected, never printed from here; the
// hosting surface decides presentation.
type Outcome struct {
	Dimension string
	Level     string
	VaR       float64
	Err       error
}

// Aggregator partitions the book by each requested breakdown dimension and
// reruns a computation per partition plus for the whole book. Partitions
// are independent and read-only over the shared inputs, so they run
// concurrently. Per-partition failures are isolated: one bad partition
// never aborts the others, and an unknown dimension is reported and
// skipped.
type Aggregator struct {
	Dimensions []string
	Compute    ComputeFunc

	log *logger.Log
}

// NewAggregator builds an aggregator over the given breakdown dimensions.
func NewAggregator(dimensions []string, compute ComputeFunc) *Aggregator {
	return &Aggregator{
		Dimensions: dimensions,
		Compute:    compute,
		log:        logger.GetLogger(),
	}
}

// Run evaluates every requested dimension. Prices are never partitioned by
// dimension, only positions are; each partition sees the full price panel
// filtered to the instruments it holds.
func (a *Aggregator) Run(positions []models.Position, quotes []models.PriceQuote) []Outcome {
	var outcomes []Outcome
	log := a.log.WithComponent("aggregator")

	for _, dim := range a.Dimensions {
		if dim == TotalDimension {
			v, err := a.Compute(positions, quotes)
			outcomes = append(outcomes, Outcome{Dimension: dim, Level: TotalDimension, VaR: v, Err: err})
			continue
		}

		if _, ok := DimensionValue(models.Position{}, dim); !ok {
			log.WithFields(logger.Fields{"dimension": dim}).Warn("unknown breakdown dimension, skipping")
			outcomes = append(outcomes, Outcome{Dimension: dim, Err: &UnknownDimensionError{Dimension: dim}})
			continue
		}

		partitions := make(map[string][]models.Position)
		for _, p := range positions {
			v, _ := DimensionValue(p, dim)
			partitions[v] = append(partitions[v], p)
		}

		levels := make([]string, 0, len(partitions))
		for lvl := range partitions {
			levels = append(levels, lvl)
		}
		sort.Strings(levels)

		results := make([]Outcome, len(levels))
		var wg sync.WaitGroup
		for i, lvl := range levels {
			wg.Add(1)
			go func(i int, lvl string) {
				defer wg.Done()
				part := partitions[lvl]
				v, err := a.Compute(part, filterQuotes(quotes, part))
				results[i] = Outcome{Dimension: dim, Level: lvl, VaR: v, Err: err}
			}(i, lvl)
		}
		wg.Wait()
		outcomes = append(outcomes, results...)
	}
	return outcomes
}

// filterQuotes restricts the price panel to instruments held by the
// partition.
func filterQuotes(quotes []models.PriceQuote, positions []models.Position) []models.PriceQuote {
	held := make(map[models.InstrumentKey]struct{}, len(positions))
	for _, p := range positions {
		held[p.Key()] = struct{}{}
	}
	filtered := make([]models.PriceQuote, 0, len(quotes))
	for _, q := range quotes {
		if _, ok := held[q.Key()]; ok {
			filtered = append(filtered, q)
		}
	}
	return filtered
}
