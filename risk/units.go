package risk

import (
	"sort"
	"sync"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// UnitTable maps a unit tag to its conversion factor toward metric tons.
// Tables are closed mappings passed in at construction so tests can
// substitute alternates; there are no ambient unit constants.
type UnitTable map[string]float64

// DefaultVolumeUnits converts position volumes to metric tons.
func DefaultVolumeUnits() UnitTable {
	return UnitTable{
		"LB": 0.0004536, // pounds -> metric tons
		"MT": 1.0,
	}
}

// DefaultQuoteUnits converts price quotes to price per metric ton.
func DefaultQuoteUnits() UnitTable {
	return UnitTable{
		"USD/LB": 0.0004536,
		"USD/MT": 1.0,
	}
}

// UnitNormalizer converts volumes and quotes into metric-ton terms and
// applies the long/short sign convention. Unknown units pass through with
// factor 1.0, matching the permissive policy of the source data feeds;
// silent pass-through can mask unit bugs, so every unrecognized tag is
// recorded and surfaced on the run report.
type UnitNormalizer struct {
	volumeUnits UnitTable
	quoteUnits  UnitTable

	mu           sync.Mutex
	unrecognized map[string]struct{}
}

// NewUnitNormalizer builds a normalizer over the given closed unit tables.
// Nil tables fall back to the defaults.
func NewUnitNormalizer(volumeUnits, quoteUnits UnitTable) *UnitNormalizer {
	if volumeUnits == nil {
		volumeUnits = DefaultVolumeUnits()
	}
	if quoteUnits == nil {
		quoteUnits = DefaultQuoteUnits()
	}
	return &UnitNormalizer{
		volumeUnits:  volumeUnits,
		quoteUnits:   quoteUnits,
		unrecognized: make(map[string]struct{}),
	}
}

// NormalizePosition fills MassVolume and SignedVolume. "L" is long and
// positive; any other tag takes the short branch and is negative.
func (n *UnitNormalizer) NormalizePosition(p models.Position) models.Position {
	p.MassVolume = p.Volume * n.factor(n.volumeUnits, p.Unit)
	if p.LongShort == "L" {
		p.SignedVolume = p.MassVolume
	} else {
		p.SignedVolume = -p.MassVolume
	}
	return p
}

// NormalizeQuote fills MassQuote. Quote units divide: a USD/LB quote becomes
// USD/MT by dividing by the pounds-per-ton factor. The sign of a quote is
// never flipped.
func (n *UnitNormalizer) NormalizeQuote(q models.PriceQuote) models.PriceQuote {
	q.MassQuote = q.Value / n.factor(n.quoteUnits, q.Unit)
	return q
}

// NormalizePositions normalizes a snapshot in place order.
func (n *UnitNormalizer) NormalizePositions(positions []models.Position) []models.Position {
	out := make([]models.Position, len(positions))
	for i, p := range positions {
		out[i] = n.NormalizePosition(p)
	}
	return out
}

// NormalizeQuotes normalizes a price panel in place order.
func (n *UnitNormalizer) NormalizeQuotes(quotes []models.PriceQuote) []models.PriceQuote {
	out := make([]models.PriceQuote, len(quotes))
	for i, q := range quotes {
		out[i] = n.NormalizeQuote(q)
	}
	return out
}

func (n *UnitNormalizer) factor(table UnitTable, unit string) float64 {
	if f, ok := table[unit]; ok {
		return f
	}
	n.mu.Lock()
	n.unrecognized[unit] = struct{}{}
	n.mu.Unlock()
	return 1.0
}

// UnrecognizedUnits returns the sorted set of unit tags that passed through
// with factor 1.0 during this run.
func (n *UnitNormalizer) UnrecognizedUnits() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	units := make([]string, 0, len(n.unrecognized))
	for u := range n.unrecognized {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}
