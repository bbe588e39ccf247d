package risk

import (
	"sort"
	"time"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// dateKey collapses a quote timestamp to its calendar day. All joins and
// series operations compare days, never instants.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// LatestQuotes selects, per instrument, the most recent quote in the panel.
// Quotes are sorted by date ascending with the original row order preserved
// for equal dates, and the last row per instrument wins; ties on date are
// therefore broken deterministically in favor of the later source row.
func LatestQuotes(quotes []models.PriceQuote) map[models.InstrumentKey]models.PriceQuote {
	sorted := make([]models.PriceQuote, len(quotes))
	copy(sorted, quotes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	latest := make(map[models.InstrumentKey]models.PriceQuote)
	for _, q := range sorted {
		latest[q.Key()] = q
	}
	return latest
}

// QuotesOn selects, per instrument, the quote observed exactly on the given
// calendar date. Instruments without an observation that day are simply
// absent from the result. Duplicate rows for the same instrument and day
// resolve to the last source row, matching LatestQuotes.
func QuotesOn(quotes []models.PriceQuote, date time.Time) map[models.InstrumentKey]models.PriceQuote {
	day := dateKey(date)
	selected := make(map[models.InstrumentKey]models.PriceQuote)
	for _, q := range quotes {
		if dateKey(q.Date) == day {
			selected[q.Key()] = q
		}
	}
	return selected
}

func attach(positions []models.Position, selected map[models.InstrumentKey]models.PriceQuote) []models.PricedPosition {
	priced := make([]models.PricedPosition, len(positions))
	for i, p := range positions {
		pp := models.PricedPosition{Position: p}
		if q, ok := selected[p.Key()]; ok {
			pp.MassQuote = q.MassQuote
			pp.QuoteDate = q.Date
			pp.HasQuote = true
		}
		priced[i] = pp
	}
	return priced
}

// JoinLatest attaches the latest available quote to each position. Positions
// whose instrument has no quote at all keep HasQuote false; the price is
// undefined, never zero.
func JoinLatest(positions []models.Position, quotes []models.PriceQuote) []models.PricedPosition {
	return attach(positions, LatestQuotes(quotes))
}

// JoinOn attaches the quote observed exactly on date to each position.
func JoinOn(positions []models.Position, quotes []models.PriceQuote, date time.Time) []models.PricedPosition {
	return attach(positions, QuotesOn(quotes, date))
}

// Unpriced collects the missing-quote conditions from a joined book, one
// per distinct instrument without a price.
func Unpriced(priced []models.PricedPosition) []*MissingQuoteError {
	seen := make(map[models.InstrumentKey]struct{})
	var missing []*MissingQuoteError
	for _, pp := range priced {
		if pp.HasQuote {
			continue
		}
		k := pp.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		missing = append(missing, &MissingQuoteError{Key: k})
	}
	return missing
}
