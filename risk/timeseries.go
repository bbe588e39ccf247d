package risk

import (
	"sort"
	"time"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// Reconstructor replays historical daily quotes against the current
// position set to build a day-by-day mark-to-market value series.
type Reconstructor struct {
	LookbackDays int
}

// Series joins each distinct historical date's quotes onto the fixed
// position set and sums signed volume x mass quote. A date enters the
// series only when every position received a quote that day; a day with any
// missing match is dropped entirely: partial valuations are unreliable and
// are neither interpolated nor partially summed.
func (r Reconstructor) Series(positions []models.Position, quotes []models.PriceQuote) []models.ValuePoint {
	if len(positions) == 0 || len(quotes) == 0 {
		return nil
	}

	var maxDate time.Time
	for _, q := range quotes {
		if q.Date.After(maxDate) {
			maxDate = q.Date
		}
	}
	cutoff := maxDate.AddDate(0, 0, -r.LookbackDays)

	byDay := make(map[string]map[models.InstrumentKey]models.PriceQuote)
	dayTimes := make(map[string]time.Time)
	for _, q := range quotes {
		if q.Date.Before(cutoff) {
			continue
		}
		day := dateKey(q.Date)
		row, ok := byDay[day]
		if !ok {
			row = make(map[models.InstrumentKey]models.PriceQuote)
			byDay[day] = row
			dayTimes[day] = q.Date
		}
		row[q.Key()] = q
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	series := make([]models.ValuePoint, 0, len(days))
	for _, day := range days {
		row := byDay[day]
		value := 0.0
		complete := true
		for _, p := range positions {
			q, ok := row[p.Key()]
			if !ok {
				complete = false
				break
			}
			value += p.SignedVolume * q.MassQuote
		}
		if !complete {
			continue
		}
		series = append(series, models.ValuePoint{Date: dayTimes[day], Value: value})
	}
	return series
}
