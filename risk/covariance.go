package risk

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// CovarianceMatrix is the sample covariance of daily instrument returns,
// square and symmetric, indexed by instrument key. It is positive
// semi-definite by construction.
type CovarianceMatrix struct {
	Keys  []models.InstrumentKey // column ordering of Sigma
	Sigma *mat.SymDense

	index map[models.InstrumentKey]int
}

// Dim returns the number of instruments in the matrix.
func (m *CovarianceMatrix) Dim() int { return len(m.Keys) }

// Index returns the column index of an instrument, if present.
func (m *CovarianceMatrix) Index(k models.InstrumentKey) (int, bool) {
	i, ok := m.index[k]
	return i, ok
}

// CovarianceEstimator builds the daily-return covariance matrix from a
// historical price panel restricted to a trailing lookback window.
type CovarianceEstimator struct {
	LookbackDays int
}

// Estimate pivots the panel into a date-by-instrument price matrix,
// forward-fills gaps along the date axis (instruments quote on different
// calendars), drops any date row still incomplete after the fill, computes
// simple percentage daily returns and returns their sample covariance.
//
// Instruments with no observation inside the window are excluded entirely.
// Duplicate rows for one instrument and day resolve to the last source row,
// the same tie-break the price join uses. Fewer than two usable return rows
// is ErrInsufficientHistory.
func (e CovarianceEstimator) Estimate(quotes []models.PriceQuote) (*CovarianceMatrix, error) {
	if len(quotes) == 0 {
		return nil, ErrInsufficientHistory
	}

	var maxDate time.Time
	for _, q := range quotes {
		if q.Date.After(maxDate) {
			maxDate = q.Date
		}
	}
	cutoff := maxDate.AddDate(0, 0, -e.LookbackDays)

	// Pivot: day -> instrument -> price.
	panel := make(map[string]map[models.InstrumentKey]float64)
	keySet := make(map[models.InstrumentKey]struct{})
	for _, q := range quotes {
		if q.Date.Before(cutoff) {
			continue
		}
		day := dateKey(q.Date)
		row, ok := panel[day]
		if !ok {
			row = make(map[models.InstrumentKey]float64)
			panel[day] = row
		}
		row[q.Key()] = q.MassQuote
		keySet[q.Key()] = struct{}{}
	}
	if len(keySet) == 0 {
		return nil, ErrInsufficientHistory
	}

	days := make([]string, 0, len(panel))
	for d := range panel {
		days = append(days, d)
	}
	sort.Strings(days)

	keys := make([]models.InstrumentKey, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	// Forward-fill each instrument column, then keep only complete rows.
	last := make(map[models.InstrumentKey]float64, len(keys))
	var complete [][]float64
	for _, day := range days {
		for k, v := range panel[day] {
			last[k] = v
		}
		if len(last) < len(keys) {
			continue // some instrument not yet observed in-window
		}
		row := make([]float64, len(keys))
		for i, k := range keys {
			row[i] = last[k]
		}
		complete = append(complete, row)
	}

	// Simple percentage daily returns; the first row has no predecessor. A
	// zero previous price leaves the return undefined, so the whole row is
	// dropped rather than letting a NaN flow into the covariance.
	var rows [][]float64
	for t := 1; t < len(complete); t++ {
		row := make([]float64, len(keys))
		defined := true
		for i := range keys {
			prev := complete[t-1][i]
			if prev == 0 {
				defined = false
				break
			}
			row[i] = complete[t][i]/prev - 1
		}
		if !defined {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) < 2 {
		return nil, ErrInsufficientHistory
	}
	returns := mat.NewDense(len(rows), len(keys), nil)
	for t, row := range rows {
		returns.SetRow(t, row)
	}

	sigma := mat.NewSymDense(len(keys), nil)
	stat.CovarianceMatrix(sigma, returns, nil)

	index := make(map[models.InstrumentKey]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	return &CovarianceMatrix{Keys: keys, Sigma: sigma, index: index}, nil
}
