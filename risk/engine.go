package risk

import (
	"time"

	"github.com/google/uuid"

	appconfig "github.com/antoinejeanrenaud/RiskPipelineProject/config"
	"github.com/antoinejeanrenaud/RiskPipelineProject/logger"
	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// Engine wires the risk components into a single valuation run over a
// position snapshot and a price history panel. A run is a pure function of
// its inputs; given the deterministic join tie-breaks the output is
// reproducible.
type Engine struct {
	cfg   *appconfig.Config
	units *UnitNormalizer
	log   *logger.Log
}

// NewEngine builds an engine from validated configuration.
func NewEngine(cfg *appconfig.Config) *Engine {
	return &Engine{
		cfg:   cfg,
		units: NewUnitNormalizer(UnitTable(cfg.Units.Volume), UnitTable(cfg.Units.Quote)),
		log:   logger.GetLogger(),
	}
}

// parametricPipeline runs join -> weights -> covariance -> VaR for one
// position set against its price panel, scaled to the configured horizon.
// The panel is first restricted to the instruments the position set holds:
// an unheld instrument must not enter the covariance pivot, where its
// sparse dates would shrink the usable sample.
func (e *Engine) parametricPipeline(positions []models.Position, quotes []models.PriceQuote) (float64, error) {
	quotes = filterQuotes(quotes, positions)
	priced := JoinLatest(positions, quotes)

	weights, err := ComputeWeights(priced)
	if err != nil {
		return 0, err
	}

	cov, err := CovarianceEstimator{LookbackDays: e.cfg.Risk.LookbackDays}.Estimate(quotes)
	if err != nil {
		return 0, err
	}

	z := ZScore(e.cfg.Risk.Confidence)
	oneDay := ParametricVaR(weights, cov, z, PortfolioValue(priced))
	return ScaleHorizon(oneDay, e.cfg.Risk.HorizonDays), nil
}

// Run executes a full valuation: unit normalization, the outlier gate,
// total parametric and historical VaR, and the per-dimension breakdown.
// Expected data-quality conditions land in the report as invalid metrics
// with a cause; they never abort the run.
func (e *Engine) Run(positions []models.Position, quotes []models.PriceQuote) *models.RiskReport {
	start := time.Now()
	log := e.log.WithComponent("engine")

	positions = e.units.NormalizePositions(positions)
	quotes = e.units.NormalizeQuotes(quotes)

	report := &models.RiskReport{
		RunID:        uuid.New().String(),
		GeneratedAt:  start,
		Confidence:   e.cfg.Risk.Confidence,
		LookbackDays: e.cfg.Risk.LookbackDays,
		HorizonDays:  e.cfg.Risk.HorizonDays,
		VaRByLevel:   make(map[string]map[string]float64),
	}

	log.WithFields(logger.Fields{
		"run_id":    report.RunID,
		"positions": len(positions),
		"quotes":    len(quotes),
	}).Info("starting valuation run")

	outliers := OutlierDetector{Threshold: e.cfg.Risk.OutlierZThreshold}.Detect(quotes)
	report.OutlierCount = outliers.Count

	priced := JoinLatest(positions, quotes)
	for _, pp := range priced {
		if !pp.HasQuote {
			report.UnpricedPositions++
		}
	}
	for _, m := range Unpriced(priced) {
		log.WithFields(logger.Fields{"instrument": m.Key.String()}).Warn("position has no market quote")
	}

	if v, err := e.parametricPipeline(positions, quotes); err != nil {
		report.ParametricVaR = models.Metric{Cause: err.Error()}
		log.WithError(err).Warn("parametric VaR not computable for total book")
	} else {
		report.ParametricVaR = models.Metric{Value: v, Valid: true}
	}

	// The series window anchors on the panel's max date, so the panel is
	// restricted to held instruments here too.
	series := Reconstructor{LookbackDays: e.cfg.Risk.LookbackDays}.Series(positions, filterQuotes(quotes, positions))
	if v, err := HistoricalVaR(series, e.cfg.Risk.Confidence); err != nil {
		report.HistoricalVaR = models.Metric{Cause: err.Error()}
		log.WithError(err).Warn("historical VaR not computable for total book")
	} else {
		report.HistoricalVaR = models.Metric{Value: v, Valid: true}
	}

	agg := NewAggregator(e.cfg.Risk.Breakdowns, e.parametricPipeline)
	for _, o := range agg.Run(positions, quotes) {
		lr := models.LevelResult{Dimension: o.Dimension, Level: o.Level, VaR: o.VaR, Valid: o.Err == nil}
		if o.Err != nil {
			lr.Cause = o.Err.Error()
		} else {
			byLevel, ok := report.VaRByLevel[o.Dimension]
			if !ok {
				byLevel = make(map[string]float64)
				report.VaRByLevel[o.Dimension] = byLevel
			}
			byLevel[o.Level] = o.VaR
		}
		report.Levels = append(report.Levels, lr)
	}

	report.UnrecognizedUnits = e.units.UnrecognizedUnits()

	logger.LogPerformanceEntry(log, "engine", "valuation_run", time.Since(start), logger.Fields{
		"run_id":        report.RunID,
		"levels":        len(report.Levels),
		"outlier_count": report.OutlierCount,
	})
	return report
}
