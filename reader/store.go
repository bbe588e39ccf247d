// Package reader loads position and price snapshots for the risk engine.
// It owns the type-coercion boundary: raw ingested rows are parsed into
// typed records exactly once here, and the engine never sees raw text or
// column names again.
package reader

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/antoinejeanrenaud/RiskPipelineProject/logger"
	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// dateLayout is the day-first calendar date format used by the source
// files, e.g. "15/10/2024".
const dateLayout = "02/01/2006"

// Store is the sqlite-backed snapshot store holding the raw_positions and
// raw_prices tables produced by ingestion.
type Store struct {
	db  *sql.DB
	log *logger.Log
}

// OpenStore opens (or creates) the sqlite database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Store{db: db, log: logger.GetLogger()}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadPositions reads the raw position rows and coerces them into typed
// records: the maturity date becomes the fixed month-year label, volumes
// lose their thousands separators and the remaining columns are trimmed.
func (s *Store) LoadPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT business_line, contract_type, strategy, metal, exchange,
		       currency, long_short, maturity, volume, unit
		FROM raw_positions`)
	if err != nil {
		return nil, fmt.Errorf("query raw_positions: %w", err)
	}
	defer rows.Close()

	log := s.log.WithComponent("store")
	var positions []models.Position
	for rows.Next() {
		var businessLine, contractType, strategy, metal, exchange string
		var currency, longShort, maturity, volume, unit string
		if err := rows.Scan(&businessLine, &contractType, &strategy, &metal, &exchange,
			&currency, &longShort, &maturity, &volume, &unit); err != nil {
			return nil, fmt.Errorf("scan raw_positions row: %w", err)
		}

		maturityDate, err := parseDate(maturity)
		if err != nil {
			log.WithFields(logger.Fields{"maturity": maturity}).Warn("dropping position with unparseable maturity")
			continue
		}
		vol, err := parseNumber(volume)
		if err != nil {
			log.WithFields(logger.Fields{"volume": volume}).Warn("dropping position with unparseable volume")
			continue
		}

		positions = append(positions, models.Position{
			Metal:        strings.TrimSpace(metal),
			Maturity:     models.MaturityLabel(maturityDate),
			Exchange:     strings.TrimSpace(exchange),
			ContractType: strings.TrimSpace(contractType),
			BusinessLine: strings.TrimSpace(businessLine),
			Strategy:     strings.TrimSpace(strategy),
			Currency:     strings.TrimSpace(currency),
			LongShort:    strings.TrimSpace(longShort),
			Volume:       vol,
			Unit:         strings.TrimSpace(unit),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw_positions: %w", err)
	}

	log.WithFields(logger.Fields{"rows": len(positions)}).Info("loaded position snapshot")
	return positions, nil
}

// LoadPrices reads the raw price rows into typed quotes. Rows with an
// unparseable quote date are dropped; they cannot be grouped or joined.
func (s *Store) LoadPrices(ctx context.Context) ([]models.PriceQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT price_date, maturity, quote_value, metal, exchange, unit
		FROM raw_prices`)
	if err != nil {
		return nil, fmt.Errorf("query raw_prices: %w", err)
	}
	defer rows.Close()

	log := s.log.WithComponent("store")
	var quotes []models.PriceQuote
	for rows.Next() {
		var priceDate, maturity, quoteValue, metal, exchange, unit string
		if err := rows.Scan(&priceDate, &maturity, &quoteValue, &metal, &exchange, &unit); err != nil {
			return nil, fmt.Errorf("scan raw_prices row: %w", err)
		}

		date, err := parseDate(priceDate)
		if err != nil {
			log.WithFields(logger.Fields{"price_date": priceDate}).Warn("dropping quote with unparseable date")
			continue
		}
		maturityDate, err := parseDate(maturity)
		if err != nil {
			log.WithFields(logger.Fields{"maturity": maturity}).Warn("dropping quote with unparseable maturity")
			continue
		}
		value, err := parseNumber(quoteValue)
		if err != nil {
			log.WithFields(logger.Fields{"quote_value": quoteValue}).Warn("dropping quote with unparseable value")
			continue
		}

		quotes = append(quotes, models.PriceQuote{
			Metal:    strings.TrimSpace(metal),
			Maturity: models.MaturityLabel(maturityDate),
			Exchange: strings.TrimSpace(exchange),
			Date:     date,
			Value:    value,
			Unit:     strings.TrimSpace(unit),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw_prices: %w", err)
	}

	log.WithFields(logger.Fields{"rows": len(quotes)}).Info("loaded price history")
	return quotes, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// parseNumber strips thousands separators before parsing, matching the
// formatting of the source spreadsheets.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
}
