package reader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/antoinejeanrenaud/RiskPipelineProject/config"
	"github.com/antoinejeanrenaud/RiskPipelineProject/logger"
)

// positionColumns are the required headers of a position file. The
// business line is not a column; it is stamped from the file entry.
var positionColumns = []string{
	"CONTRACTTYPE", "STRATEGY", "METAL", "EXCHANGE",
	"CURRENCY", "LONGSHORT", "MATURITY", "VOLUME", "UNIT",
}

// priceColumns are the required headers of the price history file.
var priceColumns = []string{
	"Price Date", "Maturity", "QuoteValue", "Metal", "Exchange", "Unit",
}

// Ingest rebuilds the snapshot tables from the configured CSV files.
// Each position file carries one business line; all of them land in a
// single raw_positions table stamped with that line. The load is
// all-or-nothing per run: tables are dropped and recreated first.
func (s *Store) Ingest(ctx context.Context, cfg config.IngestConfig) error {
	log := s.log.WithComponent("ingest")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS raw_positions`,
		`DROP TABLE IF EXISTS raw_prices`,
		`CREATE TABLE raw_positions (
			business_line TEXT, contract_type TEXT, strategy TEXT,
			metal TEXT, exchange TEXT, currency TEXT, long_short TEXT,
			maturity TEXT, volume TEXT, unit TEXT
		)`,
		`CREATE TABLE raw_prices (
			price_date TEXT, maturity TEXT, quote_value TEXT,
			metal TEXT, exchange TEXT, unit TEXT
		)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare snapshot tables: %w", err)
		}
	}

	insertPos, err := tx.PrepareContext(ctx, `
		INSERT INTO raw_positions (business_line, contract_type, strategy,
			metal, exchange, currency, long_short, maturity, volume, unit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare position insert: %w", err)
	}
	defer insertPos.Close()

	for _, file := range cfg.PositionFiles {
		n, err := s.ingestPositions(ctx, insertPos, file)
		if err != nil {
			return fmt.Errorf("ingest positions from %s: %w", file.Path, err)
		}
		logger.LogDataFlowEntry(log.WithFields(logger.Fields{"business_line": file.BusinessLine}),
			file.Path, "raw_positions", n, "positions")
	}

	insertPrice, err := tx.PrepareContext(ctx, `
		INSERT INTO raw_prices (price_date, maturity, quote_value, metal, exchange, unit)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare price insert: %w", err)
	}
	defer insertPrice.Close()

	n, err := s.ingestPrices(ctx, insertPrice, cfg.PricesFile)
	if err != nil {
		return fmt.Errorf("ingest prices from %s: %w", cfg.PricesFile, err)
	}
	logger.LogDataFlowEntry(log, cfg.PricesFile, "raw_prices", n, "prices")

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest transaction: %w", err)
	}
	return nil
}

func (s *Store) ingestPositions(ctx context.Context, insert *sql.Stmt, file config.PositionFile) (int, error) {
	records, index, err := readCSV(file.Path, positionColumns)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range records {
		_, err := insert.ExecContext(ctx,
			file.BusinessLine,
			rec[index["CONTRACTTYPE"]],
			rec[index["STRATEGY"]],
			rec[index["METAL"]],
			rec[index["EXCHANGE"]],
			rec[index["CURRENCY"]],
			rec[index["LONGSHORT"]],
			rec[index["MATURITY"]],
			rec[index["VOLUME"]],
			rec[index["UNIT"]],
		)
		if err != nil {
			return n, fmt.Errorf("insert position row: %w", err)
		}
		n++
	}
	return n, nil
}

func (s *Store) ingestPrices(ctx context.Context, insert *sql.Stmt, path string) (int, error) {
	records, index, err := readCSV(path, priceColumns)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range records {
		_, err := insert.ExecContext(ctx,
			rec[index["Price Date"]],
			rec[index["Maturity"]],
			rec[index["QuoteValue"]],
			rec[index["Metal"]],
			rec[index["Exchange"]],
			rec[index["Unit"]],
		)
		if err != nil {
			return n, fmt.Errorf("insert price row: %w", err)
		}
		n++
	}
	return n, nil
}

// readCSV reads a headed CSV file and returns its data records plus a
// header index covering the required columns. Header matching is
// case-sensitive but whitespace-tolerant.
func readCSV(path string, required []string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("csv is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("csv missing required column %q", col)
		}
	}
	return rows[1:], index, nil
}
