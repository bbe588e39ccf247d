package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/antoinejeanrenaud/RiskPipelineProject/config"
	"github.com/antoinejeanrenaud/RiskPipelineProject/logger"
	"github.com/antoinejeanrenaud/RiskPipelineProject/reader"
	"github.com/antoinejeanrenaud/RiskPipelineProject/risk"
	"github.com/antoinejeanrenaud/RiskPipelineProject/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	ingest := flag.Bool("ingest", false, "Rebuild the snapshot store from the configured CSV files before the run")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Pipeline.Name,
		"version": cfg.Pipeline.Version,
	}).Info("starting risk pipeline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Storage.S3.Enabled && cfg.Storage.S3.Region != "" {
		logger.InitCloudWatch(cfg.Storage.S3.Region, "RiskPipeline", cfg.Logging.DashboardName)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	store, err := reader.OpenStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.WithError(err).Error("Failed to open snapshot store")
		os.Exit(1)
	}
	defer store.Close()

	if *ingest {
		started := time.Now()
		if err := store.Ingest(ctx, cfg.Ingest); err != nil {
			log.WithError(err).Error("Failed to ingest source files")
			os.Exit(1)
		}
		logger.LogPerformanceEntry(log.WithComponent("main"), "ingest", "rebuild_snapshots",
			time.Since(started), nil)
	}

	positions, err := store.LoadPositions(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load positions")
		os.Exit(1)
	}
	quotes, err := store.LoadPrices(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load price history")
		os.Exit(1)
	}

	engine := risk.NewEngine(cfg)
	report := engine.Run(positions, quotes)

	reportWriter, err := writer.NewReportWriter(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to create report writer")
		os.Exit(1)
	}
	path, err := reportWriter.Write(ctx, report)
	if err != nil {
		log.WithError(err).Error("Failed to export report")
		os.Exit(1)
	}

	summary := log.WithComponent("main").WithFields(logger.Fields{
		"run_id":             report.RunID,
		"report_path":        path,
		"levels":             len(report.Levels),
		"outliers":           report.OutlierCount,
		"unpriced_positions": report.UnpricedPositions,
	})
	if report.ParametricVaR.Valid {
		summary = summary.WithFields(logger.Fields{"parametric_var": report.ParametricVaR.Value})
	} else {
		summary = summary.WithFields(logger.Fields{"parametric_cause": report.ParametricVaR.Cause})
	}
	if report.HistoricalVaR.Valid {
		summary = summary.WithFields(logger.Fields{"historical_var": report.HistoricalVaR.Value})
	} else {
		summary = summary.WithFields(logger.Fields{"historical_cause": report.HistoricalVaR.Cause})
	}
	if len(report.UnrecognizedUnits) > 0 {
		summary = summary.WithFields(logger.Fields{"unrecognized_units": report.UnrecognizedUnits})
	}
	summary.Info("risk pipeline completed")
}
