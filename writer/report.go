// Package writer exports finished risk reports as parquet files, locally
// and optionally to S3.
package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	parquetwriter "github.com/xitongsys/parquet-go/writer"

	appconfig "github.com/antoinejeanrenaud/RiskPipelineProject/config"
	"github.com/antoinejeanrenaud/RiskPipelineProject/logger"
	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

// ReportRecord is one row of the exported report file. The overall
// figures and every breakdown level share the same flat layout; the
// method column distinguishes parametric from historical rows.
type ReportRecord struct {
	RunID       string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	GeneratedAt int64   `parquet:"name=generated_at, type=INT64"`
	Dimension   string  `parquet:"name=dimension, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level       string  `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
	Method      string  `parquet:"name=method, type=BYTE_ARRAY, convertedtype=UTF8"`
	Confidence  float64 `parquet:"name=confidence, type=DOUBLE"`
	VaR         float64 `parquet:"name=var, type=DOUBLE"`
	Valid       bool    `parquet:"name=valid, type=BOOLEAN"`
	Cause       string  `parquet:"name=cause, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// memoryFileWriter implements ParquetFile for in-memory writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error)   { return mfw, nil }

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Write-only use; the parquet writer never seeks backwards here.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }
func (mfw *memoryFileWriter) Bytes() []byte               { return mfw.buffer.Bytes() }

// ReportWriter persists risk reports under the configured output
// directory and, when enabled, uploads them to S3.
type ReportWriter struct {
	config   *appconfig.Config
	s3Client *s3.Client
	log      *logger.Log
}

// NewReportWriter builds a writer from configuration. The S3 client is
// only constructed when storage.s3.enabled is set; local export never
// requires AWS credentials.
func NewReportWriter(ctx context.Context, cfg *appconfig.Config) (*ReportWriter, error) {
	log := logger.GetLogger()

	w := &ReportWriter{config: cfg, log: log}
	if !cfg.Storage.S3.Enabled {
		return w, nil
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("report_writer").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	w.s3Client = s3.NewFromConfig(awsConfig)
	log.WithComponent("report_writer").WithFields(logger.Fields{
		"bucket": cfg.Storage.S3.Bucket,
		"region": cfg.Storage.S3.Region,
	}).Info("report writer initialized with s3 upload")
	return w, nil
}

// Write exports the report. The local file always lands under the
// output directory; an S3 upload failure is returned but the local copy
// is already on disk by then.
func (w *ReportWriter) Write(ctx context.Context, report *models.RiskReport) (string, error) {
	log := w.log.WithComponent("report_writer").WithFields(logger.Fields{
		"run_id": report.RunID,
		"levels": len(report.Levels),
	})

	data, err := w.createParquetFile(report)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	if err := os.MkdirAll(w.config.Report.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := fmt.Sprintf("var_report_%s_%s.parquet",
		report.GeneratedAt.UTC().Format("20060102150405"), report.RunID)
	path := filepath.Join(w.config.Report.OutputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	log.WithFields(logger.Fields{"path": path, "file_size": len(data)}).Info("report written")

	if w.s3Client != nil {
		key := w.generateS3Key(report, filename)
		if err := w.uploadToS3(ctx, key, data); err != nil {
			log.WithError(err).
				WithEnv("S3_BUCKET").
				WithFields(logger.Fields{"bucket": w.config.Storage.S3.Bucket, "s3_key": key}).
				Error("failed to upload report to S3")
			return path, err
		}
		log.WithFields(logger.Fields{"s3_key": key}).Info("report uploaded to S3")
	}

	return path, nil
}

// flatten turns the structured report into export rows: one parametric
// and one historical row for the whole portfolio, then one parametric
// row per breakdown outcome including failed partitions.
func flatten(report *models.RiskReport) []ReportRecord {
	base := ReportRecord{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt.UnixMilli(),
		Confidence:  report.Confidence,
	}

	records := make([]ReportRecord, 0, len(report.Levels)+2)

	overall := base
	overall.Dimension = "Total"
	overall.Level = "Total"
	overall.Method = "parametric"
	overall.VaR = report.ParametricVaR.Value
	overall.Valid = report.ParametricVaR.Valid
	overall.Cause = report.ParametricVaR.Cause
	records = append(records, overall)

	historical := base
	historical.Dimension = "Total"
	historical.Level = "Total"
	historical.Method = "historical"
	historical.VaR = report.HistoricalVaR.Value
	historical.Valid = report.HistoricalVaR.Valid
	historical.Cause = report.HistoricalVaR.Cause
	records = append(records, historical)

	for _, level := range report.Levels {
		rec := base
		rec.Dimension = level.Dimension
		rec.Level = level.Level
		rec.Method = "parametric"
		rec.VaR = level.VaR
		rec.Valid = level.Valid
		rec.Cause = level.Cause
		records = append(records, rec)
	}
	return records
}

func (w *ReportWriter) createParquetFile(report *models.RiskReport) ([]byte, error) {
	fw := newMemoryFileWriter()
	pw, err := parquetwriter.NewParquetWriter(fw, new(ReportRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, record := range flatten(report) {
		if err := pw.Write(record); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write report record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize report file: %w", err)
	}
	return fw.Bytes(), nil
}

func (w *ReportWriter) generateS3Key(report *models.RiskReport, filename string) string {
	key := filepath.Join(
		w.config.Storage.S3.Prefix,
		fmt.Sprintf("date=%s", report.GeneratedAt.UTC().Format("2006-01-02")),
		filename,
	)
	return filepath.ToSlash(key)
}

func (w *ReportWriter) uploadToS3(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.config.Storage.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type": "parquet",
		},
	}
	_, err := w.s3Client.PutObject(context.WithoutCancel(ctx), input)
	if err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", w.config.Storage.S3.Bucket, err)
	}
	return nil
}
