package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Risk     RiskConfig     `yaml:"risk"`
	Units    UnitsConfig    `yaml:"units"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Storage  StorageConfig  `yaml:"storage"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type PipelineConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type RiskConfig struct {
	Confidence        float64  `yaml:"confidence"`
	LookbackDays      int      `yaml:"lookback_days"`
	HorizonDays       float64  `yaml:"horizon_days"`
	Breakdowns        []string `yaml:"breakdowns"`
	OutlierZThreshold float64  `yaml:"outlier_z_threshold"`
}

// UnitsConfig declares the closed unit conversion tables toward metric
// tons. Empty tables fall back to the engine defaults (LB/MT volumes,
// USD/LB and USD/MT quotes).
type UnitsConfig struct {
	Volume map[string]float64 `yaml:"volume"`
	Quote  map[string]float64 `yaml:"quote"`
}

type IngestConfig struct {
	PositionFiles []PositionFile `yaml:"position_files"`
	PricesFile    string         `yaml:"prices_file"`
}

// PositionFile is one per-desk position CSV; rows are stamped with the
// business line on ingestion.
type PositionFile struct {
	BusinessLine string `yaml:"business_line"`
	Path         string `yaml:"path"`
}

type StorageConfig struct {
	SQLitePath string   `yaml:"sqlite_path"`
	S3         S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	DashboardName string `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Risk: RiskConfig{
			Confidence:        0.99,
			LookbackDays:      365,
			HorizonDays:       1,
			Breakdowns:        []string{"Total", "BUSINESS LINE"},
			OutlierZThreshold: 4.0,
		},
		Report: ReportConfig{OutputDir: "reports"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Pipeline.Name == "" {
		return fmt.Errorf("pipeline.name is required")
	}

	if cfg.Pipeline.Version == "" {
		return fmt.Errorf("pipeline.version is required")
	}

	// A confidence level outside (0,1) is malformed input, not a
	// data-quality condition: fail hard here, before any computation.
	if cfg.Risk.Confidence <= 0 || cfg.Risk.Confidence >= 1 {
		return fmt.Errorf("risk.confidence must be strictly between 0 and 1, got %v", cfg.Risk.Confidence)
	}

	if cfg.Risk.LookbackDays <= 0 {
		return fmt.Errorf("risk.lookback_days must be greater than 0")
	}
	if cfg.Risk.HorizonDays <= 0 {
		return fmt.Errorf("risk.horizon_days must be greater than 0")
	}
	if cfg.Risk.OutlierZThreshold <= 0 {
		return fmt.Errorf("risk.outlier_z_threshold must be greater than 0")
	}
	if len(cfg.Risk.Breakdowns) == 0 {
		return fmt.Errorf("risk.breakdowns must name at least one dimension")
	}

	for unit, factor := range cfg.Units.Volume {
		if factor <= 0 {
			return fmt.Errorf("units.volume[%s] must be greater than 0", unit)
		}
	}
	for unit, factor := range cfg.Units.Quote {
		if factor <= 0 {
			return fmt.Errorf("units.quote[%s] must be greater than 0", unit)
		}
	}

	if cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
