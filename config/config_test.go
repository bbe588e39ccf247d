package config

import (
	"os"
	"strings"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for
// LoadConfig and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

const minimalConfig = `pipeline:
  name: "TestApp"
  version: "1.0"
storage:
  sqlite_path: "db/risk.sqlite"
  s3:
    enabled: false
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pipeline.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Pipeline.Name)
	}
	if cfg.Risk.Confidence != 0.99 {
		t.Errorf("expected default confidence 0.99, got %v", cfg.Risk.Confidence)
	}
	if cfg.Risk.LookbackDays != 365 {
		t.Errorf("expected default lookback 365, got %d", cfg.Risk.LookbackDays)
	}
	if cfg.Risk.OutlierZThreshold != 4.0 {
		t.Errorf("expected default outlier threshold 4.0, got %v", cfg.Risk.OutlierZThreshold)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	content := `pipeline:
  name: "TestApp"
  version: "1.0"
risk:
  confidence: 0.95
  lookback_days: 90
  horizon_days: 10
  breakdowns: ["Total", "METAL"]
units:
  volume:
    LB: 0.0004536
    MT: 1.0
storage:
  sqlite_path: "db/risk.sqlite"
`
	path := writeTempConfig(t, content)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Risk.Confidence != 0.95 {
		t.Errorf("unexpected confidence: %v", cfg.Risk.Confidence)
	}
	if cfg.Risk.HorizonDays != 10 {
		t.Errorf("unexpected horizon: %v", cfg.Risk.HorizonDays)
	}
	if got := cfg.Units.Volume["LB"]; got != 0.0004536 {
		t.Errorf("unexpected LB factor: %v", got)
	}
	if len(cfg.Risk.Breakdowns) != 2 || cfg.Risk.Breakdowns[1] != "METAL" {
		t.Errorf("unexpected breakdowns: %v", cfg.Risk.Breakdowns)
	}
}

func TestLoadConfigRejectsBadConfidence(t *testing.T) {
	for _, conf := range []string{"0", "1", "1.5", "-0.5"} {
		content := strings.Replace(minimalConfig, "storage:", "risk:\n  confidence: "+conf+"\nstorage:", 1)
		path := writeTempConfig(t, content)
		_, err := LoadConfig(path)
		os.Remove(path)
		if err == nil {
			t.Errorf("expected error for confidence %s", conf)
		}
	}
}

func TestLoadConfigRequiresSQLitePath(t *testing.T) {
	content := `pipeline:
  name: "TestApp"
  version: "1.0"
`
	path := writeTempConfig(t, content)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for missing sqlite path")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
