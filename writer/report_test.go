package writer

import (
	"context"
	"os"
	"testing"
	"time"

	appconfig "github.com/antoinejeanrenaud/RiskPipelineProject/config"
	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

func sampleReport() *models.RiskReport {
	return &models.RiskReport{
		RunID:         "run-1",
		GeneratedAt:   time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC),
		Confidence:    0.99,
		LookbackDays:  365,
		HorizonDays:   1,
		ParametricVaR: models.Metric{Value: 12345.6, Valid: true},
		HistoricalVaR: models.Metric{Valid: false, Cause: "insufficient price history"},
		Levels: []models.LevelResult{
			{Dimension: "BUSINESS LINE", Level: "Prop", VaR: 4567.8, Valid: true},
			{Dimension: "BUSINESS LINE", Level: "Copper", Valid: false, Cause: "portfolio has zero gross exposure"},
		},
	}
}

func TestFlatten(t *testing.T) {
	records := flatten(sampleReport())
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if records[0].Method != "parametric" || records[0].Level != "Total" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Method != "historical" || records[1].Valid {
		t.Errorf("unexpected historical record: %+v", records[1])
	}
	if records[1].Cause != "insufficient price history" {
		t.Errorf("expected cause on invalid historical record, got %q", records[1].Cause)
	}
	if records[2].Level != "Prop" || records[2].VaR != 4567.8 {
		t.Errorf("unexpected level record: %+v", records[2])
	}
	if records[3].Valid {
		t.Errorf("failed partition should stay invalid: %+v", records[3])
	}
	for _, rec := range records {
		if rec.RunID != "run-1" || rec.Confidence != 0.99 {
			t.Errorf("record missing run metadata: %+v", rec)
		}
	}
}

func TestWriteLocalReport(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Report.OutputDir = t.TempDir()

	w, err := NewReportWriter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to build writer: %v", err)
	}
	path, err := w.Write(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("report file is empty")
	}
}
