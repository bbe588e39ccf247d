package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

func TestEstimateSingleInstrumentVariance(t *testing.T) {
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 100),
		quote("COPPER", "Oct-2024", day(2), 110),
		quote("COPPER", "Oct-2024", day(3), 99),
	}
	cov, err := CovarianceEstimator{LookbackDays: 365}.Estimate(quotes)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if cov.Dim() != 1 {
		t.Fatalf("expected 1 instrument, got %d", cov.Dim())
	}
	// Returns are +10% and -10%, so the sample variance is 0.02.
	if got := cov.Sigma.At(0, 0); math.Abs(got-0.02) > 1e-12 {
		t.Errorf("expected variance 0.02, got %v", got)
	}
}

func TestEstimateSymmetricAndIndexed(t *testing.T) {
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 100),
		quote("COPPER", "Oct-2024", day(2), 105),
		quote("COPPER", "Oct-2024", day(3), 103),
		quote("ZINC", "Nov-2024", day(1), 50),
		quote("ZINC", "Nov-2024", day(2), 49),
		quote("ZINC", "Nov-2024", day(3), 52),
	}
	cov, err := CovarianceEstimator{LookbackDays: 365}.Estimate(quotes)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if cov.Dim() != 2 {
		t.Fatalf("expected 2 instruments, got %d", cov.Dim())
	}
	for i := 0; i < cov.Dim(); i++ {
		if cov.Sigma.At(i, i) < 0 {
			t.Errorf("diagonal entry %d is negative: %v", i, cov.Sigma.At(i, i))
		}
		for j := 0; j < cov.Dim(); j++ {
			if cov.Sigma.At(i, j) != cov.Sigma.At(j, i) {
				t.Errorf("matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
	for _, k := range cov.Keys {
		if _, ok := cov.Index(k); !ok {
			t.Errorf("key %s missing from index", k)
		}
	}
}

func TestEstimateForwardFillsGaps(t *testing.T) {
	// Zinc has no day-2 observation; the day-1 price carries forward and
	// the day-2 row stays usable.
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 100),
		quote("COPPER", "Oct-2024", day(2), 110),
		quote("COPPER", "Oct-2024", day(3), 105),
		quote("ZINC", "Nov-2024", day(1), 50),
		quote("ZINC", "Nov-2024", day(3), 55),
	}
	cov, err := CovarianceEstimator{LookbackDays: 365}.Estimate(quotes)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if cov.Dim() != 2 {
		t.Fatalf("expected both instruments kept, got %d", cov.Dim())
	}
}

func TestEstimateDropsRowsBeforeFirstObservation(t *testing.T) {
	// Zinc only starts quoting on day 3: days 1-2 cannot be filled and are
	// dropped, leaving a single return row, which is not enough.
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 100),
		quote("COPPER", "Oct-2024", day(2), 101),
		quote("COPPER", "Oct-2024", day(3), 102),
		quote("COPPER", "Oct-2024", day(4), 103),
		quote("ZINC", "Nov-2024", day(3), 50),
		quote("ZINC", "Nov-2024", day(4), 51),
	}
	_, err := CovarianceEstimator{LookbackDays: 365}.Estimate(quotes)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected insufficient history, got %v", err)
	}
}

func TestEstimateLookbackExcludesOldQuotes(t *testing.T) {
	quotes := []models.PriceQuote{
		// Inside the window, anchored to the max date.
		quote("COPPER", "Oct-2024", day(25), 100),
		quote("COPPER", "Oct-2024", day(26), 101),
		quote("COPPER", "Oct-2024", day(27), 103),
		// Nickel quotes only before the cutoff.
		quote("NICKEL", "Dec-2024", day(1), 17000),
		quote("NICKEL", "Dec-2024", day(2), 17100),
	}
	cov, err := CovarianceEstimator{LookbackDays: 5}.Estimate(quotes)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if cov.Dim() != 1 || cov.Keys[0].Metal != "COPPER" {
		t.Errorf("expected only copper inside the window, got %v", cov.Keys)
	}
}

func TestEstimateDropsZeroPriceReturnRows(t *testing.T) {
	// The return following a zero price is undefined; that row is dropped
	// and the rest of the sample stays usable with no NaN in the matrix.
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 100),
		quote("COPPER", "Oct-2024", day(2), 0),
		quote("COPPER", "Oct-2024", day(3), 100),
		quote("COPPER", "Oct-2024", day(4), 110),
		quote("COPPER", "Oct-2024", day(5), 99),
	}
	cov, err := CovarianceEstimator{LookbackDays: 365}.Estimate(quotes)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if got := cov.Sigma.At(0, 0); math.IsNaN(got) {
		t.Fatal("zero price leaked a NaN into the covariance")
	}
}

func TestEstimateAllZeroPricesInsufficient(t *testing.T) {
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 0),
		quote("COPPER", "Oct-2024", day(2), 0),
		quote("COPPER", "Oct-2024", day(3), 0),
		quote("COPPER", "Oct-2024", day(4), 0),
	}
	_, err := CovarianceEstimator{LookbackDays: 365}.Estimate(quotes)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected insufficient history once every return row is dropped, got %v", err)
	}
}

func TestEstimateInsufficientHistory(t *testing.T) {
	for name, quotes := range map[string][]models.PriceQuote{
		"empty":      nil,
		"single day": {quote("COPPER", "Oct-2024", day(1), 100)},
		"two days": {
			quote("COPPER", "Oct-2024", day(1), 100),
			quote("COPPER", "Oct-2024", day(2), 101),
		},
	} {
		_, err := CovarianceEstimator{LookbackDays: 365}.Estimate(quotes)
		if !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("%s: expected insufficient history, got %v", name, err)
		}
	}
}
