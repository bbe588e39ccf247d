package risk

import (
	"math"
	"testing"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

func TestNormalizePositionPounds(t *testing.T) {
	n := NewUnitNormalizer(nil, nil)
	p := n.NormalizePosition(models.Position{
		Metal: "COPPER", Maturity: "Oct-2024", Exchange: "LME",
		LongShort: "L", Volume: 1000, Unit: "LB",
	})
	if math.Abs(p.MassVolume-0.4536) > 1e-12 {
		t.Errorf("expected mass volume 0.4536, got %v", p.MassVolume)
	}
	if p.SignedVolume != p.MassVolume {
		t.Errorf("long position should keep positive sign, got %v", p.SignedVolume)
	}
}

func TestNormalizePositionShortSign(t *testing.T) {
	n := NewUnitNormalizer(nil, nil)
	for _, tag := range []string{"S", "Short", ""} {
		p := n.NormalizePosition(models.Position{LongShort: tag, Volume: 10, Unit: "MT"})
		if p.SignedVolume != -10 {
			t.Errorf("tag %q: expected signed volume -10, got %v", tag, p.SignedVolume)
		}
	}
}

func TestNormalizeQuoteDivides(t *testing.T) {
	n := NewUnitNormalizer(nil, nil)
	q := n.NormalizeQuote(models.PriceQuote{Value: 4.5, Unit: "USD/LB"})
	want := 4.5 / 0.0004536
	if math.Abs(q.MassQuote-want) > 1e-9 {
		t.Errorf("expected mass quote %v, got %v", want, q.MassQuote)
	}

	q = n.NormalizeQuote(models.PriceQuote{Value: 9000, Unit: "USD/MT"})
	if q.MassQuote != 9000 {
		t.Errorf("USD/MT quote should be unchanged, got %v", q.MassQuote)
	}
}

// A pound-denominated position valued at a pound-denominated quote must
// produce the same monetary value as the raw volume times the raw price.
func TestVolumeQuoteUnitsCancel(t *testing.T) {
	n := NewUnitNormalizer(nil, nil)
	p := n.NormalizePosition(models.Position{LongShort: "L", Volume: 2500, Unit: "LB"})
	q := n.NormalizeQuote(models.PriceQuote{Value: 4.2, Unit: "USD/LB"})

	got := p.MassVolume * q.MassQuote
	want := 2500 * 4.2
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("expected value %v, got %v", want, got)
	}
}

func TestUnrecognizedUnitsRecorded(t *testing.T) {
	n := NewUnitNormalizer(nil, nil)

	p := n.NormalizePosition(models.Position{LongShort: "L", Volume: 7, Unit: "KG"})
	if p.MassVolume != 7 {
		t.Errorf("unknown unit should pass through with factor 1, got %v", p.MassVolume)
	}
	q := n.NormalizeQuote(models.PriceQuote{Value: 3, Unit: "EUR/MT"})
	if q.MassQuote != 3 {
		t.Errorf("unknown quote unit should pass through with factor 1, got %v", q.MassQuote)
	}

	got := n.UnrecognizedUnits()
	if len(got) != 2 || got[0] != "EUR/MT" || got[1] != "KG" {
		t.Errorf("expected sorted unrecognized units [EUR/MT KG], got %v", got)
	}
}

func TestUnrecognizedUnitsEmptyForKnownTags(t *testing.T) {
	n := NewUnitNormalizer(nil, nil)
	n.NormalizePosition(models.Position{LongShort: "L", Volume: 1, Unit: "MT"})
	n.NormalizeQuote(models.PriceQuote{Value: 1, Unit: "USD/MT"})
	if got := n.UnrecognizedUnits(); len(got) != 0 {
		t.Errorf("expected no unrecognized units, got %v", got)
	}
}
