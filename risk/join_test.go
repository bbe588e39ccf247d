package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/antoinejeanrenaud/RiskPipelineProject/models"
)

func day(d int) time.Time {
	return time.Date(2024, 10, d, 0, 0, 0, 0, time.UTC)
}

func quote(metal, maturity string, date time.Time, massQuote float64) models.PriceQuote {
	return models.PriceQuote{
		Metal: metal, Maturity: maturity, Exchange: "LME",
		Date: date, MassQuote: massQuote,
	}
}

func position(metal, maturity string, signedVolume float64) models.Position {
	return models.Position{
		Metal: metal, Maturity: maturity, Exchange: "LME",
		LongShort: "L", SignedVolume: signedVolume, MassVolume: signedVolume,
	}
}

func TestLatestQuotesPicksMostRecent(t *testing.T) {
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(3), 9300),
		quote("COPPER", "Oct-2024", day(1), 9000),
		quote("COPPER", "Oct-2024", day(2), 9100),
	}
	latest := LatestQuotes(quotes)
	q, ok := latest[quotes[0].Key()]
	if !ok {
		t.Fatal("expected a latest quote for the instrument")
	}
	if q.MassQuote != 9300 {
		t.Errorf("expected most recent quote 9300, got %v", q.MassQuote)
	}
}

func TestLatestQuotesTieBreaksOnSourceOrder(t *testing.T) {
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(2), 9100),
		quote("COPPER", "Oct-2024", day(2), 9150),
	}
	latest := LatestQuotes(quotes)
	if q := latest[quotes[0].Key()]; q.MassQuote != 9150 {
		t.Errorf("equal dates should resolve to the later source row, got %v", q.MassQuote)
	}
}

func TestJoinOnExactDay(t *testing.T) {
	positions := []models.Position{
		position("COPPER", "Oct-2024", 10),
		position("ZINC", "Nov-2024", -5),
	}
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 9000),
		quote("COPPER", "Oct-2024", day(2), 9100),
		quote("ZINC", "Nov-2024", day(1), 2500),
	}

	priced := JoinOn(positions, quotes, day(2))
	if !priced[0].HasQuote || priced[0].MassQuote != 9100 {
		t.Errorf("copper should match the day-2 quote, got %+v", priced[0])
	}
	if priced[1].HasQuote {
		t.Errorf("zinc has no day-2 quote and must stay unpriced, got %+v", priced[1])
	}
}

func TestJoinLatestLeavesUnmatchedUnpriced(t *testing.T) {
	positions := []models.Position{
		position("COPPER", "Oct-2024", 10),
		position("NICKEL", "Dec-2024", 3),
	}
	quotes := []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 9000),
	}

	priced := JoinLatest(positions, quotes)
	if !priced[0].HasQuote {
		t.Error("copper should be priced")
	}
	if priced[1].HasQuote || priced[1].MassQuote != 0 {
		t.Errorf("nickel must be unpriced with no fabricated price, got %+v", priced[1])
	}
}

func TestUnpricedDeduplicatesByInstrument(t *testing.T) {
	positions := []models.Position{
		position("NICKEL", "Dec-2024", 3),
		position("NICKEL", "Dec-2024", 7),
		position("COPPER", "Oct-2024", 10),
	}
	priced := JoinLatest(positions, []models.PriceQuote{
		quote("COPPER", "Oct-2024", day(1), 9000),
	})

	missing := Unpriced(priced)
	if len(missing) != 1 {
		t.Fatalf("expected one missing-quote condition per instrument, got %d", len(missing))
	}
	if !errors.Is(missing[0], ErrMissingMarketData) {
		t.Error("missing quote should unwrap to the missing market data condition")
	}
	if missing[0].Key.Metal != "NICKEL" {
		t.Errorf("expected the nickel instrument, got %s", missing[0].Key)
	}
}
