package marketdata

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"stratalpha/internal/timeseries"
	"stratalpha/internal/valuation"
)

// SyntheticSeries builds a deterministic business-day price path for a
// ticker: a gentle upward drift with a seasonal swing and seeded noise.
// The same (ticker, start, end) always produces the same series, which
// keeps fallback-driven analysis reproducible.
func SyntheticSeries(ticker string, start, end time.Time) *timeseries.PriceSeries {
	days := businessDays(start, end)
	if len(days) < 2 {
		// Degenerate window: synthesize a standard trading year ending at
		// the requested end date.
		days = businessDays(end.AddDate(-1, 0, 0), end)
	}

	rng := rand.New(rand.NewSource(int64(tickerSeed(ticker))))
	n := len(days)
	points := make([]timeseries.PricePoint, n)
	for i, d := range days {
		progress := float64(i) / float64(n-1)
		base := 100.0 + 50.0*progress
		seasonal := 2.0 * math.Sin(progress*math.Pi)
		noise := rng.NormFloat64() * 0.5
		points[i] = timeseries.PricePoint{Date: d, Close: base + seasonal + noise}
	}
	return &timeseries.PriceSeries{Ticker: ticker, Points: points}
}

// SyntheticSnapshot derives deterministic fundamentals for a ticker when no
// live source is available. Values are scaled off the ticker seed so peers
// differ from each other but never between runs.
func SyntheticSnapshot(ticker string, lastPrice float64) valuation.FinancialSnapshot {
	seed := tickerSeed(ticker)
	scale := 1.0 + float64(seed%1000)/1000.0 // 1.0 .. 2.0

	shares := 1_000_000_000 * scale
	revenue := 30_000_000_000 * scale
	ebitda := revenue * 0.35
	eps := revenue * 0.20 / shares

	return valuation.FinancialSnapshot{
		Ticker:            ticker,
		FreeCashFlow:      revenue * 0.15,
		NetDebt:           revenue * 0.05,
		SharesOutstanding: shares,
		MarketCap:         lastPrice * shares,
		Price:             lastPrice,
		EPS:               eps,
		EBITDA:            ebitda,
		Revenue:           revenue,
	}
}

func tickerSeed(ticker string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	return h.Sum64()
}

func businessDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d.UTC().Truncate(24*time.Hour))
	}
	return days
}
