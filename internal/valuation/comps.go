package valuation

import (
	"math"

	apperrors "stratalpha/internal/errors"
)

// Multiples holds the trailing valuation multiples for one company. A
// multiple that cannot be computed (zero or negative denominator) is NaN
// and is excluded from percentile ranking.
type Multiples struct {
	PE       float64 `json:"pe"`
	EVEBITDA float64 `json:"ev_ebitda"`
	PS       float64 `json:"ps"`
}

// PeerMultiples pairs a peer ticker with its multiples, preserving the
// caller's peer ordering for stable CSV export.
type PeerMultiples struct {
	Ticker    string    `json:"ticker"`
	Multiples Multiples `json:"multiples"`
}

// PercentileRanks holds the target's percentile rank per metric against the
// peer distribution, each in [0,100].
type PercentileRanks struct {
	PE       float64 `json:"pe"`
	EVEBITDA float64 `json:"ev_ebitda"`
	PS       float64 `json:"ps"`
}

// CompsTable is the peer multiple comparison output.
type CompsTable struct {
	Target      string          `json:"target"`
	TargetRatio Multiples       `json:"target_multiples"`
	Peers       []PeerMultiples `json:"peers"`
	Percentiles PercentileRanks `json:"percentiles"`
}

// multiplesFor derives trailing P/E, EV/EBITDA, and P/S from a snapshot.
func multiplesFor(s FinancialSnapshot) Multiples {
	m := Multiples{PE: math.NaN(), EVEBITDA: math.NaN(), PS: math.NaN()}

	if s.EPS > 0 {
		m.PE = s.Price / s.EPS
	}
	ev := s.MarketCap + s.NetDebt
	if s.EBITDA > 0 {
		m.EVEBITDA = ev / s.EBITDA
	}
	if s.Revenue > 0 {
		m.PS = s.MarketCap / s.Revenue
	}
	return m
}

// Comps builds the peer comparison table: trailing multiples per peer and
// the target's percentile rank per metric. The rank is the fraction of
// peers with a metric at or below the target's, times 100.
func Comps(target FinancialSnapshot, peers []FinancialSnapshot) (*CompsTable, error) {
	if target.Ticker == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "target ticker is required")
	}
	if len(peers) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "at least one peer is required")
	}

	table := &CompsTable{
		Target:      target.Ticker,
		TargetRatio: multiplesFor(target),
		Peers:       make([]PeerMultiples, 0, len(peers)),
	}
	for _, p := range peers {
		table.Peers = append(table.Peers, PeerMultiples{Ticker: p.Ticker, Multiples: multiplesFor(p)})
	}

	table.Percentiles = PercentileRanks{
		PE:       percentileRank(table.TargetRatio.PE, table.Peers, func(m Multiples) float64 { return m.PE }),
		EVEBITDA: percentileRank(table.TargetRatio.EVEBITDA, table.Peers, func(m Multiples) float64 { return m.EVEBITDA }),
		PS:       percentileRank(table.TargetRatio.PS, table.Peers, func(m Multiples) float64 { return m.PS }),
	}
	return table, nil
}

func percentileRank(target float64, peers []PeerMultiples, metric func(Multiples) float64) float64 {
	if math.IsNaN(target) {
		return math.NaN()
	}
	var atOrBelow, valid int
	for _, p := range peers {
		v := metric(p.Multiples)
		if math.IsNaN(v) {
			continue
		}
		valid++
		if v <= target {
			atOrBelow++
		}
	}
	if valid == 0 {
		return math.NaN()
	}
	return 100 * float64(atOrBelow) / float64(valid)
}
