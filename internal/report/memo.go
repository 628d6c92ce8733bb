// Package report turns analysis results into the artifacts the dashboard
// and CLI consume: a markdown memo with an HTML rendering, CSV tables, and
// JSON records.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stratalpha/internal/risk"
	"stratalpha/internal/services"
)

// Memo builds the analysis memo in markdown. Sections for valuation, risk,
// and supply are included only when the corresponding report is present, so
// partial pipelines still produce a readable memo.
func Memo(ticker string, v *services.ValuationReport, r *services.RiskReport, s *services.SupplyReport, asOf time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis Memo: %s\n\n", ticker)
	fmt.Fprintf(&b, "Generated %s\n\n", asOf.UTC().Format("2006-01-02 15:04 MST"))

	if v != nil && v.Result != nil {
		writeValuationSection(&b, v)
	}
	if r != nil && r.VaR != nil {
		writeRiskSection(&b, r)
	}
	if s != nil {
		writeSupplySection(&b, s)
	}

	return b.String()
}

func writeValuationSection(b *strings.Builder, v *services.ValuationReport) {
	res := v.Result

	b.WriteString("## Valuation\n\n")
	if v.Synthetic {
		b.WriteString("> Based on synthetic fallback data; treat as illustrative.\n\n")
	}
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Enterprise value | %s |\n", money(res.EnterpriseValue))
	fmt.Fprintf(b, "| Equity value | %s |\n", money(res.EquityValue))
	fmt.Fprintf(b, "| Equity value per share | %s |\n", money(res.EquityValuePerShare))
	fmt.Fprintf(b, "| Terminal value | %s |\n", money(res.TerminalValue))
	fmt.Fprintf(b, "| WACC | %.2f%% |\n", res.WACC*100)
	b.WriteString("\n")

	if v.Comps != nil {
		b.WriteString("### Peer multiples\n\n")
		b.WriteString("| Ticker | P/E | EV/EBITDA | P/S |\n|---|---|---|---|\n")
		fmt.Fprintf(b, "| **%s** | %s | %s | %s |\n",
			v.Comps.Target,
			ratio(v.Comps.TargetRatio.PE), ratio(v.Comps.TargetRatio.EVEBITDA), ratio(v.Comps.TargetRatio.PS))
		for _, p := range v.Comps.Peers {
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
				p.Ticker, ratio(p.Multiples.PE), ratio(p.Multiples.EVEBITDA), ratio(p.Multiples.PS))
		}
		fmt.Fprintf(b, "\nPercentile vs peers: P/E %s, EV/EBITDA %s, P/S %s.\n\n",
			pct(v.Comps.Percentiles.PE), pct(v.Comps.Percentiles.EVEBITDA), pct(v.Comps.Percentiles.PS))
	}
}

func writeRiskSection(b *strings.Builder, r *services.RiskReport) {
	b.WriteString("## Risk\n\n")
	fmt.Fprintf(b, "Position value %s over %d observations.\n\n",
		money(r.VaR.PositionValue), r.VaR.Observations)

	b.WriteString("| Confidence | Historical VaR | Parametric VaR |\n|---|---|---|\n")
	for _, level := range sortedLevels(r.VaR) {
		v := r.VaR.Levels[level]
		fmt.Fprintf(b, "| %s | %s | %s |\n", level, money(v.Historical), money(v.VarCov))
	}
	b.WriteString("\n")

	if len(r.Stresses) > 0 {
		b.WriteString("### Stress scenarios\n\n")
		b.WriteString("| Scenario | Node | Shock | Impact |\n|---|---|---|---|\n")
		for _, s := range r.Stresses {
			fmt.Fprintf(b, "| %s | %s | %.1f%% | %s |\n", s.Label, s.Node, s.ShockPct*100, money(s.Delta))
		}
		fmt.Fprintf(b, "\nCombined stress impact: %s.\n\n", money(risk.TotalDelta(r.Stresses)))
	}
}

func writeSupplySection(b *strings.Builder, s *services.SupplyReport) {
	b.WriteString("## Supply network\n\n")
	fmt.Fprintf(b, "%d nodes, %d edges.\n\n", s.NodeCount, s.EdgeCount)

	if len(s.Chokepoints) == 0 {
		b.WriteString("No chokepoints above threshold.\n\n")
		return
	}

	b.WriteString("| Rank | Node | Betweenness | Geo concentration | Composite |\n|---|---|---|---|---|\n")
	for i, c := range s.Chokepoints {
		fmt.Fprintf(b, "| %d | %s | %.4f | %.2f | %.4f |\n",
			i+1, c.Node, c.Betweenness, c.GeoConcentration, c.CompositeScore)
	}
	b.WriteString("\n")
}

func sortedLevels(v *risk.VaRResult) []string {
	levels := make([]string, 0, len(v.Levels))
	for k := range v.Levels {
		levels = append(levels, k)
	}
	sort.Strings(levels)
	return levels
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func ratio(v float64) string {
	if v != v { // NaN
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", v)
}

func pct(v float64) string {
	if v != v {
		return "n/a"
	}
	return fmt.Sprintf("%.0fth", v)
}
