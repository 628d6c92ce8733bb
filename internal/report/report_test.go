package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stratalpha/internal/risk"
	"stratalpha/internal/services"
	"stratalpha/internal/supply"
	"stratalpha/internal/testutil"
	"stratalpha/internal/valuation"
)

func sampleValuation() *services.ValuationReport {
	return &services.ValuationReport{
		Result: &valuation.DCFResult{
			Ticker:              "NVDA",
			EnterpriseValue:     1_500_000,
			EquityValue:         1_450_000,
			EquityValuePerShare: 14.5,
			TerminalValue:       900_000,
			WACC:                0.09,
		},
		Sensitivity: &valuation.SensitivityGrid{
			Ticker:       "NVDA",
			WACCValues:   []float64{0.08, 0.09},
			GrowthValues: []float64{0.02, 0.10},
			Cells: [][]float64{
				{15.1, math.NaN()},
				{13.2, math.NaN()},
			},
		},
		Comps: &valuation.CompsTable{
			Target:      "NVDA",
			TargetRatio: valuation.Multiples{PE: 20, EVEBITDA: 15, PS: 5},
			Peers: []valuation.PeerMultiples{
				{Ticker: "AMD", Multiples: valuation.Multiples{PE: 30, EVEBITDA: math.NaN(), PS: 6}},
			},
			Percentiles: valuation.PercentileRanks{PE: 0, EVEBITDA: math.NaN(), PS: 0},
		},
	}
}

func sampleRisk() *services.RiskReport {
	return &services.RiskReport{
		VaR: &risk.VaRResult{
			Levels: map[string]risk.MethodVaR{
				"0.95": {Historical: 1200, VarCov: 1150},
				"0.99": {Historical: 2400, VarCov: 2350},
			},
			PositionValue: 100_000,
			Observations:  250,
		},
		Stresses: []risk.StressResult{
			{Label: "fab disruption", Node: "TSM", ShockPct: -0.10, Delta: -4000},
		},
	}
}

func sampleSupply(t *testing.T) *services.SupplyReport {
	t.Helper()
	g, err := supply.NewGraph([]supply.Edge{
		{Supplier: "ASML", Customer: "TSM", Weight: 1},
		{Supplier: "TSM", Customer: "NVDA", Weight: 1},
	})
	testutil.AssertNoError(t, err)
	metrics, chokepoints, err := supply.Analyze(g, map[string]float64{"TSM": 0.9}, supply.Options{})
	testutil.AssertNoError(t, err)
	return &services.SupplyReport{
		Metrics:     metrics,
		Chokepoints: chokepoints,
		NodeCount:   g.Order(),
		EdgeCount:   g.Size(),
	}
}

func TestWriteSensitivityCSV(t *testing.T) {
	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteSensitivityCSV(&buf, sampleValuation().Sensitivity))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "wacc,") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// Invalid cell stays empty, not NaN.
	if strings.Contains(buf.String(), "NaN") {
		t.Error("NaN leaked into CSV output")
	}
	if !strings.HasSuffix(lines[1], ",") {
		t.Errorf("invalid cell should produce a trailing empty field: %s", lines[1])
	}
}

func TestWriteCompsCSV(t *testing.T) {
	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteCompsCSV(&buf, sampleValuation().Comps))

	out := buf.String()
	if !strings.Contains(out, "NVDA,20.0000") {
		t.Errorf("target row missing: %s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "percentile_rank,") {
		t.Errorf("expected trailing percentile_rank row, got %s", last)
	}
}

func TestWriteSupplyMetricsCSV(t *testing.T) {
	s := sampleSupply(t)

	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteSupplyMetricsCSV(&buf, s.Metrics, s.Chokepoints))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "node,betweenness,in_degree,out_degree,composite_score" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// TSM is the only intermediary and carries the geo weight, so it ranks first.
	if !strings.HasPrefix(lines[1], "TSM,") {
		t.Errorf("expected TSM ranked first, got %s", lines[1])
	}
}

func TestMemoSections(t *testing.T) {
	memo := Memo("NVDA", sampleValuation(), sampleRisk(), sampleSupply(t), time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"# Analysis Memo: NVDA",
		"## Valuation",
		"## Risk",
		"## Supply network",
		"$14.50",
		"fab disruption",
		"-$4000.00",
	} {
		if !strings.Contains(memo, want) {
			t.Errorf("memo missing %q", want)
		}
	}

	partial := Memo("NVDA", nil, sampleRisk(), nil, time.Now())
	if strings.Contains(partial, "## Valuation") || strings.Contains(partial, "## Supply") {
		t.Error("memo includes sections for absent reports")
	}
}

func TestRenderHTMLTables(t *testing.T) {
	memo := Memo("NVDA", sampleValuation(), nil, nil, time.Now())

	html, err := RenderHTML(memo)
	testutil.AssertNoError(t, err)

	if !strings.Contains(html, "<table>") {
		t.Error("expected rendered table markup")
	}
	if !strings.Contains(html, "<h1") {
		t.Error("expected rendered heading markup")
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()

	written, err := WriteArtifacts(dir, "NVDA", sampleValuation(), sampleRisk(), sampleSupply(t))
	testutil.AssertNoError(t, err)

	want := []string{
		"NVDA_dcf.json",
		"NVDA_sensitivity.csv",
		"NVDA_comps.csv",
		"NVDA_var.json",
		"NVDA_stress.json",
		"NVDA_supply_metrics.csv",
		"NVDA_memo.md",
		"NVDA_memo.html",
	}
	if len(written) != len(want) {
		t.Fatalf("expected %d artifacts, got %d: %v", len(want), len(written), written)
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	stress, err := os.ReadFile(filepath.Join(dir, "NVDA_stress.json"))
	testutil.AssertNoError(t, err)
	if !strings.Contains(string(stress), `"fab disruption": -4000`) {
		t.Errorf("stress record shape mismatch: %s", stress)
	}
}
