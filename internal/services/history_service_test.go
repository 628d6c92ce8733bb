package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stratalpha/internal/risk"
	"stratalpha/internal/supply"
	"stratalpha/internal/testutil"
	"stratalpha/internal/valuation"
)

func TestRecordValuation(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewHistoryService(db)

		in := valuation.Input{Ticker: "NVDA", Horizon: 10}
		result := &valuation.DCFResult{
			Ticker:              "NVDA",
			EnterpriseValue:     1_500_000,
			EquityValue:         1_400_000,
			EquityValuePerShare: 14,
			WACC:                0.09,
		}

		run, err := svc.RecordValuation(in, result)
		testutil.AssertNoError(t, err)

		if run.ID == "" {
			t.Fatal("expected generated run ID")
		}
		if run.Ticker != "NVDA" || run.WACC != 0.09 {
			t.Errorf("headline columns not populated: %+v", run)
		}

		var stored valuation.DCFResult
		if err := json.Unmarshal([]byte(run.ResultJSON), &stored); err != nil {
			t.Fatalf("result payload is not valid JSON: %v", err)
		}
		if stored.EquityValuePerShare != 14 {
			t.Errorf("payload round-trip lost equity value per share: %g", stored.EquityValuePerShare)
		}
	})

	t.Run("nil_result", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewHistoryService(db)

		_, err := svc.RecordValuation(valuation.Input{Ticker: "NVDA"}, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestRecordRiskHeadlines(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewHistoryService(db)

	result := &risk.VaRResult{
		Levels: map[string]risk.MethodVaR{
			"0.95": {Historical: 1200, VarCov: 1100},
			"0.99": {Historical: 2500, VarCov: 2300},
		},
		PositionValue: 100_000,
		Observations:  250,
	}
	stresses := []risk.StressResult{{Label: "equity shock", Node: "equity", ShockPct: -0.10, Delta: -6000}}

	run, err := svc.RecordRisk("NVDA", risk.Input{PositionValue: 100_000}, result, stresses)
	testutil.AssertNoError(t, err)

	if run.VaR95 != 1200 || run.VaR99 != 2500 {
		t.Errorf("expected historical headlines 1200/2500, got %g/%g", run.VaR95, run.VaR99)
	}
	if run.Observations != 250 {
		t.Errorf("expected 250 observations, got %d", run.Observations)
	}
	if run.StressJSON == "" {
		t.Error("stress payload not stored")
	}
}

func TestRecordSupply(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewHistoryService(db)

	g, err := supply.NewGraph([]supply.Edge{
		{Supplier: "TSM", Customer: "NVDA", Weight: 1},
		{Supplier: "NVDA", Customer: "MSFT", Weight: 1},
	})
	testutil.AssertNoError(t, err)

	metrics, chokepoints, err := supply.Analyze(g, map[string]float64{"NVDA": 0.9}, supply.Options{})
	testutil.AssertNoError(t, err)

	run, err := svc.RecordSupply("NVDA", g, metrics, chokepoints)
	testutil.AssertNoError(t, err)

	if run.NodeCount != 3 || run.EdgeCount != 2 {
		t.Errorf("expected 3 nodes / 2 edges, got %d/%d", run.NodeCount, run.EdgeCount)
	}
	if run.TopChokepoint != "NVDA" {
		t.Errorf("expected NVDA as top chokepoint, got %q", run.TopChokepoint)
	}
}

func TestListValuationsOrderAndLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewHistoryService(db)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordValuation(
			valuation.Input{Ticker: "NVDA"},
			&valuation.DCFResult{Ticker: "NVDA", EquityValue: float64(i)},
		)
		testutil.AssertNoError(t, err)
	}
	_, err := svc.RecordValuation(valuation.Input{Ticker: "AMD"}, &valuation.DCFResult{Ticker: "AMD"})
	testutil.AssertNoError(t, err)

	runs, err := svc.ListValuations("NVDA", 2)
	testutil.AssertNoError(t, err)

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, r := range runs {
		if r.Ticker != "NVDA" {
			t.Errorf("listing leaked ticker %q", r.Ticker)
		}
	}
}

func TestRecordAPICallAndStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewHistoryService(db)

	svc.RecordAPICall("quote", "/v8/finance/chart/NVDA", 200, 120*time.Millisecond, nil)
	svc.RecordAPICall("quote", "/v8/finance/chart/AMD", 200, 80*time.Millisecond, nil)
	svc.RecordAPICall("quote", "/v8/finance/chart/XXXX", 500, 40*time.Millisecond, errors.New("upstream failure"))

	stats, err := svc.APIStats(time.Now().Add(-time.Hour))
	testutil.AssertNoError(t, err)

	if stats.TotalCalls != 3 {
		t.Fatalf("expected 3 calls, got %d", stats.TotalCalls)
	}
	if stats.FailedCalls != 1 {
		t.Errorf("expected 1 failed call, got %d", stats.FailedCalls)
	}
	testutil.AssertInDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	testutil.AssertInDelta(t, 80, stats.AvgDurationMS, 1e-9)
}

func TestAPIStatsEmptyWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewHistoryService(db)

	stats, err := svc.APIStats(time.Now().Add(-time.Hour))
	testutil.AssertNoError(t, err)

	if stats.TotalCalls != 0 || stats.SuccessRate != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
}
