package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stratalpha/internal/testutil"
)

var (
	histStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	histEnd   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func TestHistoryParsesChartPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/NVDA") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		// Three trading days; the zero close is a holiday slot to skip.
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704153600,1704240000,1704326400,1704412800],
			"indicators":{"quote":[{"close":[481.68,0,475.69,490.97]}]}
		}]}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	series, synthetic, err := client.History(context.Background(), "NVDA", histStart, histEnd)
	testutil.AssertNoError(t, err)

	if synthetic {
		t.Fatal("live fetch must not be flagged synthetic")
	}
	if len(series.Points) != 3 {
		t.Fatalf("expected 3 points (holiday slot skipped), got %d", len(series.Points))
	}
	testutil.AssertInDelta(t, 481.68, series.Points[0].Close, 1e-9)
	testutil.AssertNoError(t, series.Validate())
}

func TestHistoryFallsBackToSynthetic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	series, synthetic, err := client.History(context.Background(), "NVDA", histStart, histEnd)
	testutil.AssertNoError(t, err)

	if !synthetic {
		t.Fatal("expected synthetic advisory flag after upstream failure")
	}
	testutil.AssertNoError(t, series.Validate())
	if len(series.Points) == 0 {
		t.Fatal("synthetic series is empty")
	}
}

func TestHistoryHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := client.History(ctx, "NVDA", histStart, histEnd)
	if err == nil {
		t.Fatal("expected error on cancelled context, not synthetic fallback")
	}
}

func TestSyntheticSeriesDeterministic(t *testing.T) {
	a := SyntheticSeries("NVDA", histStart, histEnd)
	b := SyntheticSeries("NVDA", histStart, histEnd)

	if len(a.Points) != len(b.Points) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Points), len(b.Points))
	}
	for i := range a.Points {
		if a.Points[i].Close != b.Points[i].Close {
			t.Fatalf("series diverge at %d: %g vs %g", i, a.Points[i].Close, b.Points[i].Close)
		}
	}

	other := SyntheticSeries("AMD", histStart, histEnd)
	same := true
	for i := range a.Points {
		if a.Points[i].Close != other.Points[i].Close {
			same = false
			break
		}
	}
	if same {
		t.Error("different tickers produced identical synthetic paths")
	}

	testutil.AssertNoError(t, a.Validate())
}

func TestSyntheticSnapshotDeterministic(t *testing.T) {
	a := SyntheticSnapshot("TSM", 100)
	b := SyntheticSnapshot("TSM", 100)
	if a != b {
		t.Errorf("snapshot not deterministic: %+v vs %+v", a, b)
	}
	if a.SharesOutstanding <= 0 {
		t.Error("synthetic shares outstanding must be positive")
	}
}

func TestParseMacroCSVAndSnapshot(t *testing.T) {
	csvData := `date,cpi_yoy,unemployment_rate,fed_funds_rate,industrial_production_yoy
2024-01-31,3.1,3.7,5.33,0.9
2024-02-29,3.2,3.9,5.33,1.1
2024-03-31,3.5,3.8,5.33,1.3
`
	rows, err := parseMacroCSV(strings.NewReader(csvData))
	testutil.AssertNoError(t, err)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	snap, err := Snapshot(rows)
	testutil.AssertNoError(t, err)

	testutil.AssertInDelta(t, 3.5, snap.Latest.CPIYoY, 1e-12)
	// Fed funds is constant, so its z-score must be zero, not NaN.
	testutil.AssertInDelta(t, 0, snap.ZScores["fed_funds_rate"], 1e-12)
	if snap.ZScores["cpi_yoy"] <= 0 {
		t.Errorf("rising CPI should have positive latest z-score, got %g", snap.ZScores["cpi_yoy"])
	}
}

func TestParseMacroCSVRejectsBadRows(t *testing.T) {
	_, err := parseMacroCSV(strings.NewReader("date,cpi_yoy\n2024-01-31,3.1\n"))
	testutil.AssertAppError(t, err, "DATA_UNAVAILABLE")
}
