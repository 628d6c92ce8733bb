package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"stratalpha/internal/models"
	"stratalpha/internal/risk"
	"stratalpha/internal/services"
	"stratalpha/internal/supply"
	"stratalpha/internal/valuation"
)

// --- mock history service ---

type mockHistoryService struct {
	listValuationsFn func(ticker string, limit int) ([]models.ValuationRun, error)
	listRisksFn      func(ticker string, limit int) ([]models.RiskRun, error)
	listSuppliesFn   func(ticker string, limit int) ([]models.SupplyRun, error)
	apiStatsFn       func(since time.Time) (*services.APICallStats, error)
}

func (m *mockHistoryService) RecordValuation(valuation.Input, *valuation.DCFResult) (*models.ValuationRun, error) {
	return &models.ValuationRun{}, nil
}

func (m *mockHistoryService) RecordRisk(string, risk.Input, *risk.VaRResult, []risk.StressResult) (*models.RiskRun, error) {
	return &models.RiskRun{}, nil
}

func (m *mockHistoryService) RecordSupply(string, *supply.Graph, supply.CentralityMetrics, []supply.Chokepoint) (*models.SupplyRun, error) {
	return &models.SupplyRun{}, nil
}

func (m *mockHistoryService) ListValuations(ticker string, limit int) ([]models.ValuationRun, error) {
	if m.listValuationsFn != nil {
		return m.listValuationsFn(ticker, limit)
	}
	return nil, nil
}

func (m *mockHistoryService) ListRisks(ticker string, limit int) ([]models.RiskRun, error) {
	if m.listRisksFn != nil {
		return m.listRisksFn(ticker, limit)
	}
	return nil, nil
}

func (m *mockHistoryService) ListSupplies(ticker string, limit int) ([]models.SupplyRun, error) {
	if m.listSuppliesFn != nil {
		return m.listSuppliesFn(ticker, limit)
	}
	return nil, nil
}

func (m *mockHistoryService) RecordAPICall(string, string, int, time.Duration, error) {}

func (m *mockHistoryService) APIStats(since time.Time) (*services.APICallStats, error) {
	if m.apiStatsFn != nil {
		return m.apiStatsFn(since)
	}
	return &services.APICallStats{}, nil
}

var _ services.HistoryServicer = (*mockHistoryService)(nil)

func getPath(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHistoryHandler_GetHistory(t *testing.T) {
	t.Run("returns runs per kind", func(t *testing.T) {
		svc := &mockHistoryService{
			listValuationsFn: func(ticker string, limit int) ([]models.ValuationRun, error) {
				if ticker != "NVDA" {
					t.Errorf("unexpected ticker %q", ticker)
				}
				if limit != 5 {
					t.Errorf("expected limit 5, got %d", limit)
				}
				return []models.ValuationRun{{Ticker: "NVDA", EquityValuePerShare: 14.5}}, nil
			},
		}

		r := gin.New()
		r.GET("/history/:ticker", NewHistoryHandler(svc).GetHistory)
		w := getPath(t, r, "/history/NVDA?limit=5")

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var body struct {
			Ticker     string                `json:"ticker"`
			Valuations []models.ValuationRun `json:"valuations"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid response JSON: %v", err)
		}
		if body.Ticker != "NVDA" || len(body.Valuations) != 1 {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("rejects non-numeric limit", func(t *testing.T) {
		r := gin.New()
		r.GET("/history/:ticker", NewHistoryHandler(&mockHistoryService{}).GetHistory)
		w := getPath(t, r, "/history/NVDA?limit=lots")

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestReportHandler_GetReport(t *testing.T) {
	resultJSON := func(v any) string {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal fixture: %v", err)
		}
		return string(data)
	}

	t.Run("renders html from latest runs", func(t *testing.T) {
		svc := &mockHistoryService{
			listValuationsFn: func(string, int) ([]models.ValuationRun, error) {
				return []models.ValuationRun{{
					Ticker: "NVDA",
					ResultJSON: resultJSON(valuation.DCFResult{
						Ticker:              "NVDA",
						EquityValuePerShare: 14.5,
					}),
				}}, nil
			},
		}

		r := gin.New()
		r.GET("/report/:ticker", NewReportHandler(svc).GetReport)
		w := getPath(t, r, "/report/NVDA")

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("expected html content type, got %s", ct)
		}
		if !strings.Contains(w.Body.String(), "NVDA") {
			t.Error("report does not mention the ticker")
		}
	})

	t.Run("markdown format", func(t *testing.T) {
		svc := &mockHistoryService{
			listValuationsFn: func(string, int) ([]models.ValuationRun, error) {
				return []models.ValuationRun{{
					Ticker:     "NVDA",
					ResultJSON: resultJSON(valuation.DCFResult{Ticker: "NVDA"}),
				}}, nil
			},
		}

		r := gin.New()
		r.GET("/report/:ticker", NewReportHandler(svc).GetReport)
		w := getPath(t, r, "/report/NVDA?format=md")

		if !strings.Contains(w.Body.String(), "# Analysis Memo: NVDA") {
			t.Errorf("expected markdown memo, got %s", w.Body.String())
		}
	})

	t.Run("404 when no runs exist", func(t *testing.T) {
		r := gin.New()
		r.GET("/report/:ticker", NewReportHandler(&mockHistoryService{}).GetReport)
		w := getPath(t, r, "/report/ZZZZ")

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "RUN_NOT_FOUND") {
			t.Errorf("expected RUN_NOT_FOUND code: %s", w.Body.String())
		}
	})
}
