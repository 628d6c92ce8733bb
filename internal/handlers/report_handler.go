package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/report"
	"stratalpha/internal/risk"
	"stratalpha/internal/services"
	"stratalpha/internal/supply"
	"stratalpha/internal/valuation"
)

// ReportHandler assembles memos from the most recent persisted runs.
type ReportHandler struct {
	historyService services.HistoryServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(historyService services.HistoryServicer) *ReportHandler {
	return &ReportHandler{historyService: historyService}
}

// GetReport handles GET /api/v1/report/:ticker. It builds a memo from the
// latest persisted run of each kind; format=md returns raw markdown, the
// default is rendered HTML. A ticker with no runs at all is a 404.
func (h *ReportHandler) GetReport(c *gin.Context) {
	ticker := c.Param("ticker")
	if ticker == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "ticker is required"))
		return
	}

	v, err := h.latestValuation(ticker)
	if err != nil {
		respondWithError(c, err)
		return
	}
	r, err := h.latestRisk(ticker)
	if err != nil {
		respondWithError(c, err)
		return
	}
	s, err := h.latestSupply(ticker)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if v == nil && r == nil && s == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrRunNotFound,
			"no analysis runs recorded for "+ticker))
		return
	}

	memo := report.Memo(ticker, v, r, s, time.Now())
	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(memo))
		return
	}

	html, err := report.RenderHTML(memo)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *ReportHandler) latestValuation(ticker string) (*services.ValuationReport, error) {
	runs, err := h.historyService.ListValuations(ticker, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}

	var result valuation.DCFResult
	if err := json.Unmarshal([]byte(runs[0].ResultJSON), &result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &services.ValuationReport{Result: &result, Synthetic: runs[0].Synthetic}, nil
}

func (h *ReportHandler) latestRisk(ticker string) (*services.RiskReport, error) {
	runs, err := h.historyService.ListRisks(ticker, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}

	var result risk.VaRResult
	if err := json.Unmarshal([]byte(runs[0].ResultJSON), &result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var stresses []risk.StressResult
	if runs[0].StressJSON != "" {
		if err := json.Unmarshal([]byte(runs[0].StressJSON), &stresses); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &services.RiskReport{VaR: &result, Stresses: stresses}, nil
}

func (h *ReportHandler) latestSupply(ticker string) (*services.SupplyReport, error) {
	runs, err := h.historyService.ListSupplies(ticker, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}

	var payload struct {
		Metrics     supply.CentralityMetrics `json:"metrics"`
		Chokepoints []supply.Chokepoint      `json:"chokepoints"`
	}
	if err := json.Unmarshal([]byte(runs[0].MetricsJSON), &payload); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &services.SupplyReport{
		Metrics:     payload.Metrics,
		Chokepoints: payload.Chokepoints,
		NodeCount:   runs[0].NodeCount,
		EdgeCount:   runs[0].EdgeCount,
	}, nil
}
