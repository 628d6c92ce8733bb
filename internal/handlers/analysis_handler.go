package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/services"
)

// AnalysisHandler handles valuation, risk, and supply analysis requests.
type AnalysisHandler struct {
	analysisService services.AnalysisServicer
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService services.AnalysisServicer) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// RunValuation handles POST /api/v1/valuation.
func (h *AnalysisHandler) RunValuation(c *gin.Context) {
	var req services.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrValidation, err))
		return
	}

	report, err := h.analysisService.RunValuation(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunRisk handles POST /api/v1/risk.
func (h *AnalysisHandler) RunRisk(c *gin.Context) {
	var req services.RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrValidation, err))
		return
	}

	report, err := h.analysisService.RunRisk(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunSupply handles POST /api/v1/supply.
func (h *AnalysisHandler) RunSupply(c *gin.Context) {
	var req services.SupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrValidation, err))
		return
	}

	report, err := h.analysisService.RunSupply(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
