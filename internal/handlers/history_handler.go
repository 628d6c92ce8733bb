package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/services"
)

// HistoryHandler serves persisted analysis runs.
type HistoryHandler struct {
	historyService services.HistoryServicer
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService services.HistoryServicer) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// GetHistory handles GET /api/v1/history/:ticker. It returns the most recent
// runs of each kind for the ticker, newest first.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	ticker := c.Param("ticker")
	if ticker == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "ticker is required"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	valuations, err := h.historyService.ListValuations(ticker, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	risks, err := h.historyService.ListRisks(ticker, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	supplies, err := h.historyService.ListSupplies(ticker, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":     ticker,
		"valuations": valuations,
		"risks":      risks,
		"supplies":   supplies,
	})
}
