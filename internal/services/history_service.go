package services

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/logger"
	"stratalpha/internal/models"
	"stratalpha/internal/risk"
	"stratalpha/internal/supply"
	"stratalpha/internal/valuation"
)

const defaultListLimit = 20

// historyService persists analysis runs and the outbound-call audit trail.
type historyService struct {
	db *gorm.DB
}

// NewHistoryService creates a new HistoryServicer.
func NewHistoryService(db *gorm.DB) HistoryServicer {
	return &historyService{db: db}
}

// RecordValuation stores one DCF run with its full input and result payloads.
func (s *historyService) RecordValuation(in valuation.Input, result *valuation.DCFResult) (*models.ValuationRun, error) {
	if result == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "valuation result is required")
	}

	run := &models.ValuationRun{
		Ticker:              result.Ticker,
		Horizon:             in.Horizon,
		WACC:                result.WACC,
		EnterpriseValue:     result.EnterpriseValue,
		EquityValue:         result.EquityValue,
		EquityValuePerShare: result.EquityValuePerShare,
		Synthetic:           result.Synthetic,
		ParamsJSON:          mustJSON(in),
		ResultJSON:          mustJSON(result),
	}

	if err := s.db.Create(run).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return run, nil
}

// RecordRisk stores one VaR/stress run. The headline columns carry the
// historical-method values at the 95% and 99% levels when present.
func (s *historyService) RecordRisk(ticker string, in risk.Input, result *risk.VaRResult, stresses []risk.StressResult) (*models.RiskRun, error) {
	if result == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "risk result is required")
	}

	run := &models.RiskRun{
		Ticker:        ticker,
		PositionValue: result.PositionValue,
		Observations:  result.Observations,
		Synthetic:     result.Synthetic,
		ResultJSON:    mustJSON(result),
		StressJSON:    mustJSON(stresses),
	}
	if v, ok := result.At(0.95); ok {
		run.VaR95 = v.Historical
	}
	if v, ok := result.At(0.99); ok {
		run.VaR99 = v.Historical
	}

	if err := s.db.Create(run).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return run, nil
}

// RecordSupply stores one supply-network analysis run.
func (s *historyService) RecordSupply(ticker string, g *supply.Graph, metrics supply.CentralityMetrics, chokepoints []supply.Chokepoint) (*models.SupplyRun, error) {
	if g == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "supply graph is required")
	}

	payload := struct {
		Metrics     supply.CentralityMetrics `json:"metrics"`
		Chokepoints []supply.Chokepoint      `json:"chokepoints"`
	}{metrics, chokepoints}

	run := &models.SupplyRun{
		Ticker:      ticker,
		NodeCount:   g.Order(),
		EdgeCount:   g.Size(),
		MetricsJSON: mustJSON(payload),
	}
	if len(chokepoints) > 0 {
		run.TopChokepoint = chokepoints[0].Node
	}

	if err := s.db.Create(run).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return run, nil
}

// ListValuations returns the most recent valuation runs for a ticker.
func (s *historyService) ListValuations(ticker string, limit int) ([]models.ValuationRun, error) {
	var runs []models.ValuationRun
	if err := s.recent(ticker, limit).Find(&runs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return runs, nil
}

// ListRisks returns the most recent risk runs for a ticker.
func (s *historyService) ListRisks(ticker string, limit int) ([]models.RiskRun, error) {
	var runs []models.RiskRun
	if err := s.recent(ticker, limit).Find(&runs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return runs, nil
}

// ListSupplies returns the most recent supply runs for a ticker.
func (s *historyService) ListSupplies(ticker string, limit int) ([]models.SupplyRun, error) {
	var runs []models.SupplyRun
	if err := s.recent(ticker, limit).Find(&runs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return runs, nil
}

func (s *historyService) recent(ticker string, limit int) *gorm.DB {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.db.Where("ticker = ?", ticker).Order("created_at DESC").Limit(limit)
}

// RecordAPICall writes one outbound-call audit row. Errors are logged but
// never propagate so a failed audit write cannot break a data fetch.
func (s *historyService) RecordAPICall(apiName, endpoint string, statusCode int, duration time.Duration, callErr error) {
	entry := &models.APICallLog{
		APIName:    apiName,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		DurationMS: duration.Milliseconds(),
		Success:    callErr == nil && statusCode >= 200 && statusCode < 300,
	}
	if callErr != nil {
		entry.ErrorMsg = callErr.Error()
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to record api call",
			"error", err,
			"api_name", apiName,
			"endpoint", endpoint,
		)
	}
}

// APIStats aggregates the audit trail since the given time.
func (s *historyService) APIStats(since time.Time) (*APICallStats, error) {
	type row struct {
		Total       int64
		Failed      int64
		AvgDuration float64
	}
	var r row
	err := s.db.Model(&models.APICallLog{}).
		Where("created_at >= ?", since).
		Select("COUNT(*) AS total, SUM(CASE WHEN success THEN 0 ELSE 1 END) AS failed, AVG(duration_ms) AS avg_duration").
		Scan(&r).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &APICallStats{
		TotalCalls:    r.Total,
		FailedCalls:   r.Failed,
		AvgDurationMS: r.AvgDuration,
	}
	if r.Total > 0 {
		stats.SuccessRate = float64(r.Total-r.Failed) / float64(r.Total)
	}
	return stats, nil
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Get().Errorw("failed to marshal run payload", "error", err)
		return "{}"
	}
	return string(data)
}
