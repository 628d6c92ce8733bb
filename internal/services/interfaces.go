package services

import (
	"context"
	"time"

	"stratalpha/internal/models"
	"stratalpha/internal/risk"
	"stratalpha/internal/supply"
	"stratalpha/internal/valuation"
)

// APICallStats aggregates the outbound-call audit trail over a window,
// surfaced by the health endpoint.
type APICallStats struct {
	TotalCalls    int64   `json:"total_calls"`
	FailedCalls   int64   `json:"failed_calls"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// HistoryServicer defines the contract for persisting and listing analysis runs.
type HistoryServicer interface {
	RecordValuation(in valuation.Input, result *valuation.DCFResult) (*models.ValuationRun, error)
	RecordRisk(ticker string, in risk.Input, result *risk.VaRResult, stresses []risk.StressResult) (*models.RiskRun, error)
	RecordSupply(ticker string, g *supply.Graph, metrics supply.CentralityMetrics, chokepoints []supply.Chokepoint) (*models.SupplyRun, error)
	ListValuations(ticker string, limit int) ([]models.ValuationRun, error)
	ListRisks(ticker string, limit int) ([]models.RiskRun, error)
	ListSupplies(ticker string, limit int) ([]models.SupplyRun, error)
	RecordAPICall(apiName, endpoint string, statusCode int, duration time.Duration, callErr error)
	APIStats(since time.Time) (*APICallStats, error)
}

// ValuationRequest is one valuation order: either fully specified financials
// or a ticker to resolve through the market-data collaborator.
type ValuationRequest struct {
	Ticker         string               `json:"ticker" validate:"required,ticker"`
	Peers          []string             `json:"peers"`
	WACC           valuation.WACCInputs `json:"wacc_inputs"`
	Horizon        int                  `json:"horizon"`
	GrowthRate     float64              `json:"growth_rate"`
	TerminalGrowth float64              `json:"terminal_growth"`
	WACCRange      []float64            `json:"wacc_range"`
	GrowthRange    []float64            `json:"growth_range"`
}

// ValuationReport bundles everything a valuation run produces.
type ValuationReport struct {
	Result      *valuation.DCFResult       `json:"result"`
	Sensitivity *valuation.SensitivityGrid `json:"sensitivity,omitempty"`
	Comps       *valuation.CompsTable      `json:"comps,omitempty"`
	Synthetic   bool                       `json:"synthetic"`
}

// RiskRequest is one risk-assessment order resolved through market data.
type RiskRequest struct {
	Ticker           string             `json:"ticker" validate:"required,ticker"`
	PositionValue    float64            `json:"position_value" validate:"gt=0"`
	ConfidenceLevels []float64          `json:"confidence_levels" validate:"dive,confidence"`
	Scenarios        []risk.Scenario    `json:"scenarios"`
	Weights          map[string]float64 `json:"weights"`
	LookbackDays     int                `json:"lookback_days"`
}

// RiskReport bundles VaR and stress results for one assessment.
type RiskReport struct {
	VaR      *risk.VaRResult     `json:"var"`
	Stresses []risk.StressResult `json:"stresses"`
}

// SupplyRequest is one supply-network analysis order.
type SupplyRequest struct {
	Ticker        string             `json:"ticker" validate:"required,ticker"`
	Edges         []supply.Edge      `json:"edges" validate:"required,min=1"`
	ExtraNodes    []string           `json:"extra_nodes"`
	GeoWeights    map[string]float64 `json:"geo_weights"`
	TopK          int                `json:"top_k"`
	MinScore      float64            `json:"min_score"`
	WeightBetween float64            `json:"betweenness_weight"`
	WeightGeo     float64            `json:"geo_weight"`
}

// SupplyReport bundles centrality metrics and the chokepoint ranking.
type SupplyReport struct {
	Metrics     supply.CentralityMetrics `json:"metrics"`
	Chokepoints []supply.Chokepoint      `json:"chokepoints"`
	NodeCount   int                      `json:"node_count"`
	EdgeCount   int                      `json:"edge_count"`
}

// AnalysisServicer defines the contract for the orchestration layer: resolve
// market data, run the engines, memoize, and persist run history.
type AnalysisServicer interface {
	RunValuation(ctx context.Context, req ValuationRequest) (*ValuationReport, error)
	RunRisk(ctx context.Context, req RiskRequest) (*RiskReport, error)
	RunSupply(ctx context.Context, req SupplyRequest) (*SupplyReport, error)
}
