package models

// ValuationRun is one persisted DCF valuation: headline numbers in queryable
// columns, the full result and input parameters as JSON payloads for replay
// and display.
type ValuationRun struct {
	Base
	Ticker              string  `gorm:"index:idx_valuation_runs_ticker_created" json:"ticker"`
	Horizon             int     `json:"horizon"`
	WACC                float64 `json:"wacc"`
	EnterpriseValue     float64 `json:"enterprise_value"`
	EquityValue         float64 `json:"equity_value"`
	EquityValuePerShare float64 `json:"equity_value_per_share"`
	Synthetic           bool    `json:"synthetic"`
	ParamsJSON          string  `gorm:"type:text" json:"-"`
	ResultJSON          string  `gorm:"type:text" json:"-"`
}

// RiskRun is one persisted VaR/stress assessment.
type RiskRun struct {
	Base
	Ticker        string  `gorm:"index:idx_risk_runs_ticker_created" json:"ticker"`
	PositionValue float64 `json:"position_value"`
	Observations  int     `json:"observations"`
	VaR95         float64 `json:"var_95"` // historical method headline
	VaR99         float64 `json:"var_99"`
	Synthetic     bool    `json:"synthetic"`
	ResultJSON    string  `gorm:"type:text" json:"-"`
	StressJSON    string  `gorm:"type:text" json:"-"`
}

// SupplyRun is one persisted supply-network analysis.
type SupplyRun struct {
	Base
	Ticker        string `gorm:"index:idx_supply_runs_ticker_created" json:"ticker"`
	NodeCount     int    `json:"node_count"`
	EdgeCount     int    `json:"edge_count"`
	TopChokepoint string `json:"top_chokepoint"`
	MetricsJSON   string `gorm:"type:text" json:"-"`
}

// APICallLog records one outbound data-source call for the audit trail and
// health reporting.
type APICallLog struct {
	Base
	APIName    string `gorm:"index" json:"api_name"`
	Endpoint   string `json:"endpoint"`
	StatusCode int    `json:"status_code"`
	DurationMS int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
	ErrorMsg   string `json:"error_message,omitempty"`
}
