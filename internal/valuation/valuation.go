// Package valuation implements the discounted-cash-flow valuation engine:
// WACC assembly, explicit-horizon cash-flow projection, Gordon-growth
// terminal value, a 2-D sensitivity grid over discount rate and terminal
// growth, and peer multiple comparison. Every entry point is a pure
// function of its inputs; identical inputs produce identical outputs.
package valuation

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	apperrors "stratalpha/internal/errors"
)

// DefaultHorizon is the explicit projection horizon used when the caller
// does not supply one.
const DefaultHorizon = 10

// weightTolerance is the permitted deviation of WeightEquity+WeightDebt
// from 1.0.
const weightTolerance = 1e-6

var validate = validator.New()

// FinancialSnapshot holds point-in-time fundamentals for one company.
type FinancialSnapshot struct {
	Ticker            string  `json:"ticker" validate:"required"`
	FreeCashFlow      float64 `json:"free_cash_flow"`
	NetDebt           float64 `json:"net_debt"`
	SharesOutstanding float64 `json:"shares_outstanding" validate:"gt=0"`
	MarketCap         float64 `json:"market_cap"`

	// Peer-comparison metrics.
	Price   float64 `json:"price"`
	EPS     float64 `json:"eps"`
	EBITDA  float64 `json:"ebitda"`
	Revenue float64 `json:"revenue"`
}

// WACCInputs are the discount-rate assembly inputs. Negative or zero beta
// is accepted as-is; callers that want a floor must clamp before calling.
type WACCInputs struct {
	Beta              float64 `json:"beta"`
	RiskFreeRate      float64 `json:"risk_free_rate"`
	EquityRiskPremium float64 `json:"equity_risk_premium"`
	PreTaxCostOfDebt  float64 `json:"pre_tax_cost_of_debt"`
	TaxRate           float64 `json:"tax_rate" validate:"gte=0,lt=1"`
	WeightEquity      float64 `json:"weight_equity" validate:"gte=0"`
	WeightDebt        float64 `json:"weight_debt" validate:"gte=0"`
}

// Validate checks that the capital weights sum to 1 within tolerance.
func (w *WACCInputs) Validate() error {
	if err := validate.Struct(w); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, err)
	}
	if sum := w.WeightEquity + w.WeightDebt; math.Abs(sum-1.0) > weightTolerance {
		return apperrors.WithMessage(apperrors.ErrValidation,
			fmt.Sprintf("capital weights must sum to 1.0, got %.6f", sum))
	}
	return nil
}

// WACCResult holds the assembled discount rate and its parts.
type WACCResult struct {
	CostOfEquity float64 `json:"cost_of_equity"`
	CostOfDebt   float64 `json:"cost_of_debt"` // after-tax
	WACC         float64 `json:"wacc"`
}

// ComputeWACC assembles the weighted average cost of capital from CAPM cost
// of equity and after-tax cost of debt.
func ComputeWACC(in WACCInputs) (*WACCResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// Ke = Rf + beta * ERP
	ke := in.RiskFreeRate + in.Beta*in.EquityRiskPremium

	// Kd = PreTaxKd * (1 - t)
	kd := in.PreTaxCostOfDebt * (1 - in.TaxRate)

	return &WACCResult{
		CostOfEquity: ke,
		CostOfDebt:   kd,
		WACC:         in.WeightEquity*ke + in.WeightDebt*kd,
	}, nil
}

// Input bundles everything a valuation call needs. The engine itself never
// fetches data: fundamentals, peers, and ranges arrive fully resolved from
// the caller. Synthetic marks inputs a collaborator had to substitute with
// deterministic fallback data; the engine only echoes it back.
type Input struct {
	Ticker         string              `json:"ticker" validate:"required"`
	Financials     FinancialSnapshot   `json:"financials"`
	Peers          []FinancialSnapshot `json:"peers"`
	WACC           WACCInputs          `json:"wacc_inputs"`
	Horizon        int                 `json:"horizon" validate:"gte=0"`
	GrowthRate     float64             `json:"growth_rate"`
	TerminalGrowth float64             `json:"terminal_growth"`
	WACCRange      []float64           `json:"wacc_range"`
	GrowthRange    []float64           `json:"growth_range"`
	Synthetic      bool                `json:"synthetic"`
}

// Validate eagerly checks the whole configuration record before any
// computation begins.
func (in *Input) Validate() error {
	if err := validate.Struct(in); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, err)
	}
	if in.Financials.SharesOutstanding <= 0 {
		return apperrors.WithMessage(apperrors.ErrValidation,
			"shares outstanding must be positive")
	}
	return in.WACC.Validate()
}

func (in *Input) horizon() int {
	if in.Horizon > 0 {
		return in.Horizon
	}
	return DefaultHorizon
}

// DCFResult is the valuation output. JSON field names form the export
// contract consumed by the report and dashboard layers.
type DCFResult struct {
	Ticker              string    `json:"ticker"`
	EnterpriseValue     float64   `json:"enterprise_value"`
	EquityValue         float64   `json:"equity_value"`
	EquityValuePerShare float64   `json:"equity_value_per_share"`
	TerminalValue       float64   `json:"terminal_value"`
	ProjectedCashFlows  []float64 `json:"projected_cash_flows"`
	WACC                float64   `json:"wacc"`
	Synthetic           bool      `json:"synthetic,omitempty"`
}

// Value runs the full DCF for a single (WACC, terminal growth) pair.
func Value(in Input) (*DCFResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	w, err := ComputeWACC(in.WACC)
	if err != nil {
		return nil, err
	}

	res, err := valueAt(&in, w.WACC, in.TerminalGrowth)
	if err != nil {
		return nil, err
	}
	res.Synthetic = in.Synthetic
	return res, nil
}

// valueAt prices the company at an explicit discount rate and terminal
// growth. It is the single cell computation reused by the sensitivity grid,
// so it performs no input validation of its own.
func valueAt(in *Input, wacc, terminalGrowth float64) (*DCFResult, error) {
	if wacc <= terminalGrowth {
		return nil, apperrors.WithMessage(apperrors.ErrValuation,
			fmt.Sprintf("WACC %.4f must exceed terminal growth %.4f", wacc, terminalGrowth))
	}

	horizon := in.horizon()
	flows := make([]float64, horizon)
	fcf := in.Financials.FreeCashFlow

	var pvFlows float64
	discount := 1.0
	for t := 0; t < horizon; t++ {
		fcf *= 1 + in.GrowthRate
		flows[t] = fcf
		discount /= 1 + wacc
		pvFlows += fcf * discount
	}

	// TV = FCF_last * (1+g) / (WACC - g), discounted at the horizon.
	terminalValue := flows[horizon-1] * (1 + terminalGrowth) / (wacc - terminalGrowth)
	pvTerminal := terminalValue * discount

	ev := pvFlows + pvTerminal
	equity := ev - in.Financials.NetDebt
	perShare := equity / in.Financials.SharesOutstanding

	for _, v := range []float64{ev, equity, perShare} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperrors.WithMessage(apperrors.ErrValuation,
				"valuation produced a non-finite value")
		}
	}

	return &DCFResult{
		Ticker:              in.Ticker,
		EnterpriseValue:     ev,
		EquityValue:         equity,
		EquityValuePerShare: perShare,
		TerminalValue:       terminalValue,
		ProjectedCashFlows:  flows,
		WACC:                wacc,
	}, nil
}
