// Package risk implements the Value-at-Risk engine: historical and
// variance-covariance VaR at multiple confidence levels, plus deterministic
// stress scenarios. Like the other engines it is a pure function of its
// inputs and performs no I/O.
package risk

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/timeseries"
)

// MinObservations is the smallest return window that yields a statistically
// meaningful VaR. Shorter windows fail rather than returning a misleading
// number.
const MinObservations = 20

var validate = validator.New()

// DefaultConfidenceLevels is used when the caller supplies none.
var DefaultConfidenceLevels = []float64{0.95, 0.99}

// DefaultWeights is the portfolio split used when the caller supplies none.
var DefaultWeights = map[string]float64{"equity": 0.6, "bond": 0.4}

// Scenario is a named shock applied to a position.
type Scenario struct {
	Label string  `json:"label" validate:"required"`
	Node  string  `json:"node" validate:"required"`
	Pct   float64 `json:"pct"`
}

// Input bundles everything a risk assessment needs. Either Series or
// Returns must be set; Returns wins when both are present. Synthetic marks
// collaborator-substituted data and is echoed into the result.
type Input struct {
	Series           *timeseries.PriceSeries `json:"series,omitempty"`
	Returns          []float64               `json:"returns,omitempty"`
	PositionValue    float64                 `json:"position_value" validate:"gt=0"`
	ConfidenceLevels []float64               `json:"confidence_levels"`
	Scenarios        []Scenario              `json:"scenarios"`
	Weights          map[string]float64      `json:"weights"`
	Synthetic        bool                    `json:"synthetic"`
}

// MethodVaR holds both VaR estimates for one confidence level, in currency
// units.
type MethodVaR struct {
	Historical float64 `json:"historical"`
	VarCov     float64 `json:"var_cov"`
}

// VaRResult maps each confidence level (formatted as its decimal string,
// e.g. "0.95") to its VaR estimates.
type VaRResult struct {
	Levels        map[string]MethodVaR `json:"levels"`
	PositionValue float64              `json:"position_value"`
	Observations  int                  `json:"observations"`
	Synthetic     bool                 `json:"synthetic,omitempty"`
}

// At returns the estimates for a confidence level.
func (r *VaRResult) At(confidence float64) (MethodVaR, bool) {
	v, ok := r.Levels[levelKey(confidence)]
	return v, ok
}

// StressResult is the outcome of one scenario shock.
type StressResult struct {
	Label    string  `json:"label"`
	Node     string  `json:"node"`
	ShockPct float64 `json:"shock_pct"`
	Delta    float64 `json:"delta"`
}

func levelKey(confidence float64) string {
	return strconv.FormatFloat(confidence, 'g', -1, 64)
}

// AssessRisk computes the VaR distribution and applies the stress
// scenarios. Missing confidence levels and portfolio weights fall back to
// the documented defaults.
func AssessRisk(in Input) (*VaRResult, []StressResult, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrValidation, err)
	}

	returns := in.Returns
	if returns == nil {
		if in.Series == nil {
			return nil, nil, apperrors.WithMessage(apperrors.ErrValidation,
				"either a price series or a return series is required")
		}
		var err error
		returns, err = in.Series.Returns()
		if err != nil {
			return nil, nil, err
		}
	}
	if len(returns) < MinObservations {
		return nil, nil, apperrors.WithMessage(apperrors.ErrDataInsufficient,
			fmt.Sprintf("%d return observations, need at least %d", len(returns), MinObservations))
	}

	levels := in.ConfidenceLevels
	if len(levels) == 0 {
		levels = DefaultConfidenceLevels
	}
	for _, c := range levels {
		if c <= 0 || c >= 1 {
			return nil, nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("confidence level %g outside (0,1)", c))
		}
	}

	std := timeseries.StdDev(returns)
	result := &VaRResult{
		Levels:        make(map[string]MethodVaR, len(levels)),
		PositionValue: in.PositionValue,
		Observations:  len(returns),
		Synthetic:     in.Synthetic,
	}
	for _, c := range levels {
		result.Levels[levelKey(c)] = MethodVaR{
			Historical: historicalVaR(returns, c, in.PositionValue),
			VarCov:     parametricVaR(std, c, in.PositionValue),
		}
	}

	stress := applyScenarios(in)
	return result, stress, nil
}

// historicalVaR is the loss at the empirical (1-confidence) percentile of
// the return distribution, floored at zero. The floor keeps VaR
// non-negative on all-gain windows and preserves monotonicity across
// confidence levels.
func historicalVaR(returns []float64, confidence, position float64) float64 {
	ret := timeseries.Percentile(returns, (1-confidence)*100)
	loss := -ret
	if loss < 0 {
		loss = 0
	}
	return loss * position
}

// parametricVaR assumes normally distributed returns:
// VaR = z(confidence) * sigma * position value.
func parametricVaR(std, confidence, position float64) float64 {
	v := timeseries.NormInv(confidence) * std * position
	if v < 0 {
		return 0
	}
	return v
}

// applyScenarios computes the linear value impact of each shock:
// delta = position value * portfolio weight of the shocked node * shock
// percentage. Nodes absent from the weights contribute zero, and multiple
// simultaneous shocks sum linearly; cross-correlation between shocks is
// deliberately not modeled.
func applyScenarios(in Input) []StressResult {
	weights := in.Weights
	if len(weights) == 0 {
		weights = DefaultWeights
	}

	out := make([]StressResult, 0, len(in.Scenarios))
	for _, sc := range in.Scenarios {
		delta := in.PositionValue * weights[sc.Node] * sc.Pct
		out = append(out, StressResult{
			Label:    sc.Label,
			Node:     sc.Node,
			ShockPct: sc.Pct,
			Delta:    delta,
		})
	}
	return out
}

// TotalDelta sums the stress deltas, the combined linear impact of all
// scenarios applied at once.
func TotalDelta(results []StressResult) float64 {
	var total float64
	for _, r := range results {
		total += r.Delta
	}
	return total
}
