// Package timeseries provides the shared numeric primitives used by the
// valuation and risk engines: return computation, percentile and z-score
// statistics, and guards against degenerate inputs. All functions are pure.
package timeseries

import (
	"fmt"
	"math"
	"time"

	apperrors "stratalpha/internal/errors"
)

// PricePoint is a single daily observation.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries holds ordered daily price observations for one ticker.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// Validate checks the series invariants: dates strictly ascending and
// unique, no negative prices, all values finite.
func (s *PriceSeries) Validate() error {
	if len(s.Points) == 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, "price series is empty")
	}
	for i, p := range s.Points {
		if p.Close < 0 {
			return apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("negative price %.4f at %s", p.Close, p.Date.Format("2006-01-02")))
		}
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("non-finite price at %s", p.Date.Format("2006-01-02")))
		}
		if i > 0 && !s.Points[i-1].Date.Before(p.Date) {
			return apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("dates not strictly ascending at index %d", i))
		}
	}
	return nil
}

// Closes returns the close prices in order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Last returns the most recent close price.
func (s *PriceSeries) Last() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// Returns computes simple percentage returns between consecutive closes.
// The result has length len(series)-1.
func (s *PriceSeries) Returns() ([]float64, error) {
	return deriveReturns(s, func(prev, cur float64) float64 {
		return cur/prev - 1
	})
}

// LogReturns computes log returns between consecutive closes.
func (s *PriceSeries) LogReturns() ([]float64, error) {
	return deriveReturns(s, func(prev, cur float64) float64 {
		return math.Log(cur / prev)
	})
}

func deriveReturns(s *PriceSeries, f func(prev, cur float64) float64) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(s.Points) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation,
			"at least two observations required to compute returns")
	}
	out := make([]float64, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Close
		if prev == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("zero price at index %d makes returns undefined", i-1))
		}
		out = append(out, f(prev, s.Points[i].Close))
	}
	return out, nil
}
