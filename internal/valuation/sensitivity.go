package valuation

import (
	"math"
	"sync"

	apperrors "stratalpha/internal/errors"
)

// sensitivityWorkers bounds the number of goroutines recomputing grid
// cells. Cells are independent and written to distinct matrix positions, so
// no synchronization beyond the WaitGroup is needed.
const sensitivityWorkers = 4

// SensitivityGrid is a 2-D matrix of equity value per share over a WACC row
// axis and a terminal-growth column axis. Cells where WACC does not exceed
// the growth value are NaN, marking the cell invalid without failing the
// rest of the grid.
type SensitivityGrid struct {
	Ticker       string      `json:"ticker"`
	WACCValues   []float64   `json:"wacc_values"`
	GrowthValues []float64   `json:"growth_values"`
	Cells        [][]float64 `json:"cells"`
}

// Valid reports whether the cell at (row, col) holds a finite valuation.
func (g *SensitivityGrid) Valid(row, col int) bool {
	return !math.IsNaN(g.Cells[row][col])
}

// Sensitivity recomputes the full valuation for every (WACC, growth) pair
// in the input's ranges. Each cell is an independent computation; invalid
// combinations degrade to NaN cells rather than aborting the grid.
func Sensitivity(in Input) (*SensitivityGrid, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if len(in.WACCRange) == 0 || len(in.GrowthRange) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation,
			"sensitivity requires non-empty WACC and growth ranges")
	}

	grid := &SensitivityGrid{
		Ticker:       in.Ticker,
		WACCValues:   in.WACCRange,
		GrowthValues: in.GrowthRange,
		Cells:        make([][]float64, len(in.WACCRange)),
	}
	for r := range grid.Cells {
		grid.Cells[r] = make([]float64, len(in.GrowthRange))
	}

	type cell struct{ row, col int }
	jobs := make(chan cell)

	var wg sync.WaitGroup
	for w := 0; w < sensitivityWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				res, err := valueAt(&in, in.WACCRange[c.row], in.GrowthRange[c.col])
				if err != nil {
					grid.Cells[c.row][c.col] = math.NaN()
					continue
				}
				grid.Cells[c.row][c.col] = res.EquityValuePerShare
			}
		}()
	}

	for r := range in.WACCRange {
		for c := range in.GrowthRange {
			jobs <- cell{row: r, col: c}
		}
	}
	close(jobs)
	wg.Wait()

	return grid, nil
}

// Range builds an inclusive float range from lo to hi with the given step,
// a convenience for assembling grid axes.
func Range(lo, hi, step float64) []float64 {
	if step <= 0 || hi < lo {
		return nil
	}
	var out []float64
	// Small epsilon keeps hi itself in the range despite float drift.
	for v := lo; v <= hi+step/1e6; v += step {
		out = append(out, v)
	}
	return out
}
