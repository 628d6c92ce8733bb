package report

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/supply"
	"stratalpha/internal/valuation"
)

// WriteSensitivityCSV writes the sensitivity grid as a matrix: WACC values
// down the first column, terminal-growth values across the header. Invalid
// cells are left empty.
func WriteSensitivityCSV(w io.Writer, grid *valuation.SensitivityGrid) error {
	if grid == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "sensitivity grid is required")
	}

	cw := csv.NewWriter(w)

	header := make([]string, 0, len(grid.GrowthValues)+1)
	header = append(header, "wacc")
	for _, g := range grid.GrowthValues {
		header = append(header, formatFloat(g))
	}
	if err := cw.Write(header); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for r, wacc := range grid.WACCValues {
		row := make([]string, 0, len(grid.GrowthValues)+1)
		row = append(row, formatFloat(wacc))
		for c := range grid.GrowthValues {
			if !grid.Valid(r, c) {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(grid.Cells[r][c]))
		}
		if err := cw.Write(row); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// WriteCompsCSV writes the peer comparison table: the target first, peers in
// request order, and a trailing percentile_rank row with the target's rank
// per metric. Uncomputable multiples are left empty.
func WriteCompsCSV(w io.Writer, table *valuation.CompsTable) error {
	if table == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "comps table is required")
	}

	cw := csv.NewWriter(w)

	rows := [][]string{
		{"ticker", "pe", "ev_ebitda", "ps"},
		multipleRow(table.Target, table.TargetRatio),
	}
	for _, p := range table.Peers {
		rows = append(rows, multipleRow(p.Ticker, p.Multiples))
	}
	rows = append(rows, []string{
		"percentile_rank",
		formatFloat(table.Percentiles.PE),
		formatFloat(table.Percentiles.EVEBITDA),
		formatFloat(table.Percentiles.PS),
	})

	if err := cw.WriteAll(rows); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// WriteSupplyMetricsCSV writes per-node centrality metrics ordered by the
// chokepoint ranking.
func WriteSupplyMetricsCSV(w io.Writer, metrics supply.CentralityMetrics, chokepoints []supply.Chokepoint) error {
	cw := csv.NewWriter(w)

	rows := [][]string{{"node", "betweenness", "in_degree", "out_degree", "composite_score"}}
	for _, c := range chokepoints {
		m := metrics[c.Node]
		rows = append(rows, []string{
			c.Node,
			formatFloat(c.Betweenness),
			strconv.Itoa(m.InDegree),
			strconv.Itoa(m.OutDegree),
			formatFloat(c.CompositeScore),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func multipleRow(ticker string, m valuation.Multiples) []string {
	return []string{ticker, formatFloat(m.PE), formatFloat(m.EVEBITDA), formatFloat(m.PS)}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
