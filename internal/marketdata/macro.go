package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/timeseries"
)

// MacroIndicators is one dated row of the macro panel.
type MacroIndicators struct {
	Date                    time.Time `json:"date"`
	CPIYoY                  float64   `json:"cpi_yoy"`
	UnemploymentRate        float64   `json:"unemployment_rate"`
	FedFundsRate            float64   `json:"fed_funds_rate"`
	IndustrialProductionYoY float64   `json:"industrial_production_yoy"`
}

// MacroSnapshot is the latest macro readings plus each indicator's z-score
// against its own history, the standardized view the dashboard charts.
type MacroSnapshot struct {
	Latest  MacroIndicators    `json:"latest"`
	ZScores map[string]float64 `json:"z_scores"`
	Rows    int                `json:"rows"`
}

// LoadMacroCSV reads a macro panel from a CSV file with the header
// date,cpi_yoy,unemployment_rate,fed_funds_rate,industrial_production_yoy.
func LoadMacroCSV(path string) ([]MacroIndicators, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
	}
	defer f.Close()
	return parseMacroCSV(f)
}

func parseMacroCSV(r io.Reader) ([]MacroIndicators, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
	}
	if len(records) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable, "macro CSV has no data rows")
	}

	rows := make([]MacroIndicators, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 5 {
			return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable,
				fmt.Sprintf("macro CSV row %d has %d columns, want 5", i+2, len(rec)))
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
		}
		vals := make([]float64, 4)
		for j := 0; j < 4; j++ {
			vals[j], err = strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrDataUnavailable, err)
			}
		}
		rows = append(rows, MacroIndicators{
			Date:                    date,
			CPIYoY:                  vals[0],
			UnemploymentRate:        vals[1],
			FedFundsRate:            vals[2],
			IndustrialProductionYoY: vals[3],
		})
	}
	return rows, nil
}

// Snapshot condenses a macro panel into its latest readings and per-series
// z-scores.
func Snapshot(rows []MacroIndicators) (*MacroSnapshot, error) {
	if len(rows) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDataUnavailable, "empty macro panel")
	}

	series := map[string][]float64{
		"cpi_yoy":                   make([]float64, len(rows)),
		"unemployment_rate":         make([]float64, len(rows)),
		"fed_funds_rate":            make([]float64, len(rows)),
		"industrial_production_yoy": make([]float64, len(rows)),
	}
	for i, r := range rows {
		series["cpi_yoy"][i] = r.CPIYoY
		series["unemployment_rate"][i] = r.UnemploymentRate
		series["fed_funds_rate"][i] = r.FedFundsRate
		series["industrial_production_yoy"][i] = r.IndustrialProductionYoY
	}

	z := make(map[string]float64, len(series))
	for name, values := range series {
		scores := timeseries.ZScores(values)
		z[name] = scores[len(scores)-1]
	}

	return &MacroSnapshot{
		Latest:  rows[len(rows)-1],
		ZScores: z,
		Rows:    len(rows),
	}, nil
}
