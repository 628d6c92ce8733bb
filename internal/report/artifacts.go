package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/services"
)

// StressDeltas flattens stress results into the label->delta record shape.
func StressDeltas(r *services.RiskReport) map[string]float64 {
	if r == nil {
		return nil
	}
	out := make(map[string]float64, len(r.Stresses))
	for _, s := range r.Stresses {
		out[s.Label] = s.Delta
	}
	return out
}

// WriteArtifacts writes every artifact the available reports support into
// dir and returns the paths written. Nil reports are skipped.
func WriteArtifacts(dir, ticker string, v *services.ValuationReport, r *services.RiskReport, s *services.SupplyReport) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var written []string
	add := func(name string, write func(f *os.File) error) error {
		path := filepath.Join(dir, ticker+"_"+name)
		f, err := os.Create(path)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		defer f.Close()
		if err := write(f); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	writeJSON := func(v any) func(f *os.File) error {
		return func(f *os.File) error {
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(v); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}
	}

	if v != nil && v.Result != nil {
		if err := add("dcf.json", writeJSON(v.Result)); err != nil {
			return written, err
		}
		if v.Sensitivity != nil {
			if err := add("sensitivity.csv", func(f *os.File) error {
				return WriteSensitivityCSV(f, v.Sensitivity)
			}); err != nil {
				return written, err
			}
		}
		if v.Comps != nil {
			if err := add("comps.csv", func(f *os.File) error {
				return WriteCompsCSV(f, v.Comps)
			}); err != nil {
				return written, err
			}
		}
	}

	if r != nil && r.VaR != nil {
		if err := add("var.json", writeJSON(r.VaR.Levels)); err != nil {
			return written, err
		}
		if err := add("stress.json", writeJSON(StressDeltas(r))); err != nil {
			return written, err
		}
	}

	if s != nil {
		if err := add("supply_metrics.csv", func(f *os.File) error {
			return WriteSupplyMetricsCSV(f, s.Metrics, s.Chokepoints)
		}); err != nil {
			return written, err
		}
	}

	memo := Memo(ticker, v, r, s, time.Now())
	if err := add("memo.md", func(f *os.File) error {
		_, err := f.WriteString(memo)
		return err
	}); err != nil {
		return written, err
	}
	html, err := RenderHTML(memo)
	if err != nil {
		return written, err
	}
	if err := add("memo.html", func(f *os.File) error {
		_, err := f.WriteString(html)
		return err
	}); err != nil {
		return written, err
	}

	return written, nil
}
