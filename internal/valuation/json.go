package valuation

import (
	"encoding/json"
	"math"
)

// NaN marks an uncomputable multiple or an invalid grid cell in memory, but
// JSON has no NaN literal. The wire contract maps NaN to null in both
// directions so results survive caching and API transport.

type multiplesJSON struct {
	PE       *float64 `json:"pe"`
	EVEBITDA *float64 `json:"ev_ebitda"`
	PS       *float64 `json:"ps"`
}

func (m Multiples) MarshalJSON() ([]byte, error) {
	return json.Marshal(multiplesJSON{nanToNull(m.PE), nanToNull(m.EVEBITDA), nanToNull(m.PS)})
}

func (m *Multiples) UnmarshalJSON(data []byte) error {
	var aux multiplesJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.PE, m.EVEBITDA, m.PS = nullToNaN(aux.PE), nullToNaN(aux.EVEBITDA), nullToNaN(aux.PS)
	return nil
}

func (p PercentileRanks) MarshalJSON() ([]byte, error) {
	return json.Marshal(multiplesJSON{nanToNull(p.PE), nanToNull(p.EVEBITDA), nanToNull(p.PS)})
}

func (p *PercentileRanks) UnmarshalJSON(data []byte) error {
	var aux multiplesJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.PE, p.EVEBITDA, p.PS = nullToNaN(aux.PE), nullToNaN(aux.EVEBITDA), nullToNaN(aux.PS)
	return nil
}

type sensitivityGridJSON struct {
	Ticker       string       `json:"ticker"`
	WACCValues   []float64    `json:"wacc_values"`
	GrowthValues []float64    `json:"growth_values"`
	Cells        [][]*float64 `json:"cells"`
}

func (g SensitivityGrid) MarshalJSON() ([]byte, error) {
	aux := sensitivityGridJSON{
		Ticker:       g.Ticker,
		WACCValues:   g.WACCValues,
		GrowthValues: g.GrowthValues,
		Cells:        make([][]*float64, len(g.Cells)),
	}
	for r, row := range g.Cells {
		aux.Cells[r] = make([]*float64, len(row))
		for c, v := range row {
			aux.Cells[r][c] = nanToNull(v)
		}
	}
	return json.Marshal(aux)
}

func (g *SensitivityGrid) UnmarshalJSON(data []byte) error {
	var aux sensitivityGridJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.Ticker = aux.Ticker
	g.WACCValues = aux.WACCValues
	g.GrowthValues = aux.GrowthValues
	g.Cells = make([][]float64, len(aux.Cells))
	for r, row := range aux.Cells {
		g.Cells[r] = make([]float64, len(row))
		for c, v := range row {
			g.Cells[r][c] = nullToNaN(v)
		}
	}
	return nil
}

func nanToNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullToNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
