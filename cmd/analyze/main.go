// Command analyze runs the full analysis pipeline for one ticker from the
// command line and writes the report artifacts to an output directory.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"stratalpha/internal/cache"
	"stratalpha/internal/config"
	"stratalpha/internal/database"
	"stratalpha/internal/logger"
	"stratalpha/internal/marketdata"
	"stratalpha/internal/report"
	"stratalpha/internal/risk"
	"stratalpha/internal/services"
	"stratalpha/internal/supply"
	"stratalpha/internal/valuation"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	var (
		ticker   = flag.String("ticker", "", "target ticker (required)")
		peers    = flag.String("peers", "", "comma-separated peer tickers (default from config)")
		position = flag.Float64("position", 1_000_000, "position value for VaR")
		beta     = flag.Float64("beta", 1.1, "equity beta for CAPM")
		edges    = flag.String("edges", "", "path to a supplier,customer,weight CSV (built-in sample when empty)")
		geo      = flag.String("geo", "", "path to a node,concentration CSV")
		out      = flag.String("out", "", "output directory (default from config)")
	)
	flag.Parse()

	if *ticker == "" {
		flag.Usage()
		return fmt.Errorf("-ticker is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *out == "" {
		*out = cfg.ArtifactsDir
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to open run-history store: %w", err)
	}
	defer dbManager.Close()
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate run-history store: %w", err)
	}

	historyService := services.NewHistoryService(dbManager.DB())
	quoteClient := marketdata.NewClient(
		marketdata.WithBaseURL(cfg.QuoteBaseURL),
		marketdata.WithHTTPClient(&http.Client{Timeout: cfg.QuoteTimeout}),
		marketdata.WithRateLimit(cfg.QuoteRateLimit),
		marketdata.WithRecorder(historyService),
	)
	analysis := services.NewAnalysisService(cfg, quoteClient, cache.New(cfg.RedisURL), historyService)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log := logger.Get()
	log.Infow("running analysis", "ticker", *ticker, "out", *out)

	peerList := cfg.PeerTickers
	if *peers != "" {
		peerList = strings.Split(*peers, ",")
	}

	valuationReport, err := analysis.RunValuation(ctx, services.ValuationRequest{
		Ticker: *ticker,
		Peers:  peerList,
		WACC: valuation.WACCInputs{
			Beta:              *beta,
			RiskFreeRate:      0.042,
			EquityRiskPremium: 0.05,
			PreTaxCostOfDebt:  0.05,
			TaxRate:           0.21,
			WeightEquity:      0.85,
			WeightDebt:        0.15,
		},
		WACCRange:   valuation.Range(0.06, 0.12, 0.01),
		GrowthRange: valuation.Range(0.01, 0.04, 0.005),
	})
	if err != nil {
		return fmt.Errorf("valuation failed: %w", err)
	}

	scenarios := make([]risk.Scenario, 0, len(cfg.ShockTickers))
	weights := map[string]float64{}
	for _, node := range cfg.ShockTickers {
		scenarios = append(scenarios, risk.Scenario{
			Label: node + " disruption",
			Node:  node,
			Pct:   cfg.ShockPct,
		})
		weights[node] = 0.25
	}
	riskReport, err := analysis.RunRisk(ctx, services.RiskRequest{
		Ticker:           *ticker,
		PositionValue:    *position,
		ConfidenceLevels: cfg.ConfidenceLevels,
		Scenarios:        scenarios,
		Weights:          weights,
	})
	if err != nil {
		return fmt.Errorf("risk assessment failed: %w", err)
	}

	edgeList, geoWeights, err := loadNetwork(*edges, *geo)
	if err != nil {
		return err
	}
	supplyReport, err := analysis.RunSupply(ctx, services.SupplyRequest{
		Ticker:     *ticker,
		Edges:      edgeList,
		GeoWeights: geoWeights,
	})
	if err != nil {
		return fmt.Errorf("supply analysis failed: %w", err)
	}

	written, err := report.WriteArtifacts(*out, *ticker, valuationReport, riskReport, supplyReport)
	if err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}
	for _, path := range written {
		log.Infow("wrote artifact", "path", path)
	}
	return nil
}

// defaultEdges is a small semiconductor supply network used when no edge
// file is supplied, so the CLI produces a complete report out of the box.
var defaultEdges = []supply.Edge{
	{Supplier: "ASML", Customer: "TSM", Weight: 1.0},
	{Supplier: "TSM", Customer: "NVDA", Weight: 0.8},
	{Supplier: "TSM", Customer: "AMD", Weight: 0.6},
	{Supplier: "NVDA", Customer: "MSFT", Weight: 0.5},
	{Supplier: "NVDA", Customer: "AMZN", Weight: 0.5},
}

var defaultGeoWeights = map[string]float64{
	"TSM":  0.92,
	"ASML": 0.85,
}

func loadNetwork(edgePath, geoPath string) ([]supply.Edge, map[string]float64, error) {
	if edgePath == "" {
		return defaultEdges, defaultGeoWeights, nil
	}

	edges, err := loadEdgesCSV(edgePath)
	if err != nil {
		return nil, nil, err
	}
	geo := map[string]float64{}
	if geoPath != "" {
		geo, err = loadGeoCSV(geoPath)
		if err != nil {
			return nil, nil, err
		}
	}
	return edges, geo, nil
}

func loadEdgesCSV(path string) ([]supply.Edge, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	edges := make([]supply.Edge, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("%s row %d: want supplier,customer,weight", path, i+2)
		}
		weight, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad weight %q", path, i+2, rec[2])
		}
		edges = append(edges, supply.Edge{Supplier: rec[0], Customer: rec[1], Weight: weight})
	}
	return edges, nil
}

func loadGeoCSV(path string) (map[string]float64, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	geo := make(map[string]float64, len(records))
	for i, rec := range records {
		if len(rec) != 2 {
			return nil, fmt.Errorf("%s row %d: want node,concentration", path, i+2)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad concentration %q", path, i+2, rec[1])
		}
		geo[rec[0]] = v
	}
	return geo, nil
}

// readCSV reads a CSV file and returns its data rows, skipping the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}
	return records[1:], nil
}
