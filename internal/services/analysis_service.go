package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"stratalpha/internal/cache"
	"stratalpha/internal/config"
	apperrors "stratalpha/internal/errors"
	"stratalpha/internal/logger"
	"stratalpha/internal/marketdata"
	"stratalpha/internal/risk"
	"stratalpha/internal/supply"
	"stratalpha/internal/timeseries"
	"stratalpha/internal/valuation"
	appvalidator "stratalpha/internal/validator"
)

const (
	defaultLookbackDays = 365
	peerFetchWorkers    = 4
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	appvalidator.RegisterWith(v)
	return v
}

// MarketData is the subset of the market-data client the orchestrator needs.
type MarketData interface {
	History(ctx context.Context, ticker string, start, end time.Time) (*timeseries.PriceSeries, bool, error)
}

// analysisService wires market data, the analytics engines, the cache, and
// the run-history store into single-call pipelines.
type analysisService struct {
	cfg     *config.Config
	data    MarketData
	cache   cache.Cache
	history HistoryServicer
}

// NewAnalysisService creates a new AnalysisServicer.
func NewAnalysisService(cfg *config.Config, data MarketData, c cache.Cache, history HistoryServicer) AnalysisServicer {
	return &analysisService{cfg: cfg, data: data, cache: c, history: history}
}

// RunValuation resolves fundamentals for the target and its peers, runs the
// DCF engine with sensitivity and comps, persists the run, and returns the
// full report. Identical requests within the cache TTL are served from cache
// without re-running the pipeline.
func (s *analysisService) RunValuation(ctx context.Context, req ValuationRequest) (*ValuationReport, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, err)
	}
	s.applyValuationDefaults(&req)

	key := cache.Key("valuation", req)
	var report ValuationReport
	if s.fromCache(ctx, key, &report) {
		return &report, nil
	}

	target, synthetic, err := s.snapshot(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}
	peers, peerSynthetic, err := s.peerSnapshots(ctx, req.Peers)
	if err != nil {
		return nil, err
	}
	synthetic = synthetic || peerSynthetic

	in := valuation.Input{
		Ticker:         req.Ticker,
		Financials:     *target,
		Peers:          peers,
		WACC:           req.WACC,
		Horizon:        req.Horizon,
		GrowthRate:     req.GrowthRate,
		TerminalGrowth: req.TerminalGrowth,
		WACCRange:      req.WACCRange,
		GrowthRange:    req.GrowthRange,
		Synthetic:      synthetic,
	}

	result, err := valuation.Value(in)
	if err != nil {
		return nil, err
	}
	report = ValuationReport{Result: result, Synthetic: synthetic}

	if len(in.WACCRange) > 0 && len(in.GrowthRange) > 0 {
		grid, err := valuation.Sensitivity(in)
		if err != nil {
			return nil, err
		}
		report.Sensitivity = grid
	}
	if len(peers) > 0 {
		comps, err := valuation.Comps(*target, peers)
		if err != nil {
			return nil, err
		}
		report.Comps = comps
	}

	if _, err := s.history.RecordValuation(in, result); err != nil {
		logger.Get().Errorw("failed to persist valuation run", "error", err, "ticker", req.Ticker)
	}
	s.toCache(ctx, key, &report)
	return &report, nil
}

// RunRisk fetches price history for the ticker, assesses VaR and the stress
// scenarios, persists the run, and returns the report.
func (s *analysisService) RunRisk(ctx context.Context, req RiskRequest) (*RiskReport, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, err)
	}
	if len(req.ConfidenceLevels) == 0 {
		req.ConfidenceLevels = s.cfg.ConfidenceLevels
	}
	if req.LookbackDays <= 0 {
		req.LookbackDays = defaultLookbackDays
	}

	key := cache.Key("risk", req)
	var report RiskReport
	if s.fromCache(ctx, key, &report) {
		return &report, nil
	}

	end := time.Now().UTC()
	series, synthetic, err := s.data.History(ctx, req.Ticker, end.AddDate(0, 0, -req.LookbackDays), end)
	if err != nil {
		return nil, err
	}

	in := risk.Input{
		Series:           series,
		PositionValue:    req.PositionValue,
		ConfidenceLevels: req.ConfidenceLevels,
		Scenarios:        req.Scenarios,
		Weights:          req.Weights,
		Synthetic:        synthetic,
	}

	varResult, stresses, err := risk.AssessRisk(in)
	if err != nil {
		return nil, err
	}
	report = RiskReport{VaR: varResult, Stresses: stresses}

	if _, err := s.history.RecordRisk(req.Ticker, in, varResult, stresses); err != nil {
		logger.Get().Errorw("failed to persist risk run", "error", err, "ticker", req.Ticker)
	}
	s.toCache(ctx, key, &report)
	return &report, nil
}

// RunSupply builds the relationship graph, computes centrality and the
// chokepoint ranking, persists the run, and returns the report.
func (s *analysisService) RunSupply(ctx context.Context, req SupplyRequest) (*SupplyReport, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, err)
	}

	key := cache.Key("supply", req)
	var report SupplyReport
	if s.fromCache(ctx, key, &report) {
		return &report, nil
	}

	g, err := supply.NewGraph(req.Edges, req.ExtraNodes...)
	if err != nil {
		return nil, err
	}

	opts := supply.Options{
		BetweennessWeight: req.WeightBetween,
		GeoWeight:         req.WeightGeo,
		TopK:              req.TopK,
		MinScore:          req.MinScore,
	}
	if opts.BetweennessWeight == 0 && opts.GeoWeight == 0 {
		opts.BetweennessWeight = s.cfg.BetweennessWeight
		opts.GeoWeight = s.cfg.GeoWeight
	}

	metrics, chokepoints, err := supply.Analyze(g, req.GeoWeights, opts)
	if err != nil {
		return nil, err
	}
	report = SupplyReport{
		Metrics:     metrics,
		Chokepoints: chokepoints,
		NodeCount:   g.Order(),
		EdgeCount:   g.Size(),
	}

	if _, err := s.history.RecordSupply(req.Ticker, g, metrics, chokepoints); err != nil {
		logger.Get().Errorw("failed to persist supply run", "error", err, "ticker", req.Ticker)
	}
	s.toCache(ctx, key, &report)
	return &report, nil
}

func (s *analysisService) applyValuationDefaults(req *ValuationRequest) {
	if req.Horizon <= 0 {
		req.Horizon = s.cfg.Horizon
	}
	if req.GrowthRate == 0 {
		req.GrowthRate = s.cfg.GrowthRate
	}
	if req.TerminalGrowth == 0 {
		req.TerminalGrowth = s.cfg.TerminalGrowth
	}
	if len(req.Peers) == 0 {
		req.Peers = s.cfg.PeerTickers
	}
}

// snapshot resolves fundamentals for a ticker: price history feeds the last
// close, and the remaining figures come from the deterministic synthetic
// model scaled to that price. The synthetic flag reports whether the price
// path itself was substituted.
func (s *analysisService) snapshot(ctx context.Context, ticker string) (*valuation.FinancialSnapshot, bool, error) {
	end := time.Now().UTC()
	series, synthetic, err := s.data.History(ctx, ticker, end.AddDate(0, 0, -defaultLookbackDays), end)
	if err != nil {
		return nil, false, err
	}
	snap := marketdata.SyntheticSnapshot(ticker, series.Last())
	return &snap, synthetic, nil
}

// peerSnapshots resolves peer fundamentals concurrently with a bounded
// worker pool, preserving request order in the result.
func (s *analysisService) peerSnapshots(ctx context.Context, tickers []string) ([]valuation.FinancialSnapshot, bool, error) {
	if len(tickers) == 0 {
		return nil, false, nil
	}

	snaps := make([]*valuation.FinancialSnapshot, len(tickers))
	synthetics := make([]bool, len(tickers))
	errs := make([]error, len(tickers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, peerFetchWorkers)
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			snaps[i], synthetics[i], errs[i] = s.snapshot(ctx, ticker)
		}(i, ticker)
	}
	wg.Wait()

	anySynthetic := false
	out := make([]valuation.FinancialSnapshot, 0, len(tickers))
	for i := range tickers {
		if errs[i] != nil {
			return nil, false, errs[i]
		}
		out = append(out, *snaps[i])
		anySynthetic = anySynthetic || synthetics[i]
	}
	return out, anySynthetic, nil
}

func (s *analysisService) fromCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Get().Warnw("dropping undecodable cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (s *analysisService) toCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Get().Warnw("failed to marshal cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
		logger.Get().Warnw("failed to write cache entry", "key", key, "error", err)
	}
}
