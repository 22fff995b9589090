// Package service is the caller-facing API shared by the HTTP server and the
// CLI. Every operation validates its input and resolves the fund before any
// fetch or store write happens.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/cache"
	"NavSentinel/internal/calculator"
	"NavSentinel/internal/collector"
	"NavSentinel/internal/compare"
	"NavSentinel/internal/daterange"
	"NavSentinel/internal/model"
)

// IndexID is the cache identifier of the benchmark index series.
const IndexID = "NIFTY50"

// FundLookup resolves fund names.
type FundLookup interface {
	Find(name string) (model.FundRecord, error)
	List() []model.FundRecord
}

// AumLookup queries the quarterly AUM report.
type AumLookup interface {
	Lookup(ctx context.Context, fundID, scheme, yearQuarter string) (decimal.Decimal, error)
}

// Forecaster produces a forecast from a NAV series.
type Forecaster interface {
	Forecast(s model.Series) (*model.ForecastResult, error)
}

// Deps wires a Service.
type Deps struct {
	Validator   *daterange.Validator
	Funds       FundLookup
	Cache       *cache.Cache
	NavSource   collector.Source
	IndexSource collector.Source
	IndexSymbol string
	Aum         AumLookup
	Forecaster  Forecaster
	Log         zerolog.Logger
}

// Service implements the NAV, index, comparison, forecast and AUM queries.
type Service struct {
	validator   *daterange.Validator
	funds       FundLookup
	cache       *cache.Cache
	navSource   collector.Source
	indexSource collector.Source
	indexKey    collector.Key
	aum         AumLookup
	forecaster  Forecaster
	log         zerolog.Logger
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Validator == nil {
		d.Validator = daterange.NewValidator(daterange.DefaultHorizonYears)
	}
	if d.IndexSymbol == "" {
		d.IndexSymbol = IndexID
	}
	return &Service{
		validator:   d.Validator,
		funds:       d.Funds,
		cache:       d.Cache,
		navSource:   d.NavSource,
		indexSource: d.IndexSource,
		indexKey:    collector.Key{Symbol: d.IndexSymbol},
		aum:         d.Aum,
		forecaster:  d.Forecaster,
		log:         d.Log,
	}
}

// SeriesResult is a series window with its summary statistics.
type SeriesResult struct {
	Series model.Series
	Stats  model.SeriesStats
}

// CompareResult is a fund/index alignment.
type CompareResult struct {
	Points      []model.AlignedPoint
	Correlation *float64
}

// ListFunds returns every registered fund.
func (s *Service) ListFunds() []model.FundRecord {
	return s.funds.List()
}

// GetSeries returns the NAV series of fund for [from, to].
func (s *Service) GetSeries(ctx context.Context, fund, from, to string) (*SeriesResult, error) {
	rng, rec, err := s.resolve(fund, from, to)
	if err != nil {
		return nil, err
	}
	series, err := s.fundSeries(ctx, rec, rng)
	if err != nil {
		return nil, err
	}
	return &SeriesResult{Series: series, Stats: calculator.Describe(series)}, nil
}

// GetIndex returns the benchmark index series for [from, to].
func (s *Service) GetIndex(ctx context.Context, from, to string) (*SeriesResult, error) {
	rng, err := s.validator.Parse(from, to)
	if err != nil {
		return nil, err
	}
	series, err := s.cache.Get(ctx, IndexID, s.indexSource, s.indexKey, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	return &SeriesResult{Series: series, Stats: calculator.Describe(series)}, nil
}

// Compare aligns fund against the index over [from, to].
func (s *Service) Compare(ctx context.Context, fund, from, to string) (*CompareResult, error) {
	rng, rec, err := s.resolve(fund, from, to)
	if err != nil {
		return nil, err
	}
	nav, err := s.fundSeries(ctx, rec, rng)
	if err != nil {
		return nil, err
	}
	index, err := s.cache.Get(ctx, IndexID, s.indexSource, s.indexKey, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	points, corr, err := compare.Align(nav, index)
	if err != nil {
		return nil, fmt.Errorf("compare %s: %w", rec.Fund, err)
	}
	return &CompareResult{Points: points, Correlation: corr}, nil
}

// Predict forecasts the fund's NAV from its history in [from, to].
func (s *Service) Predict(ctx context.Context, fund, from, to string) (*model.ForecastResult, error) {
	rng, rec, err := s.resolve(fund, from, to)
	if err != nil {
		return nil, err
	}
	nav, err := s.fundSeries(ctx, rec, rng)
	if err != nil {
		return nil, err
	}
	res, err := s.forecaster.Forecast(nav)
	if err != nil {
		s.log.Warn().Err(err).Str("fund", rec.Fund).Msg("forecast failed")
		return nil, fmt.Errorf("predict %s: %w", rec.Fund, err)
	}
	return res, nil
}

// GetAum returns the fund's average AUM for a quarter such as
// "April - June 2025".
func (s *Service) GetAum(ctx context.Context, fund, yearQuarter string) (*model.AumRecord, error) {
	if strings.TrimSpace(yearQuarter) == "" {
		return nil, fmt.Errorf("year quarter is required: %w", apperr.ErrInvalidFormat)
	}
	rec, err := s.funds.Find(fund)
	if err != nil {
		return nil, err
	}
	aum, err := s.aum.Lookup(ctx, rec.ProviderFundID, rec.Fund, yearQuarter)
	if err != nil {
		return nil, err
	}
	return &model.AumRecord{Fund: rec.Fund, YearQuarter: yearQuarter, AumLakhs: aum}, nil
}

// resolve validates the window, then looks the fund up.
func (s *Service) resolve(fund, from, to string) (daterange.Range, model.FundRecord, error) {
	rng, err := s.validator.Parse(from, to)
	if err != nil {
		return daterange.Range{}, model.FundRecord{}, err
	}
	rec, err := s.funds.Find(fund)
	if err != nil {
		return daterange.Range{}, model.FundRecord{}, err
	}
	return rng, rec, nil
}

func (s *Service) fundSeries(ctx context.Context, rec model.FundRecord, rng daterange.Range) (model.Series, error) {
	key := collector.Key{FundID: rec.ProviderFundID, SchemeID: rec.ProviderSchemeID}
	return s.cache.Get(ctx, rec.SeriesID(), s.navSource, key, rng.From, rng.To)
}

// RefreshFund warms the cached NAV series of rec over rng and returns the
// number of points in the window.
func (s *Service) RefreshFund(ctx context.Context, rec model.FundRecord, rng daterange.Range) (int, error) {
	series, err := s.fundSeries(ctx, rec, rng)
	return len(series), err
}

// RefreshIndex warms the index series over rng.
func (s *Service) RefreshIndex(ctx context.Context, rng daterange.Range) (int, error) {
	series, err := s.cache.Get(ctx, IndexID, s.indexSource, s.indexKey, rng.From, rng.To)
	return len(series), err
}

// Validator exposes the window validator for callers building trailing
// ranges.
func (s *Service) Validator() *daterange.Validator { return s.validator }
