package model

import "github.com/shopspring/decimal"

// FundRecord maps a human-readable fund name to the provider identifiers.
type FundRecord struct {
	Company          string `json:"company" yaml:"company"`
	Fund             string `json:"fund" yaml:"fund"`
	ProviderFundID   string `json:"mfID" yaml:"mf_id"`
	ProviderSchemeID string `json:"scID" yaml:"sc_id"`
}

// SeriesID is the cache identifier of the fund's NAV series.
func (f FundRecord) SeriesID() string {
	return f.ProviderFundID + "@" + f.ProviderSchemeID
}

// SeriesStats summarises a series for display.
type SeriesStats struct {
	StartDate *Date    `json:"startDate"`
	EndDate   *Date    `json:"endDate"`
	NullDates []Date   `json:"nullDates"`
	Average   *float64 `json:"average"`
	StdDev    *float64 `json:"stdDev"`
}

// AlignedPoint is one row of a fund/index comparison.
type AlignedPoint struct {
	Date            Date    `json:"date"`
	NAV             float64 `json:"nav"`
	Index           float64 `json:"close"`
	NAVNormalized   float64 `json:"nav_norm"`
	IndexNormalized float64 `json:"nifty_norm"`
}

// Prediction is a single forecast day.
type Prediction struct {
	Date      Date    `json:"date"`
	Predicted float64 `json:"nav_predicted"`
}

// ForecastMetrics holds held-out accuracy as plain percentages of the mean.
type ForecastMetrics struct {
	RMSEPercent float64 `json:"rmse_percent"`
	MAEPercent  float64 `json:"mae_percent"`
}

// ForecastResult is the output of the forecast engine.
type ForecastResult struct {
	Predictions []Prediction    `json:"predictions"`
	Metrics     ForecastMetrics `json:"metrics"`
}

// AumRecord is the quarterly average AUM of one scheme.
type AumRecord struct {
	Fund        string          `json:"fund"`
	YearQuarter string          `json:"year_quarter"`
	AumLakhs    decimal.Decimal `json:"aum_lakhs"`
}
