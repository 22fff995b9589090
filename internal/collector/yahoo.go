package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"NavSentinel/internal/model"
)

// YahooSource implements Source using the Yahoo Finance chart API.
type YahooSource struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Loc       *time.Location
	Now       func() time.Time
}

// NewYahooSource creates a new Yahoo Finance index source.
func NewYahooSource(baseURL, proxyURL string, timeout time.Duration) *YahooSource {
	return &YahooSource{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"NIFTY50":  "^NSEI",
			"NIFTY":    "^NSEI",
			"NIFTY 50": "^NSEI",
		},
		Loc: model.IST,
		Now: time.Now,
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := s.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns daily closes for [from, to], both inclusive. The current
// exchange day is never returned: its bar is a live intraday quote and the
// cache never overwrites a stored day.
func (s *YahooSource) Fetch(ctx context.Context, key Key, from, to model.Date) ([]model.Point, error) {
	loc := s.Loc
	if loc == nil {
		loc = model.IST
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	today := model.DateOf(now().In(loc))
	if !to.Before(today) {
		to = today.AddDays(-1)
	}
	if to.Before(from) {
		return nil, nil
	}
	start := time.Date(from.Time().Year(), from.Time().Month(), from.Time().Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Time().Year(), to.Time().Month(), to.Time().Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	u := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d",
		s.BaseURL, url.PathEscape(s.yahooSymbol(key.Symbol)), start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]model.Point, 0, len(result.Timestamp))
	seen := make(map[string]struct{}, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bars (holidays etc.)
		}
		d := model.DateOf(time.Unix(ts, 0).In(loc))
		if d.Before(from) || d.After(to) {
			continue
		}
		if _, dup := seen[d.String()]; dup {
			continue
		}
		seen[d.String()] = struct{}{}
		points = append(points, model.NewPoint(d, *closes[i]))
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
