package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NavSentinel/internal/model"
)

// AMFISource implements Source against the AMFI NAV history endpoint, which
// answers a form POST with an HTML table: NAV in the first column, date in
// the fourth.
type AMFISource struct {
	URL    string
	Client *http.Client
}

// NewAMFISource creates a NAV source with optional proxy support.
func NewAMFISource(endpoint, proxyURL string, timeout time.Duration) *AMFISource {
	return &AMFISource{URL: endpoint, Client: newHTTPClient(proxyURL, timeout)}
}

func (s *AMFISource) Name() string { return "amfi" }

func (s *AMFISource) Fetch(ctx context.Context, key Key, from, to model.Date) ([]model.Point, error) {
	form := url.Values{
		"mfID":  {key.FundID},
		"scID":  {key.SchemeID},
		"fDate": {from.String()},
		"tDate": {to.String()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amfi fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("amfi fetch: status %d", resp.StatusCode)
	}

	rows, err := parseRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("amfi parse: %w", err)
	}
	return navPoints(rows), nil
}

// navPoints converts table rows into points, skipping the header row and
// any row too short or with an unreadable date.
func navPoints(rows [][]string) []model.Point {
	if len(rows) == 0 {
		return nil
	}
	points := make([]model.Point, 0, len(rows)-1)
	for _, cols := range rows[1:] {
		if len(cols) < 4 {
			continue
		}
		d, err := model.ParseDate(cols[3])
		if err != nil {
			continue
		}
		points = append(points, model.Point{Date: d, Value: model.ParseValue(cols[0])})
	}
	return points
}
