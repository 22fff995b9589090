package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"NavSentinel/internal/apperr"
)

var yearPattern = regexp.MustCompile(`(\d{4})\s*$`)

// AumClient queries the AMFI quarterly average-AUM report. Results are not
// cached.
type AumClient struct {
	URL     string
	Client  *http.Client
	YearIDs map[string]string
}

// NewAumClient creates a report client with optional proxy support.
func NewAumClient(endpoint, proxyURL string, timeout time.Duration, yearIDs map[string]string) *AumClient {
	return &AumClient{URL: endpoint, Client: newHTTPClient(proxyURL, timeout), YearIDs: yearIDs}
}

// Lookup returns the average AUM in lakhs of the first scheme whose name
// contains scheme, case-insensitively.
func (c *AumClient) Lookup(ctx context.Context, fundID, scheme, yearQuarter string) (decimal.Decimal, error) {
	m := yearPattern.FindStringSubmatch(strings.TrimSpace(yearQuarter))
	if m == nil {
		return decimal.Zero, fmt.Errorf("year quarter %q: %w", yearQuarter, apperr.ErrInvalidFormat)
	}
	yearID, ok := c.YearIDs[m[1]]
	if !ok {
		return decimal.Zero, fmt.Errorf("report year %s: %w", m[1], apperr.ErrNotFound)
	}

	form := url.Values{
		"AUmType":      {"S"},
		"AumCatType":   {"Typewise"},
		"MF_Id":        {fundID},
		"Year_Id":      {yearID},
		"Year_Quarter": {yearQuarter},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return decimal.Zero, err
	}
	// Headers to mimic a browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.Client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("aum fetch: %v: %w", err, apperr.ErrSourceUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("aum fetch: status %d: %w", resp.StatusCode, apperr.ErrSourceUnavailable)
	}

	tables, err := parseTables(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("aum parse: %w", err)
	}
	if len(tables) == 0 {
		return decimal.Zero, fmt.Errorf("aum report has no table: %w", apperr.ErrSourceUnavailable)
	}
	return findAum(tables[0], scheme)
}

func findAum(t htmlTable, scheme string) (decimal.Decimal, error) {
	schemeCol, aumCol := -1, -1
	for i, name := range t.Columns() {
		if schemeCol < 0 && strings.Contains(name, "Scheme NAV Name") {
			schemeCol = i
		}
		if aumCol < 0 && strings.Contains(name, "Average AUM for The Month") && !strings.Contains(name, "Fund Of Funds") {
			aumCol = i
		}
	}
	if schemeCol < 0 || aumCol < 0 {
		return decimal.Zero, fmt.Errorf("aum report columns missing: %w", apperr.ErrSourceUnavailable)
	}

	needle := strings.ToLower(scheme)
	for _, row := range t.DataRows() {
		if schemeCol >= len(row) || aumCol >= len(row) {
			continue
		}
		if !strings.Contains(strings.ToLower(row[schemeCol]), needle) {
			continue
		}
		v, err := decimal.NewFromString(strings.ReplaceAll(row[aumCol], ",", ""))
		if err != nil {
			return decimal.Zero, fmt.Errorf("aum value %q: %w", row[aumCol], apperr.ErrSourceUnavailable)
		}
		return v, nil
	}
	return decimal.Zero, fmt.Errorf("scheme %q in aum report: %w", scheme, apperr.ErrNotFound)
}
