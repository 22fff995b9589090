package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"NavSentinel/internal/model"
)

// Key identifies a series at its provider. NAV sources use FundID and
// SchemeID, index sources use Symbol.
type Key struct {
	FundID   string
	SchemeID string
	Symbol   string
}

func (k Key) String() string {
	if k.Symbol != "" {
		return k.Symbol
	}
	return k.FundID + "@" + k.SchemeID
}

// Source fetches date/value pairs for a key over an inclusive window. An
// error or an empty result both mean "no data"; callers decide how lenient
// to be.
type Source interface {
	Fetch(ctx context.Context, key Key, from, to model.Date) ([]model.Point, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
