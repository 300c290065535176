package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAggBarTruncatesToUTCDay(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	ts := time.Date(2025, 1, 2, 16, 0, 0, 0, ny) // 21:00 UTC

	b := aggBar(ts, 1, 2, 0.5, 1.5, 100)
	want := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	if !b.Date.Equal(want) {
		t.Fatalf("expected date %v, got %v", want, b.Date)
	}
	if b.Close != 1.5 || b.Volume != 100 {
		t.Fatalf("unexpected bar %+v", b)
	}
}

func TestProviderNames(t *testing.T) {
	providers := []struct {
		want     string
		provider Provider
	}{
		{"massive", NewMassiveDataProvider("test")},
		{"polygon", NewPolygonDataProvider("test")},
		{"twelvedata", NewTwelveDataProvider("http://localhost", "test")},
		{"csv", NewLocalCSVDataProvider(t.TempDir())},
		{"synthetic", NewSyntheticProvider(1)},
	}
	for _, p := range providers {
		if got := p.provider.Name(); got != p.want {
			t.Fatalf("expected name %s, got %s", p.want, got)
		}
		if p.provider.Secondary() != nil {
			t.Fatalf("%s: expected no secondary", p.want)
		}
	}
}

// redirectTransport sends every request to target, keeping path and query,
// so the SDK clients can be pointed at an httptest server.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// requestLog records request paths seen by a test server.
type requestLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *requestLog) add(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

func newAggsServer(t *testing.T, status int, body string) (*http.Client, *requestLog) {
	t.Helper()
	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return &http.Client{Timeout: 5 * time.Second, Transport: redirectTransport{target: target}}, log
}

// 2025-01-02 and 2025-01-03, 05:00 UTC
const aggsPayload = `{
	"ticker": "AAPL",
	"status": "OK",
	"adjusted": true,
	"queryCount": 2,
	"resultsCount": 2,
	"request_id": "req-1",
	"results": [
		{"o": 100, "h": 102, "l": 99, "c": 101, "v": 1000, "t": 1735794000000},
		{"o": 101, "h": 104, "l": 100, "c": 103.5, "v": 1200, "t": 1735880400000}
	]
}`

const aggsErrorPayload = `{"status": "ERROR", "request_id": "req-2", "error": "Unknown API Key"}`

func sdkProviders(hc *http.Client) []Provider {
	return []Provider{
		newMassiveDataProvider("test-key", hc),
		newPolygonDataProvider("test-key", hc),
	}
}

func TestSDKProvidersGetDailyBars(t *testing.T) {
	hc, log := newAggsServer(t, http.StatusOK, aggsPayload)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	for _, prov := range sdkProviders(hc) {
		bars, err := prov.GetDailyBars(context.Background(), "AAPL", from, to)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", prov.Name(), err)
		}
		if len(bars) != 2 {
			t.Fatalf("%s: expected 2 bars, got %d", prov.Name(), len(bars))
		}
		if !bars[0].Date.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) ||
			!bars[1].Date.Equal(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("%s: expected ascending daily dates, got %v and %v", prov.Name(), bars[0].Date, bars[1].Date)
		}
		if bars[1].Close != 103.5 || bars[1].High != 104 || bars[0].Volume != 1000 {
			t.Fatalf("%s: unexpected bars %+v", prov.Name(), bars)
		}
	}

	paths := log.all()
	if len(paths) != 2 {
		t.Fatalf("expected one request per provider, got %v", paths)
	}
	for _, p := range paths {
		if !strings.HasPrefix(p, "/v2/aggs/ticker/AAPL/range/1/day/") {
			t.Fatalf("unexpected request path %s", p)
		}
	}
}

func TestSDKProvidersSurfaceErrors(t *testing.T) {
	hc, _ := newAggsServer(t, http.StatusForbidden, aggsErrorPayload)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	for _, prov := range sdkProviders(hc) {
		bars, err := prov.GetDailyBars(context.Background(), "AAPL", from, to)
		if err == nil {
			t.Fatalf("%s: expected error, got %d bars", prov.Name(), len(bars))
		}
		if !strings.Contains(err.Error(), prov.Name()+" aggs AAPL") {
			t.Fatalf("%s: expected wrapped error, got %v", prov.Name(), err)
		}
		if bars != nil {
			t.Fatalf("%s: expected no partial result, got %+v", prov.Name(), bars)
		}
	}
}
