package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/pulse-news/internal/config"
	"github.com/samvad-hq/pulse-news/internal/domain"
	"github.com/samvad-hq/pulse-news/pkg/providers"
)

type stubFetcher struct {
	calls atomic.Int32
}

func (s *stubFetcher) ID() string { return "stub" }

func (s *stubFetcher) FetchCategory(_ context.Context, q providers.Query) ([]domain.Article, error) {
	s.calls.Add(1)
	return []domain.Article{{
		Title: q.Category,
		URL:   fmt.Sprintf("https://news.example/%s/%d", q.Category, q.Offset),
	}}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StorageType:      "bbolt",
		BBoltPath:        filepath.Join(t.TempDir(), "pulse.db"),
		IDScheme:         "rolling",
		PageLimit:        12,
		OlderOffset:      30,
		FetchConcurrency: 2,
		ListingWait:      2 * time.Second,
		SuggestionLimit:  6,
		ShareFallbackURL: "https://share.example/?u=%s",
		HTTPAddr:         "127.0.0.1:0",
	}
}

func health(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return body
}

func TestReaderServesListingFromDefaultCategories(t *testing.T) {
	fetcher := &stubFetcher{}
	r, err := newReader(context.Background(), testConfig(t), nil, fetcher)
	if err != nil {
		t.Fatalf("newReader: %v", err)
	}
	defer r.close()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// five built-in sections, two fetches each
	if got := fetcher.calls.Load(); got != 10 {
		t.Fatalf("expected 10 fetches, got %d", got)
	}
	if got := health(t, r.Handler())["articles"].(float64); got != 10 {
		t.Fatalf("expected 10 cached articles, got %v", got)
	}
}

func TestReaderShowsConfiguredAppName(t *testing.T) {
	cfg := testConfig(t)
	cfg.AppName = "Morning Pulse"
	r, err := newReader(context.Background(), cfg, nil, &stubFetcher{})
	if err != nil {
		t.Fatalf("newReader: %v", err)
	}
	defer r.close()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saved", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<a class="brand" href="/">Morning Pulse</a>`) {
		t.Fatalf("brand not rendered from config:\n%s", rec.Body.String())
	}
}

func TestReaderRejectsBadCategoriesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CategoriesFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := newReader(context.Background(), cfg, nil, &stubFetcher{}); err == nil {
		t.Fatalf("expected error for missing categories file")
	}
}

func TestReaderUsesCategoriesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageType = "memory"
	cfg.CategoriesFile = filepath.Join(t.TempDir(), "categories.yaml")
	raw := "categories:\n  - id: tech\n    title: Tech\n    param: technology\n"
	if err := os.WriteFile(cfg.CategoriesFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fetcher := &stubFetcher{}
	r, err := newReader(context.Background(), cfg, nil, fetcher)
	if err != nil {
		t.Fatalf("newReader: %v", err)
	}
	defer r.close()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := fetcher.calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestReaderServeShutsDownOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.PrefetchInterval = 20 * time.Millisecond
	fetcher := &stubFetcher{}
	r, err := newReader(context.Background(), cfg, nil, fetcher)
	if err != nil {
		t.Fatalf("newReader: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.serve(ctx, ln) }()

	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls.Load() < 10 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fetcher.calls.Load() < 10 {
		t.Fatalf("prefetch loop did not run, calls=%d", fetcher.calls.Load())
	}

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}
	r.close()
}

func TestNewReaderNilConfig(t *testing.T) {
	if _, err := NewReader(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
