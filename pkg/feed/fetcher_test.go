package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcherFetch(t *testing.T) {
	const body = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/calendar,application/calendar" {
			t.Errorf("Accept header = %q", got)
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, nil)
	got, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got != body {
		t.Errorf("Fetch = %q, want %q", got, body)
	}
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, nil)
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(100*time.Millisecond, nil)
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected timeout error from slow source")
	}
}

func TestHTTPFetcherContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewHTTPFetcher(5*time.Second, nil)
	if _, err := fetcher.Fetch(ctx, server.URL); err == nil {
		t.Error("expected error from cancelled context")
	}
}
