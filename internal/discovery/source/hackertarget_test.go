package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
)

func newTestHackerTarget(serverURL string) *HackerTarget {
	s := NewHackerTarget(Options{Limiter: ratelimit.New(), PaceDelay: 1})
	s.BaseURL = serverURL
	return s
}

func TestHackerTargetParsesCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "example.com" {
			t.Errorf("query = %q, want example.com", got)
		}
		w.Write([]byte("www.example.com,93.184.216.34\nAPI.example.com,93.184.216.35\nnotahostname\n"))
	}))
	defer server.Close()

	result, err := newTestHackerTarget(server.URL).Discover(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	// The dotless line is not a hostname and is skipped.
	if len(result.Items) != 2 {
		t.Fatalf("got %d items %v, want 2", len(result.Items), result.Items)
	}
	first := result.Items[0]
	if first.Identifier != "www.example.com" {
		t.Errorf("identifier = %q", first.Identifier)
	}
	if len(first.Metadata.ResolvedIPs) != 1 || first.Metadata.ResolvedIPs[0] != "93.184.216.34" {
		t.Errorf("resolved IPs = %v", first.Metadata.ResolvedIPs)
	}
	if result.Items[1].Identifier != "api.example.com" {
		t.Errorf("identifiers should be lower-cased, got %q", result.Items[1].Identifier)
	}
	if result.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", result.Confidence)
	}
}

func TestHackerTargetAPICountExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("API count exceeded - Increase Quota with Membership"))
	}))
	defer server.Close()

	_, err := newTestHackerTarget(server.URL).Discover(context.Background(), testQuery())
	if err == nil {
		t.Fatal("quota message should surface as an error")
	}
	var rateErr *discovery.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("want *RateLimitError, got %v", err)
	}
	if rateErr.Service != "hackertarget" || rateErr.RetryAfter != time.Hour {
		t.Errorf("unexpected rate limit error: %+v", rateErr)
	}
}
