package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tu "github.com/desertthunder/spx/internal/testing"
	"golang.org/x/time/rate"
)

func TestRateLimitedTransport(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rt := NewRateLimitedTransport(nil, 0)
		if rt.Limiter != nil {
			t.Error("expected nil limiter when rps is 0")
		}
	})

	t.Run("passes through", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		defer ts.Close()

		client := &http.Client{Transport: NewRateLimitedTransport(http.DefaultTransport, 100)}
		resp, err := client.Get(ts.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusTeapot {
			t.Errorf("expected 418, got %d", resp.StatusCode)
		}
	})

	t.Run("respects context while waiting", func(t *testing.T) {
		limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
		limiter.Allow()
		rt := &RateLimitedTransport{Base: tu.NewMockRoundTripper(&http.Response{StatusCode: 200}, nil), Limiter: limiter}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.invalid", nil)

		if _, err := rt.RoundTrip(req); err == nil {
			t.Error("expected error from cancelled wait")
		}
	})

	t.Run("base transport errors propagate", func(t *testing.T) {
		rt := NewRateLimitedTransport(tu.NewMockRoundTripper(nil, errors.New("dial failed")), 0)
		req, _ := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
		if _, err := rt.RoundTrip(req); err == nil {
			t.Error("expected base error")
		}
	})
}
