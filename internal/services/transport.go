package services

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedTransport spaces outgoing requests with a token bucket.
//
// A nil Limiter passes requests straight through.
type RateLimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewRateLimitedTransport allows rps requests per second through base. rps <= 0 disables limiting.
func NewRateLimitedTransport(base http.RoundTripper, rps float64) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &RateLimitedTransport{Base: base}
	if rps > 0 {
		t.Limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	return t
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return t.Base.RoundTrip(req)
}
