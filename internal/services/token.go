package services

import (
	"sync"

	"golang.org/x/oauth2"
)

// refreshableTokenSource calls callback whenever the wrapped source hands out a new access token.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

// NewRefreshableTokenSource wraps source so callback observes every refreshed token.
//
// The callback runs synchronously inside Token and must not block for long.
func NewRefreshableTokenSource(source oauth2.TokenSource, callback func(*oauth2.Token)) oauth2.TokenSource {
	return &refreshableTokenSource{source: source, callback: callback}
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.callback(token)
	}
	return token, nil
}
