package services

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("calls callback on first token fetch", func(t *testing.T) {
		var captured *oauth2.Token
		source := NewRefreshableTokenSource(&mockTokenSource{token: &oauth2.Token{AccessToken: "test_token"}}, func(token *oauth2.Token) {
			captured = token
		})

		token, err := source.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if captured == nil || captured.AccessToken != "test_token" {
			t.Errorf("expected callback with test_token, got %v", captured)
		}
		if token.AccessToken != "test_token" {
			t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
		}
	})

	t.Run("calls callback only when token changes", func(t *testing.T) {
		callCount := 0
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "token1"}}
		source := NewRefreshableTokenSource(mock, func(*oauth2.Token) { callCount++ })

		_, _ = source.Token()
		_, _ = source.Token()
		if callCount != 1 {
			t.Errorf("expected callback called once, got %d", callCount)
		}

		mock.token = &oauth2.Token{AccessToken: "token2"}
		_, _ = source.Token()
		if callCount != 2 {
			t.Errorf("expected callback called twice, got %d", callCount)
		}
	})

	t.Run("handles nil callback", func(t *testing.T) {
		source := NewRefreshableTokenSource(&mockTokenSource{token: &oauth2.Token{AccessToken: "t"}}, nil)
		if _, err := source.Token(); err != nil {
			t.Fatalf("expected no error with nil callback, got %v", err)
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := NewRefreshableTokenSource(&mockTokenSource{err: errors.New("token source error")}, func(*oauth2.Token) {
			t.Error("callback should not be called on error")
		})

		token, err := source.Token()
		if err == nil || !strings.Contains(err.Error(), "token source error") {
			t.Errorf("expected source error, got %v", err)
		}
		if token != nil {
			t.Error("expected nil token on error")
		}
	})
}
