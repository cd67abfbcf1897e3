package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the redirect of an OAuth2 authorization code flow with PKCE.
//
// Only the first callback is processed; later ones get 400.
type OAuthHandler struct {
	config   *oauth2.Config
	state    string
	verifier string
	results  chan OAuthResult
	once     sync.Once
	handled  atomic.Bool
}

// NewOAuthHandler creates a handler for config. state should be random; a fresh PKCE verifier is generated.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:   config,
		state:    state,
		verifier: oauth2.GenerateVerifier(),
		results:  make(chan OAuthResult, 1),
	}
}

// AuthURL returns the consent page URL carrying the state and PKCE challenge.
func (h *OAuthHandler) AuthURL(opts ...oauth2.AuthCodeOption) string {
	opts = append(opts, oauth2.S256ChallengeOption(h.verifier))
	return h.config.AuthCodeURL(h.state, opts...)
}

// Routes returns the path of the configured redirect URL, or /callback.
func (h *OAuthHandler) Routes() []string {
	if u, err := url.Parse(h.config.RedirectURL); err == nil && u.Path != "" && u.Path != "/" {
		return []string{u.Path}
	}
	return []string{"/callback"}
}

// ServeHTTP validates state, exchanges the authorization code, and sends the result through [OAuthHandler.Result].
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "callback already handled", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))
		h.Send(OAuthResult{err: err})
		http.Error(w, "authorization denied", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code, oauth2.VerifierOption(h.verifier))
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)})
		http.Error(w, "token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send delivers result to [OAuthHandler.Result]. Calls after the first are dropped.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields one result, then is closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const successPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>spx</title></head>
<body style="background:#191414;color:#fff;font-family:sans-serif;text-align:center;padding-top:20vh">
  <h1 style="color:#1DB954">spx is connected to Spotify</h1>
  <p>Return to your terminal; this tab can be closed.</p>
</body>
</html>
`
