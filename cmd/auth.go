package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/server"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// authStatus is the output of auth status.
type authStatus struct {
	Username  string    `json:"username"`
	Store     string    `json:"store"`
	Cached    bool      `json:"cached"`
	Expiry    time.Time `json:"expiry,omitzero"`
	UserID    string    `json:"user_id,omitempty"`
	Display   string    `json:"display_name,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// AuthLogin performs the OAuth2 authorization code flow and caches the token.
//
// Starts a local HTTP server, opens the browser for user authorization, and exchanges the code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.newService()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, svc)
	if err != nil {
		return err
	}

	if _, err := r.openCache(); err != nil {
		return err
	}

	username := r.username()
	if r.tokens != nil {
		if err := r.tokens.Save(ctx, username, token); err != nil {
			return err
		}
		r.logger.Info("token cached", "user", username, "path", r.config.Database.Path)
	} else {
		if err := r.config.Credentials.Spotify.Update(token); err != nil {
			return fmt.Errorf("failed to update spotify configuration: %w", err)
		}
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		r.logger.Info("token saved", "path", r.configPath)
	}

	r.writePlainln("✓ Authorization successful")
	if err := svc.UseToken(ctx, token); err == nil {
		if user, err := svc.Me(ctx); err == nil {
			r.writePlain("✓ Logged in as %s (%s)\n", user.DisplayName, user.ID)
		} else {
			r.logger.Warn("could not fetch profile", "err", err)
		}
	}
	r.writePlain("\nYou can now use: spx playlist list\n")
	return nil
}

// AuthStatus reports whether a token is cached and, if so, which user it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.openCache(); err != nil {
		return err
	}

	status := authStatus{Username: r.username(), Timestamp: shared.Timestamp(time.Now())}

	var token *oauth2.Token
	if r.tokens != nil {
		status.Store = r.config.Database.Path
		t, err := r.tokens.Get(ctx, status.Username)
		if err != nil && !errors.Is(err, shared.ErrNoCachedToken) {
			return err
		}
		token = t
	} else {
		status.Store = r.configPath
		token = r.config.Credentials.Spotify.Token()
	}

	if token != nil {
		status.Cached = true
		status.Expiry = token.Expiry

		if session, err := r.currentSession(ctx); err != nil {
			status.Error = err.Error()
		} else {
			status.UserID = session.UserID
			status.Display = session.DisplayName
		}
	}

	return r.emit(cmd, status, func() error {
		r.writePlain("Store: %s\n", status.Store)
		r.writePlain("Username: %s\n", status.Username)
		if !status.Cached {
			r.writePlain("Token: ✗ none, run 'spx auth login'\n")
			return nil
		}
		r.writePlain("Token: ✓ cached\n")
		if !status.Expiry.IsZero() {
			r.writePlain("Expiry: %s\n", shared.Timestamp(status.Expiry))
		}
		if status.Error != "" {
			r.writePlain("User: ✗ %s\n", status.Error)
		} else {
			r.writePlain("User: %s (%s)\n", status.Display, status.UserID)
		}
		return nil
	})
}

// AuthLogout deletes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.openCache(); err != nil {
		return err
	}

	username := r.username()
	if r.tokens != nil {
		if err := r.tokens.Delete(ctx, username); err != nil {
			return err
		}
		r.logger.Info("token deleted", "user", username)
		return r.writePlain("✓ Logged out %s\n", username)
	}

	spotify := &r.config.Credentials.Spotify
	if spotify.AccessToken == "" {
		return fmt.Errorf("%w: %s", shared.ErrNoCachedToken, username)
	}
	spotify.AccessToken, spotify.RefreshToken, spotify.TokenType = "", "", ""
	spotify.Expiry = time.Time{}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return r.writePlain("✓ Logged out, token removed from %s\n", r.configPath)
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(svc.Config(), state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv, err := server.Listen(addr, router, r.logger)
	if err != nil {
		return nil, err
	}
	defer srv.Shutdown()
	r.logger.Info("started OAuth callback server", "addr", srv.Addr())

	authURL := oauthHandler.AuthURL(oauth2.AccessTypeOffline)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-srv.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
