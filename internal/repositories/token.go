package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository caches OAuth tokens per Spotify username.
type TokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenRepository creates a new TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

// Save stores token for username, replacing any cached token.
//
// An empty refresh token keeps the one already cached, since refresh responses may omit it.
func (r *TokenRepository) Save(ctx context.Context, username string, token *oauth2.Token) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrMissingArgument)
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: token has no access token", shared.ErrInvalidArgument)
	}

	var expiry any
	if !token.Expiry.IsZero() {
		expiry = token.Expiry.UTC()
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	now := r.now().UTC()
	query := `
		INSERT INTO tokens (username, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN tokens.refresh_token ELSE excluded.refresh_token END,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, username, token.AccessToken, token.RefreshToken, tokenType, expiry, now, now)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Get returns the cached token for username, or [shared.ErrNoCachedToken].
func (r *TokenRepository) Get(ctx context.Context, username string) (*oauth2.Token, error) {
	var (
		token  oauth2.Token
		expiry sql.NullTime
	)

	row := r.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, token_type, expiry FROM tokens WHERE username = ?`, username)
	err := row.Scan(&token.AccessToken, &token.RefreshToken, &token.TokenType, &expiry)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoCachedToken, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	return &token, nil
}

// Delete removes the cached token for username.
func (r *TokenRepository) Delete(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: %s", shared.ErrNoCachedToken, username))
}

// Usernames lists every user with a cached token.
func (r *TokenRepository) Usernames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT username FROM tokens ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// NewTokenSource wraps base so every refreshed token is written back to the cache for username.
//
// Write failures are logged and do not fail the request.
func (r *TokenRepository) NewTokenSource(username string, base oauth2.TokenSource, logger *log.Logger) oauth2.TokenSource {
	return services.NewRefreshableTokenSource(base, func(token *oauth2.Token) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Save(ctx, username, token); err != nil && logger != nil {
			logger.Warn("failed to cache refreshed token", "user", username, "err", err)
		}
	})
}
