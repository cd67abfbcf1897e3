package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultUsername = "default"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The Spotify client, engine and credential cache are created on first use so that commands such
// as setup and auth login work before any token exists.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	engine     *tasks.Engine
	db         *sql.DB
	tokens     *repositories.TokenRepository
	transfers  *repositories.TransferRepository
	session    *services.Session
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService // an already authenticated client; skips token lookup
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// before loads configuration once the leaf command's flags are parsed.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if r.config != nil {
		return ctx, nil
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return ctx, err
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	config.ApplyEnv(os.LookupEnv)
	r.config = config
	return ctx, nil
}

// Close releases the credential cache.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) username() string {
	if r.config != nil && r.config.Credentials.Spotify.Username != "" {
		return r.config.Credentials.Spotify.Username
	}
	return defaultUsername
}

// openCache opens the sqlite credential cache. It returns nil without error when no database path is configured.
func (r *Runner) openCache() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenCredentialCache(r.config.Database)
	if errors.Is(err, shared.ErrMissingConfig) {
		r.logger.Debug("credential cache disabled, tokens are kept in the config file")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open credential cache: %w", err)
	}

	r.db = db
	r.tokens = repositories.NewTokenRepository(db)
	r.transfers = repositories.NewTransferRepository(db)
	return db, nil
}

// newService builds an unauthenticated Spotify client from the config.
func (r *Runner) newService() (*services.SpotifyService, error) {
	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
	if err != nil {
		return nil, fmt.Errorf("%w (set client_id and client_secret in %s or SPOTIPY_CLIENT_ID/SPOTIPY_CLIENT_SECRET)", err, r.configPath)
	}
	svc.SetRateLimit(r.config.Limits.RequestsPerSecond)
	return svc, nil
}

// authenticate installs the cached token on svc. Refreshed tokens are written back to wherever they came from.
func (r *Runner) authenticate(ctx context.Context, svc *services.SpotifyService) error {
	username := r.username()

	if r.tokens != nil {
		token, err := r.tokens.Get(ctx, username)
		if errors.Is(err, shared.ErrNoCachedToken) {
			return fmt.Errorf("%w: no token for %q, run 'spx auth login'", shared.ErrNotAuthenticated, username)
		}
		if err != nil {
			return err
		}
		return svc.UseTokenSource(ctx, r.tokens.NewTokenSource(username, svc.Config().TokenSource(ctx, token), r.logger))
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return fmt.Errorf("%w: no token in %s, run 'spx auth login'", shared.ErrNotAuthenticated, r.configPath)
	}
	svc.SetTokenRefreshCallback(r.saveConfigToken)
	return svc.UseToken(ctx, token)
}

// saveConfigToken persists a refreshed token to the config file.
func (r *Runner) saveConfigToken(token *oauth2.Token) {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		r.logger.Warn("ignoring refreshed token", "err", err)
		return
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save refreshed token", "path", r.configPath, "err", err)
	}
}

// connect returns the engine, authenticating the Spotify client on first use.
func (r *Runner) connect(ctx context.Context) (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.openCache(); err != nil {
		return nil, err
	}

	if r.spotify == nil {
		svc, err := r.newService()
		if err != nil {
			return nil, err
		}
		if err := r.authenticate(ctx, svc); err != nil {
			return nil, err
		}
		r.spotify = svc
	}

	opts := tasks.EngineOpts{BatchSize: r.config.Limits.BatchSize, Logger: r.logger}
	if r.transfers != nil {
		opts.History = r.transfers
	}
	r.engine = tasks.NewEngine(r.spotify, opts)
	return r.engine, nil
}

// currentSession resolves the authenticated user once per process.
func (r *Runner) currentSession(ctx context.Context) (services.Session, error) {
	if r.session != nil {
		return *r.session, nil
	}
	engine, err := r.connect(ctx)
	if err != nil {
		return services.Session{}, err
	}
	session, err := engine.Session(ctx)
	if err != nil {
		return services.Session{}, err
	}
	r.session = &session
	return session, nil
}

// emit writes data as JSON when --json is set and calls plain otherwise.
func (r *Runner) emit(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// writeRaw writes a JSON document as received, re-indenting it when pretty is set.
func (r *Runner) writeRaw(data json.RawMessage, pretty bool) error {
	if !pretty {
		return r.writePlain("%s\n", data)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return r.writeJSON(v, true)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
