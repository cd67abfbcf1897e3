package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig creates the config file from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file already exists", "path", r.configPath)
		return r.writePlain("Config already exists at %s\n", r.configPath)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Created %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set client_id and client_secret under [credentials.spotify]\n")
	r.writePlain("2. Add %s to your app's redirect URIs\n", r.config.Credentials.Spotify.RedirectURI)
	r.writePlain("3. Run 'spx auth login'\n")
	return nil
}

// SetupDatabase initializes the credential cache and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openCache()
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("%w: set database.path in %s or SPX_CRED_CACHE", shared.ErrMissingConfig, r.configPath)
	}

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	for _, m := range applied {
		r.writePlain("  migration %04d applied %s\n", m.Version, shared.Timestamp(m.AppliedAt))
	}
	return nil
}
