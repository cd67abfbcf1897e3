package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spx/internal/batch"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCopy appends every track of --source to --target.
func (r *Runner) PlaylistCopy(ctx context.Context, cmd *cli.Command) error {
	sourceID := services.IDFromURI(cmd.String("source"))
	targetID := services.IDFromURI(cmd.String("target"))

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}
	engine = engine.WithBatchSize(r.batchSize(cmd.Int("batch-size")))

	r.logger.Info("copying playlist", "source", sourceID, "target", targetID, "batch_size", engine.BatchSize())

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if cmd.Bool("progress") && !cmd.Bool("json") {
		progressCh = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(done)
			for update := range progressCh {
				switch update.Phase {
				case tasks.Fetching:
					r.writePlain("📥 %s\n", update.Message)
				case tasks.Transferring:
					r.writePlain("   %s\n", update.Message)
				}
			}
		}()
	} else {
		close(done)
	}

	result, err := engine.CopyPlaylist(ctx, sourceID, targetID, progressCh)
	if progressCh != nil {
		close(progressCh)
	}
	<-done

	if result == nil {
		return err
	}

	if outErr := r.emit(cmd, result, func() error { return r.writeTransfer(result) }); outErr != nil {
		return outErr
	}
	return err
}

func (r *Runner) writeTransfer(result *models.TransferResult) error {
	if result.Error != "" {
		r.writePlainHeader("Copy Failed")
	} else {
		r.writePlainHeader("Copy Complete!")
	}
	r.writePlain("Source: %s\n", result.SourceID)
	r.writePlain("Target: %s\n", result.TargetID)
	r.writePlain("Tracks: %d/%d in %d batches of up to %d\n", result.ItemsTransferred, result.ItemsTotal, result.Batches, result.BatchSize)
	if result.Error != "" {
		r.writePlain("\n%d of %d tracks were added before the failure:\n  %s\n", result.ItemsTransferred, result.ItemsTotal, result.Error)
	}
	return nil
}

// batchSize resolves --batch-size against the config.
func (r *Runner) batchSize(flag int) int {
	if flag > 0 {
		return min(flag, batch.MaxBatchSize)
	}
	return r.config.Limits.BatchSize
}

// PlaylistHistory lists recorded copies, newest first.
func (r *Runner) PlaylistHistory(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.openCache(); err != nil {
		return err
	}
	if r.transfers == nil {
		return fmt.Errorf("%w: copy history needs database.path (or SPX_CRED_CACHE)", shared.ErrMissingConfig)
	}

	transfers, err := r.transfers.List(ctx, map[string]any{
		"source_id": services.IDFromURI(cmd.String("source")),
		"target_id": services.IDFromURI(cmd.String("target")),
		"limit":     cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	return r.emit(cmd, transfers, func() error {
		records := make([][]string, 0, len(transfers))
		for _, t := range transfers {
			status := "✓"
			if !t.Complete() {
				status = "✗"
			}
			records = append(records, []string{
				shared.Timestamp(t.Timestamp),
				t.SourceID,
				t.TargetID,
				fmt.Sprintf("%d/%d", t.ItemsTransferred, t.ItemsTotal),
				status,
			})
		}
		formatter.WriteRecords(r.output, []string{"When", "Source", "Target", "Tracks", "OK"}, records)
		return nil
	})
}

// PlaylistExport writes the tracks of each --id playlist to files.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	for i, id := range ids {
		ids[i] = services.IDFromURI(id)
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	}
	r.logger.Info("exporting playlists", "count", len(ids), "format", opts.Format)

	quiet := cmd.Bool("json")
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if !quiet {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	result, err := engine.ExportPlaylists(ctx, ids, opts, progressCh)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	if outErr := r.emit(cmd, result, func() error {
		r.writePlainln("✓ Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
		if result.ManifestPath != "" {
			r.writePlain("  Manifest: %s\n", result.ManifestPath)
		}
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %s\n", res.PlaylistID, res.Error)
			}
		}
		return nil
	}); outErr != nil {
		return outErr
	}
	return err
}
