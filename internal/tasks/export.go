package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// ExportOpts contains configuration for playlist exports.
type ExportOpts struct {
	Format     string // json, csv, markdown, txt
	OutputDir  string // defaults to spotify_export_{epoch}
	NumWorkers int    // concurrent file writers; 1 to 10, default 4
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Tracks       int      `json:"tracks"`
	Files        []string `json:"files"`
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
}

// ExportResult summarizes an export run and is written as the manifest.
type ExportResult struct {
	Format            string                 `json:"format"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"manifest_path"`
	Results           []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	listing *models.TrackListing
}

// ExportPlaylists writes each playlist's track listing to files under opts.OutputDir.
//
// Listings are fetched one playlist at a time and handed to a pool of writers. A playlist that fails
// to fetch or write is recorded in the result and does not stop the others. The manifest is written
// last as export_manifest.json.
func (e *Engine) ExportPlaylists(ctx context.Context, ids []string, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one playlist id is required", shared.ErrMissingArgument)
	}

	switch opts.Format {
	case "":
		opts.Format = formatter.FormatJSON
	case formatter.FormatJSON, formatter.FormatCSV, formatter.FormatMarkdown, formatter.FormatText:
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Format:          opts.Format,
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	jobs := make(chan exportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	// the producer holds a slot too: it reports fetch failures on results
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, id := range ids {
			if ctx.Err() != nil {
				return
			}

			e.sendProgress(progress, exportingUpdate(i+1, len(ids), id))
			listing, err := e.ListTracks(ctx, id)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Files:        []string{},
					Error:        fmt.Sprintf("failed to fetch playlist: %v", err),
				}
				continue
			}
			jobs <- exportJob{listing: listing}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(progress, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(progress, exportFailedUpdate(completed, len(ids), res.PlaylistName, fmt.Errorf("%s", res.Error)))
			e.logger.Warn("export failed", "playlist", res.PlaylistID, "err", res.Error)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	result.ManifestPath = manifestPath
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		result.ManifestPath = ""
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	return result, nil
}

// exportWorker writes listings from jobs until the channel closes. Once ctx is cancelled, queued
// jobs are drained and reported as failed without touching the filesystem.
func (e *Engine) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- PlaylistExportResult, opts ExportOpts) {
	defer wg.Done()

	for job := range jobs {
		res := PlaylistExportResult{
			PlaylistID:   job.listing.PlaylistID,
			PlaylistName: job.listing.PlaylistName,
			Tracks:       job.listing.Count,
			Files:        []string{},
		}
		if err := ctx.Err(); err != nil {
			res.Error = err.Error()
			results <- res
			continue
		}

		files, err := formatter.WriteExport(job.listing, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Files = files
			res.Success = true
		}
		results <- res
	}
}
