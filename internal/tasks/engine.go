package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/aggregate"
	"github.com/desertthunder/spx/internal/batch"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/paging"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// Client is the subset of the Spotify API the operations depend on. [services.SpotifyService] implements it.
type Client interface {
	PlaylistItemsPage(ctx context.Context, playlistID string, cursor paging.Cursor) (paging.Page[json.RawMessage], error)
	UserPlaylistsPage(ctx context.Context, cursor paging.Cursor) (paging.Page[json.RawMessage], error)
	FollowedArtistsPage(ctx context.Context, limit int, cursor paging.Cursor) (paging.Page[json.RawMessage], error)
	NewReleasesPage(ctx context.Context, country string, cursor paging.Cursor) (paging.Page[json.RawMessage], error)

	AddPlaylistItems(ctx context.Context, playlistID string, ids []string) (batch.WriteResult, error)

	Me(ctx context.Context) (*services.SpotifyUser, error)
	Playlist(ctx context.Context, playlistID string) (*services.SpotifyPlaylist, error)
	CreatePlaylist(ctx context.Context, userID, name string, public bool, description string) (*services.SpotifyPlaylist, error)
	UnfollowPlaylist(ctx context.Context, playlistID string) error
	CurrentPlayback(ctx context.Context) (*services.SpotifyPlayback, error)
	Devices(ctx context.Context) ([]services.SpotifyDevice, error)
	TopArtists(ctx context.Context, limit int, timeRange string) ([]json.RawMessage, error)
	TopTracks(ctx context.Context, limit int, timeRange string) ([]json.RawMessage, error)
	AudioAnalysis(ctx context.Context, trackID string) (json.RawMessage, error)
}

// EngineOpts configures an [Engine]. Zero values select defaults.
type EngineOpts struct {
	BatchSize int         // items per write; defaults to [batch.MaxBatchSize]
	Logger    *log.Logger // defaults to a discarding logger
	History   models.Repository[*models.TransferResult]
	Now       func() time.Time
}

// Engine runs playlist and listening-history operations against a [Client].
type Engine struct {
	client    Client
	batchSize int
	logger    *log.Logger
	history   models.Repository[*models.TransferResult]
	now       func() time.Time
}

// NewEngine creates an Engine for client.
func NewEngine(client Client, opts EngineOpts) *Engine {
	e := &Engine{
		client:    client,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
		history:   opts.History,
		now:       opts.Now,
	}
	if e.batchSize == 0 {
		e.batchSize = batch.MaxBatchSize
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// WithBatchSize returns a copy of e that writes n items per request. n <= 0 keeps the current size.
func (e *Engine) WithBatchSize(n int) *Engine {
	c := *e
	if n > 0 {
		c.batchSize = n
	}
	return &c
}

// BatchSize returns the number of items written per request.
func (e *Engine) BatchSize() int {
	return e.batchSize
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// notFound converts a missing-resource error from the client into a [*shared.ResourceNotFoundError].
func notFound(kind, id string, err error) error {
	if err != nil && shared.IsNotFound(err) {
		var nf *shared.ResourceNotFoundError
		if errors.As(err, &nf) {
			return err
		}
		return shared.NewResourceNotFound(kind, id, err)
	}
	return err
}

// playlistItems fetches every item of a playlist in order.
func (e *Engine) playlistItems(ctx context.Context, playlistID string) ([]json.RawMessage, error) {
	page := 0
	items, err := paging.FetchAll(ctx, func(ctx context.Context, c paging.Cursor) (paging.Page[json.RawMessage], error) {
		page++
		p, err := e.client.PlaylistItemsPage(ctx, playlistID, c)
		if err == nil {
			e.logger.Debug("fetched page", "playlist", playlistID, "page", page, "items", len(p.Items))
		}
		return p, err
	})
	if err != nil {
		return nil, notFound("playlist", playlistID, err)
	}
	return items, nil
}

// CopyPlaylist appends every track of source to target, in order, in batches of [Engine.BatchSize].
//
// When a batch fails the returned result records how many items were added before it, and the error
// is (or wraps) a [*batch.BatchWriteError]. A missing source or target yields a [*shared.ResourceNotFoundError].
func (e *Engine) CopyPlaylist(ctx context.Context, sourceID, targetID string, progress chan<- ProgressUpdate) (*models.TransferResult, error) {
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: source and target playlist ids are required", shared.ErrMissingArgument)
	}

	logger := e.logger.With("source", sourceID, "target", targetID)
	e.sendProgress(progress, fetchingUpdate(sourceID))

	items, err := e.playlistItems(ctx, sourceID)
	if err != nil {
		e.sendProgress(progress, failedUpdate(nil, err))
		return nil, err
	}

	ids, err := aggregate.Pluck(items, "track.id")
	if err != nil {
		e.sendProgress(progress, failedUpdate(nil, err))
		return nil, fmt.Errorf("playlist %s: %w", sourceID, err)
	}

	result := &models.TransferResult{
		TransferID: shared.GenerateID(),
		SourceID:   sourceID,
		TargetID:   targetID,
		ItemsTotal: len(ids),
		Batches:    batch.Batches(len(ids), e.batchSize),
		BatchSize:  e.batchSize,
		Timestamp:  e.now(),
	}
	e.sendProgress(progress, fetchedUpdate(len(ids), result.Batches))
	logger.Debug("transferring", "items", len(ids), "batches", result.Batches)

	write := func(ctx context.Context, chunk []string) (batch.WriteResult, error) {
		return e.client.AddPlaylistItems(ctx, targetID, chunk)
	}
	observe := func(p batch.Progress) {
		logger.Debug("batch written", "batch", p.Batch, "of", p.Batches, "transferred", p.Transferred)
		e.sendProgress(progress, transferUpdate(p))
	}

	n, err := batch.Transfer(ctx, ids, e.batchSize, write, observe)
	result.ItemsTransferred = n
	if err != nil {
		// A 404 on the first write means the target itself is missing.
		if n == 0 {
			err = notFound("playlist", targetID, err)
		}
		result.Error = err.Error()
		logger.Warn("copy failed", "transferred", n, "total", len(ids), "err", err)
		e.record(ctx, result)
		e.sendProgress(progress, failedUpdate(result, err))
		return result, err
	}

	logger.Info("copied playlist", "items", n)
	e.record(ctx, result)
	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

// record stores result in the copy history when one is configured.
func (e *Engine) record(ctx context.Context, result *models.TransferResult) {
	if e.history == nil {
		return
	}
	if err := e.history.Create(ctx, result); err != nil {
		e.logger.Warn("failed to record transfer", "id", result.TransferID, "err", err)
	}
}

// AddTrack appends one track to a playlist. With now set the currently playing track is used.
//
// Nothing playing and a missing playlist or track are reported through [models.AddTrackResult.Status], not as errors.
func (e *Engine) AddTrack(ctx context.Context, playlistID, trackID string, now bool) (*models.AddTrackResult, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	result := &models.AddTrackResult{PlaylistID: playlistID, TrackID: trackID, Timestamp: e.now()}

	if now {
		playback, err := e.client.CurrentPlayback(ctx)
		if err != nil {
			return nil, err
		}
		if playback == nil || playback.Item == nil || playback.Item.ID == "" {
			result.Status = models.AddStatusNoActiveSession
			result.Message = shared.ErrNoActiveSession.Error()
			return result, nil
		}
		result.TrackID = playback.Item.ID
	} else if trackID == "" {
		return nil, fmt.Errorf("%w: track id or --now is required", shared.ErrMissingArgument)
	}

	write := func(ctx context.Context, chunk []string) (batch.WriteResult, error) {
		return e.client.AddPlaylistItems(ctx, playlistID, chunk)
	}
	observe := func(p batch.Progress) { result.SnapshotID = p.SnapshotID }

	if _, err := batch.Transfer(ctx, []string{result.TrackID}, 1, write, observe); err != nil {
		if shared.IsNotFound(err) {
			result.Status = models.AddStatusNotFound
			result.Message = err.Error()
			return result, nil
		}
		return nil, err
	}

	e.logger.Info("added track", "playlist", playlistID, "track", result.TrackID)
	result.Status = models.AddStatusAdded
	return result, nil
}
