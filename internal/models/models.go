package models

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/aggregate"
)

// Model defines the base interface for persisted results.
type Model interface {
	ID() string
	CreatedAt() time.Time
	Validate() error
}

// Repository defines the data access operations for persisted results.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) error
	Get(ctx context.Context, id string) (T, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, criteria map[string]any) ([]T, error)
}

// TransferResult summarizes one playlist copy.
//
// On failure ItemsTransferred counts the items written before the failing batch and Error holds its message.
type TransferResult struct {
	TransferID       string    `json:"id"`
	SourceID         string    `json:"source_id"`
	TargetID         string    `json:"target_id"`
	ItemsTotal       int       `json:"items_total"`
	ItemsTransferred int       `json:"items_transferred"`
	Batches          int       `json:"batches"`
	BatchSize        int       `json:"batch_size"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

func (r *TransferResult) ID() string           { return r.TransferID }
func (r *TransferResult) CreatedAt() time.Time { return r.Timestamp }

// Complete reports whether every source item reached the target.
func (r *TransferResult) Complete() bool {
	return r.Error == "" && r.ItemsTransferred == r.ItemsTotal
}

func (r *TransferResult) Validate() error {
	if r.SourceID == "" || r.TargetID == "" {
		return fmt.Errorf("transfer requires source and target playlist ids")
	}
	if r.ItemsTransferred < 0 || r.ItemsTransferred > r.ItemsTotal {
		return fmt.Errorf("items transferred %d out of range [0, %d]", r.ItemsTransferred, r.ItemsTotal)
	}
	return nil
}

// AddStatus is the outcome of adding a single track.
type AddStatus string

const (
	AddStatusAdded           AddStatus = "added"
	AddStatusNoActiveSession AddStatus = "no_active_session"
	AddStatusNotFound        AddStatus = "not_found"
)

func (s AddStatus) String() string { return string(s) }

// AddTrackResult is returned by the add-track operation for every expected outcome.
type AddTrackResult struct {
	Status     AddStatus `json:"status"`
	PlaylistID string    `json:"playlist_id"`
	TrackID    string    `json:"track_id,omitempty"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// TrackListing is every track of a playlist, flattened.
type TrackListing struct {
	PlaylistID   string          `json:"playlist_id"`
	PlaylistName string          `json:"playlist_name"`
	Count        int             `json:"count"`
	Tracks       []aggregate.Row `json:"tracks"`
	Timestamp    time.Time       `json:"timestamp"`
}

// PlaylistListing is the user's playlists, optionally restricted to those they own.
type PlaylistListing struct {
	Mine      bool            `json:"mine"`
	Count     int             `json:"count"`
	Playlists []aggregate.Row `json:"playlists"`
	Timestamp time.Time       `json:"timestamp"`
}

// ArtistStats pairs an artist listing with its genre histogram.
type ArtistStats struct {
	TimeRange string                 `json:"time_range,omitempty"`
	Count     int                    `json:"count"`
	Artists   []aggregate.Row        `json:"artists"`
	Genres    []aggregate.LabelCount `json:"genres"`
	Timestamp time.Time              `json:"timestamp"`
}

// TrackStats is a listing of top tracks.
type TrackStats struct {
	TimeRange string          `json:"time_range"`
	Count     int             `json:"count"`
	Tracks    []aggregate.Row `json:"tracks"`
	Timestamp time.Time       `json:"timestamp"`
}

// Playback describes what is playing right now. Playing is false when there is no active session.
type Playback struct {
	Playing     bool      `json:"playing"`
	IsPlaying   bool      `json:"is_playing"`
	Device      string    `json:"device,omitempty"`
	Context     string    `json:"context,omitempty"`
	ContextName string    `json:"context_name,omitempty"`
	TrackID     string    `json:"track_id,omitempty"`
	Track       string    `json:"track,omitempty"`
	Artists     []string  `json:"artists,omitempty"`
	Album       string    `json:"album,omitempty"`
	ProgressMS  int       `json:"progress_ms,omitempty"`
	DurationMS  int       `json:"duration_ms,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
