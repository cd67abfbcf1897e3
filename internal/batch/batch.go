// Package batch writes ordered item IDs to a remote collection in fixed-size chunks.
//
// Chunks are written strictly one after another, so a failure leaves a known prefix of the input transferred.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spx/internal/shared"
	"github.com/samber/lo"
)

// MaxBatchSize is the largest number of items Spotify accepts in one "add items to playlist" request.
const MaxBatchSize = shared.MaxBatchSize

// ErrMissingSnapshot is returned when a write reports success without a snapshot ID.
var ErrMissingSnapshot = errors.New("write acknowledged without a snapshot id")

// WriteResult is the remote acknowledgment of one chunk. A write succeeded iff SnapshotID is non-empty.
type WriteResult struct {
	SnapshotID string `json:"snapshot_id"`
}

// OK reports whether the write was acknowledged.
func (r WriteResult) OK() bool {
	return r.SnapshotID != ""
}

// WriteFunc appends one chunk to the remote collection.
type WriteFunc func(ctx context.Context, items []string) (WriteResult, error)

// Progress describes the state of a transfer after a chunk has been written.
type Progress struct {
	Batch       int // 1-based index of the chunk just written
	Batches     int
	Transferred int
	Total       int
	SnapshotID  string
}

// Observer is notified after every successful chunk.
type Observer func(Progress)

// BatchWriteError reports the chunk that failed and how many items were written before it.
type BatchWriteError struct {
	Transferred int
	Index       int // 0-based chunk index
	Batch       []string
	Err         error
}

func (e *BatchWriteError) Error() string {
	return fmt.Sprintf("batch %d (%d items) failed after %d items transferred: %v", e.Index+1, len(e.Batch), e.Transferred, e.Err)
}

func (e *BatchWriteError) Unwrap() error {
	return e.Err
}

// Batches returns the number of chunks needed to write n items.
func Batches(n, maxBatchSize int) int {
	if n <= 0 || maxBatchSize < 1 {
		return 0
	}
	return (n + maxBatchSize - 1) / maxBatchSize
}

// Transfer writes items in contiguous chunks of at most maxBatchSize and returns the number written.
//
// On failure the count covers only the chunks acknowledged before the failing one, and the error is a [*BatchWriteError].
func Transfer(ctx context.Context, items []string, maxBatchSize int, write WriteFunc, observers ...Observer) (int, error) {
	if maxBatchSize < 1 {
		return 0, fmt.Errorf("%w: batch size must be at least 1, got %d", shared.ErrInvalidArgument, maxBatchSize)
	}
	if len(items) == 0 {
		return 0, nil
	}

	chunks := lo.Chunk(items, maxBatchSize)
	transferred := 0

	for i, chunk := range chunks {
		result, err := write(ctx, chunk)
		if err == nil && !result.OK() {
			err = ErrMissingSnapshot
		}
		if err != nil {
			return transferred, &BatchWriteError{Transferred: transferred, Index: i, Batch: chunk, Err: err}
		}

		transferred += len(chunk)
		p := Progress{
			Batch:       i + 1,
			Batches:     len(chunks),
			Transferred: transferred,
			Total:       len(items),
			SnapshotID:  result.SnapshotID,
		}
		for _, observe := range observers {
			observe(p)
		}
	}

	return transferred, nil
}
