package paging

import (
	"context"
	"fmt"
	"iter"
)

// Cursor is an opaque continuation token. For Spotify it is the absolute URL of the next page.
type Cursor string

// Page is one response of a paginated collection. An empty Next marks the last page.
type Page[T any] struct {
	Items []T
	Next  Cursor
}

// Last reports whether no further page follows p.
func (p Page[T]) Last() bool {
	return p.Next == ""
}

// FetchFunc retrieves the page addressed by cursor. The empty cursor addresses the first page.
type FetchFunc[T any] func(ctx context.Context, cursor Cursor) (Page[T], error)

// RemoteFetchError reports a page request that failed partway through a walk.
//
// Cursor is the cursor the failed request was issued with, i.e. the last one successfully obtained.
// Page is the 1-based number of the page that failed.
type RemoteFetchError struct {
	Cursor Cursor
	Page   int
	Err    error
}

func (e *RemoteFetchError) Error() string {
	if e.Cursor == "" {
		return fmt.Sprintf("failed to fetch page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("failed to fetch page %d (cursor %s): %v", e.Page, e.Cursor, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// FetchAll follows cursors from the first page until a page without a continuation and returns every item in remote order.
//
// An empty collection yields an empty, non-nil slice. On failure no items are returned.
func FetchAll[T any](ctx context.Context, fetch FetchFunc[T]) ([]T, error) {
	items := make([]T, 0)
	var cursor Cursor

	for n := 1; ; n++ {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, &RemoteFetchError{Cursor: cursor, Page: n, Err: err}
		}

		items = append(items, page.Items...)
		if page.Last() {
			return items, nil
		}
		cursor = page.Next
	}
}

// Stream returns a single-use sequence over the collection's items.
//
// Pages are fetched on demand. A failed fetch yields one zero item paired with a [*RemoteFetchError] and ends the sequence.
// Ranging over the sequence a second time yields nothing.
func Stream[T any](ctx context.Context, fetch FetchFunc[T]) iter.Seq2[T, error] {
	var (
		cursor Cursor
		n      int
		done   bool
	)

	return func(yield func(T, error) bool) {
		for !done {
			n++
			page, err := fetch(ctx, cursor)
			if err != nil {
				done = true
				var zero T
				yield(zero, &RemoteFetchError{Cursor: cursor, Page: n, Err: err})
				return
			}

			if page.Last() {
				done = true
			}
			cursor = page.Next

			for _, item := range page.Items {
				if !yield(item, nil) {
					done = true
					return
				}
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	items := make([]T, 0)
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
