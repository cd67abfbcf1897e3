package paging

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakePages serves pages in order, keyed by cursor, and records every cursor requested.
type fakePages struct {
	pages     [][]int
	failAt    int // 1-based page number that fails; 0 disables
	requested []Cursor
}

func (f *fakePages) fetch(_ context.Context, cursor Cursor) (Page[int], error) {
	f.requested = append(f.requested, cursor)
	idx := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(string(cursor), "page-%d", &idx); err != nil {
			return Page[int]{}, err
		}
	}

	if f.failAt == idx+1 {
		return Page[int]{}, errors.New("connection reset")
	}

	page := Page[int]{Items: f.pages[idx]}
	if idx+1 < len(f.pages) {
		page.Next = Cursor(fmt.Sprintf("page-%d", idx+1))
	}
	return page, nil
}

func TestFetchAll(t *testing.T) {
	t.Run("concatenates pages in order", func(t *testing.T) {
		tc := []struct {
			name  string
			pages [][]int
			want  []int
		}{
			{name: "single page", pages: [][]int{{1, 2, 3}}, want: []int{1, 2, 3}},
			{name: "three pages", pages: [][]int{{1, 2}, {3, 4}, {5}}, want: []int{1, 2, 3, 4, 5}},
			{name: "empty middle page", pages: [][]int{{1}, {}, {2}}, want: []int{1, 2}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := &fakePages{pages: tt.pages}
				got, err := FetchAll(context.Background(), f.fetch)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				if len(got) != len(tt.want) {
					t.Fatalf("expected %d items, got %d", len(tt.want), len(got))
				}
				for i := range got {
					if got[i] != tt.want[i] {
						t.Errorf("item %d = %d, want %d", i, got[i], tt.want[i])
					}
				}

				if len(f.requested) != len(tt.pages) {
					t.Errorf("expected %d requests, got %d", len(tt.pages), len(f.requested))
				}
				if f.requested[0] != "" {
					t.Errorf("first request should use the empty cursor, got %q", f.requested[0])
				}
			})
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		f := &fakePages{pages: [][]int{{}}}
		got, err := FetchAll(context.Background(), f.fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("failure returns no partial data", func(t *testing.T) {
		f := &fakePages{pages: [][]int{{1}, {2}, {3}}, failAt: 3}
		got, err := FetchAll(context.Background(), f.fetch)
		if got != nil {
			t.Errorf("expected nil items on failure, got %v", got)
		}

		var fetchErr *RemoteFetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected RemoteFetchError, got %v", err)
		}
		if fetchErr.Page != 3 {
			t.Errorf("expected failure on page 3, got %d", fetchErr.Page)
		}
		if fetchErr.Cursor != "page-2" {
			t.Errorf("expected last good cursor page-2, got %q", fetchErr.Cursor)
		}
	})

	t.Run("first page failure", func(t *testing.T) {
		f := &fakePages{pages: [][]int{{1}}, failAt: 1}
		_, err := FetchAll(context.Background(), f.fetch)

		var fetchErr *RemoteFetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected RemoteFetchError, got %v", err)
		}
		if fetchErr.Cursor != "" || fetchErr.Page != 1 {
			t.Errorf("unexpected error fields %+v", fetchErr)
		}
	})
}

func TestStream(t *testing.T) {
	t.Run("yields every item", func(t *testing.T) {
		f := &fakePages{pages: [][]int{{1, 2}, {3}}}
		got, err := Collect(Stream(context.Background(), f.fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 || got[0] != 1 || got[2] != 3 {
			t.Errorf("unexpected items %v", got)
		}
	})

	t.Run("early break stops fetching", func(t *testing.T) {
		f := &fakePages{pages: [][]int{{1, 2}, {3, 4}, {5, 6}}}
		for item, err := range Stream(context.Background(), f.fetch) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if item == 3 {
				break
			}
		}

		if len(f.requested) != 2 {
			t.Errorf("expected 2 page requests, got %d", len(f.requested))
		}
	})

	t.Run("yields one error then stops", func(t *testing.T) {
		f := &fakePages{pages: [][]int{{1}, {2}, {3}}, failAt: 2}
		var items []int
		var errs []error
		for item, err := range Stream(context.Background(), f.fetch) {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			items = append(items, item)
		}

		if len(items) != 1 || items[0] != 1 {
			t.Errorf("expected only first page items, got %v", items)
		}
		if len(errs) != 1 {
			t.Fatalf("expected exactly one error, got %d", len(errs))
		}
		if len(f.requested) != 2 {
			t.Errorf("expected no requests after failure, got %d", len(f.requested))
		}
	})

	t.Run("not restartable", func(t *testing.T) {
		f := &fakePages{pages: [][]int{{1, 2}}}
		seq := Stream(context.Background(), f.fetch)

		first, _ := Collect(seq)
		second, _ := Collect(seq)
		if len(first) != 2 {
			t.Errorf("expected 2 items on first pass, got %d", len(first))
		}
		if len(second) != 0 {
			t.Errorf("expected nothing on second pass, got %v", second)
		}
		if len(f.requested) != 1 {
			t.Errorf("expected a single request, got %d", len(f.requested))
		}
	})
}
