package aggregate

import (
	"encoding/json"
	"slices"

	"github.com/samber/lo"
)

// LabelCount is one entry of a sorted [FrequencyTable].
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FrequencyTable counts label occurrences and remembers the order labels were first seen.
//
// The zero value is ready to use.
type FrequencyTable struct {
	counts map[string]int
	order  []string
}

// NewFrequencyTable returns an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[string]int)}
}

// Increment adds one to label's count.
func (t *FrequencyTable) Increment(label string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

// Count returns the count for label, 0 if never seen.
func (t *FrequencyTable) Count(label string) int {
	return t.counts[label]
}

// Len returns the number of distinct labels.
func (t *FrequencyTable) Len() int {
	return len(t.order)
}

// Sorted returns all entries by descending count. Equal counts keep first-seen order.
func (t *FrequencyTable) Sorted() []LabelCount {
	out := make([]LabelCount, 0, len(t.order))
	for _, label := range t.order {
		out = append(out, LabelCount{Label: label, Count: t.counts[label]})
	}
	slices.SortStableFunc(out, func(a, b LabelCount) int {
		return b.Count - a.Count
	})
	return out
}

// Top returns at most n entries of [FrequencyTable.Sorted]. n <= 0 returns all.
func (t *FrequencyTable) Top(n int) []LabelCount {
	sorted := t.Sorted()
	if n <= 0 || n >= len(sorted) {
		return sorted
	}
	return sorted[:n]
}

// MarshalJSON encodes the table as its sorted [LabelCount] list.
func (t *FrequencyTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Sorted())
}

// Count builds a table from records. Each record contributes each of its distinct labels once.
func Count[T any](records []T, labels func(T) []string) *FrequencyTable {
	table := NewFrequencyTable()
	for _, rec := range records {
		for _, label := range lo.Uniq(labels(rec)) {
			table.Increment(label)
		}
	}
	return table
}
