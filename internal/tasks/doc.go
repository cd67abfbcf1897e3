// Package tasks implements the user-facing playlist and listening-history operations.
//
// [Engine] composes the paging, batch, and aggregate packages over a [Client]. Every operation runs its
// remote calls one at a time on the caller's goroutine. Long-running operations accept an optional
// progress channel; updates are sent without blocking, so a slow or absent reader never stalls the work.
//
// Copy flow:
//
//	Fetching (all source pages) → Transferring (sequential batches) → Done | Failed
//
// A failed copy still returns its [models.TransferResult] so callers can report how many items reached the target.
package tasks
