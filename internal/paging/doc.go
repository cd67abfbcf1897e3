// Package paging walks cursor-paginated remote collections.
//
// A [FetchFunc] returns one [Page] for a [Cursor]. The first request is issued with the empty cursor,
// and a page whose Next cursor is empty is the last one.
//
//   - [FetchAll] materializes the whole collection or fails without returning partial data.
//   - [Stream] yields items lazily and stops fetching as soon as the consumer stops ranging.
//
// Both report failures as [*RemoteFetchError], which records where the walk stopped.
package paging
