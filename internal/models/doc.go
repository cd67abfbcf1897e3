// Package models defines the results returned by playlist and listening-history operations.
//
// Results are plain values created once per operation and owned by the caller:
//   - [TransferResult] : outcome of a playlist copy, including partial progress on failure
//   - [AddTrackResult] : outcome of adding a single track, as a [AddStatus] variant
//   - [TrackListing], [ArtistStats], [TrackStats], [PlaylistListing] : flattened listings for output
//   - [Playback] : current playback state
//
// [TransferResult] is also persisted as copy history through the [Repository] interface.
package models
