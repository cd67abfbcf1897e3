// Package repositories implements SQLite persistence for the credential cache and copy history.
//
// Key Implementations:
//   - [TokenRepository] : OAuth tokens keyed by Spotify username, written back on every refresh
//   - [TransferRepository] : playlist copy results, newest first
//
// The schema is owned by the migrations embedded in the shared package; open databases with
// [shared.OpenCredentialCache] so it is current before a repository touches it.
package repositories
