// Package services implements the Spotify Web API client used by every command.
//
// # Authentication
//
// [SpotifyService] uses [oauth2] for the authorization code flow. After [SpotifyService.UseToken] or
// [SpotifyService.UseTokenSource] every request carries a bearer token that refreshes automatically.
// [SpotifyService.SetTokenRefreshCallback] lets callers persist refreshed tokens.
//
// # Transport
//
// Requests pass through [RateLimitedTransport], which spaces them with a token bucket from [golang.org/x/time/rate].
//
// # Pagination
//
// Collection endpoints are exposed one page at a time (PlaylistItemsPage, UserPlaylistsPage, FollowedArtistsPage,
// NewReleasesPage). Items stay raw JSON; the cursor is the absolute "next" URL Spotify returns.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which matches sentinels from the shared package with [errors.Is]:
//   - [shared.ErrTokenExpired] : 401
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrServiceUnavailable] : 429 and 5xx
//   - [shared.ErrAPIRequest] : any status
package services
