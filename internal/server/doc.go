// Package server runs the local HTTP endpoint that completes Spotify's OAuth2 authorization code flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// method patterns on an [http.ServeMux]; [Middleware] added with Use wraps every handler registered
// afterwards, first added outermost. [Logging] is the one middleware the CLI installs.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code (with its PKCE
// verifier) for a token, and sends exactly one [OAuthResult] through a channel. Later callbacks are
// rejected.
//
// # Usage
//
// `spx auth login` binds [Listen] on the configured host and port, opens the browser at
// [OAuthHandler.AuthURL], waits for the result, and shuts the server down.
package server
