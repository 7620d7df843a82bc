// Package client talks to the ContactKeeper HTTP API.
//
// # Overview
//
// The package provides a transport-agnostic contract (Client) and an HTTP
// implementation (HTTPClient). HTTPClient keeps the session token returned
// by Login in memory and sends it as "Authorization: Bearer <token>" on the
// protected routes. Logout forgets it.
//
// # Error Handling
//
// Responses outside 2xx are returned as *APIError carrying the status code
// and the server message. A 401 also matches ErrUnauthorized. Network
// failures are wrapped with ErrUnavailable. Calls that need a session fail
// with ErrNotLoggedIn before touching the network when no token is held.
//
// HTTPClient is safe for concurrent use.
package client
