// Package server hosts the short-lived loopback HTTP server that receives
// OAuth authorization callbacks during 'plx auth'.
//
// The CLI opens the provider's consent page in a browser, then waits on
// [OAuthHandler.Result] while [Serve] listens on the configured redirect
// address. The handler validates the CSRF state token, performs the code
// exchange and delivers exactly one result before the server shuts down.
package server
