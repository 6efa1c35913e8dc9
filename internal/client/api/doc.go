// Package api is the CLI's client for the bookshelf HTTP API.
//
// # Overview
//
// Client is the transport-agnostic contract the CLI depends on; HTTPClient
// implements it over JSON/HTTP. After a successful Register or Login the
// session token is kept in memory and sent as a bearer token on every
// subsequent call. Logout forgets it.
//
// # Error Handling
//
// Non-2xx responses are returned as *Error, which carries the HTTP status and
// the server's error kind. *Error unwraps to the matching sentinel from
// package common, so callers can write errors.Is(err, common.ErrEmptyCart).
// Transport failures are wrapped with ErrUnavailable.
package api
