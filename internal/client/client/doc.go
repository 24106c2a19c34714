// Package client talks to the help-desk credential service over HTTP/JSON.
//
// HTTPClient implements Client. Transport failures are reported as
// ErrUnavailable, 401 answers as ErrUnauthorized, and every other non-2xx
// answer as an *APIError carrying the server's message and code. Match them
// with errors.Is and errors.As.
package client
