// Package handlers implements the gateway's HTTP endpoints: video upload,
// static video serving, retention history and the JSON 404 for unknown API
// paths.
//
// Handlers depend on narrow interfaces (VideoStore, RunHistory, NextRunner)
// so they can be exercised with httptest and in-memory fakes.
package handlers
