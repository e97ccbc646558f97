// Package types defines the JSON bodies the gateway returns and the helpers
// that write them. Every error reply is a Response envelope whose Status
// mirrors the HTTP status code.
package types
