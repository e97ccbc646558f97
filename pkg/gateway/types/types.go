package types

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Response is the envelope every JSON API reply uses.
//
//	{"status": 403, "message": "Invalid API key"}
type Response struct {
	// Status mirrors the HTTP status code.
	Status int `json:"status"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// Error carries the underlying cause on some auth failures.
	Error string `json:"error,omitempty"`
}

// UploadResponse is returned by a successful upload.
type UploadResponse struct {
	Status   int    `json:"status"`
	Message  string `json:"message"`
	VideoURL string `json:"videoUrl"`
}

// RetentionRunsResponse lists recent sweeps and the scheduler state.
type RetentionRunsResponse struct {
	Status  int        `json:"status"`
	Runs    any        `json:"runs"`
	NextRun *time.Time `json:"next_run,omitempty"`
	Window  string     `json:"window"`
}

// Messages shared by handlers and middleware.
const (
	MsgUploaded          = "Video uploaded successfully"
	MsgNotMultipart      = "request must be multipart/form-data"
	MsgNoFile            = "No video file uploaded"
	MsgTypeNotAllowed    = "file type not allowed"
	MsgTooLarge          = "file exceeds the maximum upload size"
	MsgCORSForbidden     = "CORS: Origin not allowed"
	MsgNotFound          = "Not found"
	MsgInternal          = "Internal server error"
	MsgRateLimited       = "Too many requests"
	MsgLedgerDisabled    = "retention history is not enabled"
	MsgInvalidLimit      = "limit must be a positive integer"
	MsgInvalidUpload     = "malformed multipart body"
	MsgMethodNotAllowed  = "Method not allowed"
	MsgAPIKeyRequired    = "API key is required. Please provide it in the x-api-key header or Authorization header."
	MsgAPIKeyInvalid     = "Invalid API key"
	MsgAuthRequired      = "Authorization header is required. Please provide a Bearer token."
	MsgAuthFormat        = "Invalid authorization format. Expected: Bearer <token>"
	MsgTokenInvalid      = "Invalid or expired token"
	MsgTokenVerifyFailed = "Internal server error during token validation"
)

// WriteJSON writes body as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteError writes a {status, message} envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, Response{Status: statusCode, Message: message})
}

// WriteErrorCause writes a {status, message, error} envelope.
func WriteErrorCause(w http.ResponseWriter, statusCode int, message string, cause error) error {
	resp := Response{Status: statusCode, Message: message}
	if cause != nil {
		resp.Error = cause.Error()
	}
	return WriteJSON(w, statusCode, resp)
}
