package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/gateway/types"
	"primeia/videogate/pkg/security/auth"
	"primeia/videogate/pkg/storage"
	"primeia/videogate/pkg/telemetry/metrics"
)

// multipartOverhead is the allowance for boundaries and part headers on top
// of the file size limit.
const multipartOverhead = 1 << 20

// errFileTooLarge is returned by the size-limited part reader.
var errFileTooLarge = errors.New("file exceeds the maximum upload size")

// VideoStore persists uploaded videos.
type VideoStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (*storage.StoredFile, error)
}

// UploadRecorder receives one call per upload attempt.
type UploadRecorder interface {
	RecordUpload(outcome string, size int64)
}

// UploadConfig configures UploadHandler.
type UploadConfig struct {
	MaxBytes         int64
	FieldName        string
	AllowedMIMETypes []string

	// PublicBaseURL prefixes returned video URLs. Empty means
	// "https://" plus the request Host.
	PublicBaseURL string
	URLPrefix     string
}

// UploadConfigFrom extracts the upload settings from cfg.
func UploadConfigFrom(cfg *config.Config) UploadConfig {
	return UploadConfig{
		MaxBytes:         cfg.Upload.MaxBytes,
		FieldName:        cfg.Upload.FieldName,
		AllowedMIMETypes: cfg.Upload.AllowedMIMETypes,
		PublicBaseURL:    cfg.Server.PublicBaseURL,
		URLPrefix:        cfg.Storage.URLPrefix,
	}
}

// UploadHandler accepts a single video from a multipart form.
//
// The body is streamed part by part; the file part is written straight into
// the store without buffering the whole form.
type UploadHandler struct {
	store    VideoStore
	config   UploadConfig
	allowed  map[string]bool
	recorder UploadRecorder
	logger   *slog.Logger
}

// NewUploadHandler creates an upload handler. recorder may be nil.
func NewUploadHandler(store VideoStore, cfg UploadConfig, recorder UploadRecorder, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FieldName == "" {
		cfg.FieldName = config.DefaultUploadFieldName
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = config.DefaultUploadMaxBytes
	}

	allowed := make(map[string]bool, len(cfg.AllowedMIMETypes))
	for _, t := range cfg.AllowedMIMETypes {
		allowed[strings.ToLower(t)] = true
	}

	return &UploadHandler{
		store:    store,
		config:   cfg,
		allowed:  allowed,
		recorder: recorder,
		logger:   logger.With("component", "upload"),
	}
}

// ServeHTTP implements http.Handler.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		_ = types.WriteError(w, http.StatusMethodNotAllowed, types.MsgMethodNotAllowed)
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		h.reject(w, http.StatusBadRequest, types.MsgNotMultipart, metrics.OutcomeRejected)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBytes+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		h.reject(w, http.StatusBadRequest, types.MsgNotMultipart, metrics.OutcomeRejected)
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			h.reject(w, http.StatusBadRequest, types.MsgNoFile, metrics.OutcomeRejected)
			return
		}
		if err != nil {
			if isTooLarge(err) {
				h.reject(w, http.StatusRequestEntityTooLarge, types.MsgTooLarge, metrics.OutcomeTooLarge)
				return
			}
			h.reject(w, http.StatusBadRequest, types.MsgInvalidUpload, metrics.OutcomeRejected)
			return
		}

		if part.FormName() != h.config.FieldName || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		h.save(w, r, part.FileName(), part.Header.Get("Content-Type"), part)
		_ = part.Close()
		return
	}
}

// save validates the file part's type and writes it to the store.
func (h *UploadHandler) save(w http.ResponseWriter, r *http.Request, fileName, contentType string, body io.Reader) {
	if !h.typeAllowed(contentType) {
		h.logger.WarnContext(r.Context(), "upload rejected",
			"reason", "type not allowed",
			"content_type", contentType,
			"file", fileName,
		)
		h.reject(w, http.StatusUnsupportedMediaType, types.MsgTypeNotAllowed, metrics.OutcomeUnsupported)
		return
	}

	limited := &limitedReader{r: body, remaining: h.config.MaxBytes}
	stored, err := h.store.Save(r.Context(), fileName, limited)
	if err != nil {
		if isTooLarge(err) {
			h.reject(w, http.StatusRequestEntityTooLarge, types.MsgTooLarge, metrics.OutcomeTooLarge)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to store upload",
			"file", fileName,
			"error", err,
		)
		h.record(metrics.OutcomeStorageError, 0)
		_ = types.WriteError(w, http.StatusInternalServerError, types.MsgInternal)
		return
	}

	h.logger.InfoContext(r.Context(), "upload accepted",
		"file", stored.Name,
		"size_bytes", stored.Size,
		"uploaded_by", auth.Principal(r.Context()),
	)
	h.record(metrics.OutcomeStored, stored.Size)
	_ = types.WriteJSON(w, http.StatusOK, types.UploadResponse{
		Status:   http.StatusOK,
		Message:  types.MsgUploaded,
		VideoURL: h.videoURL(r, stored.Name),
	})
}

func (h *UploadHandler) typeAllowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return h.allowed[strings.ToLower(mediaType)]
}

// videoURL builds the public URL of a stored file.
func (h *UploadHandler) videoURL(r *http.Request, name string) string {
	base := strings.TrimRight(h.config.PublicBaseURL, "/")
	if base == "" {
		base = "https://" + r.Host
	}
	return fmt.Sprintf("%s%s/%s", base, h.config.URLPrefix, url.PathEscape(name))
}

func (h *UploadHandler) reject(w http.ResponseWriter, status int, message, outcome string) {
	h.record(outcome, 0)
	_ = types.WriteError(w, status, message)
}

func (h *UploadHandler) record(outcome string, size int64) {
	if h.recorder != nil {
		h.recorder.RecordUpload(outcome, size)
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.Is(err, errFileTooLarge) || errors.As(err, &maxErr)
}

// limitedReader fails with errFileTooLarge once more than remaining bytes
// have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errFileTooLarge
	}
	return n, err
}
