package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"primeia/videogate/pkg/gateway/types"
	"primeia/videogate/pkg/ledger"
)

// MaxRunsLimit caps the limit query parameter.
const MaxRunsLimit = 100

// RunHistory reads recorded sweeps, newest first.
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]ledger.RunRecord, error)
}

// NextRunner reports the next scheduled sweep.
type NextRunner interface {
	NextRun() *time.Time
}

// RetentionRunsHandler serves GET /api/v1/retention/runs?limit=N.
type RetentionRunsHandler struct {
	history      RunHistory
	schedule     NextRunner
	window       time.Duration
	defaultLimit int
	logger       *slog.Logger
}

// NewRetentionRunsHandler creates the handler. A nil history answers 503;
// a nil schedule omits next_run.
func NewRetentionRunsHandler(history RunHistory, schedule NextRunner, window time.Duration, defaultLimit int, logger *slog.Logger) *RetentionRunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 || defaultLimit > MaxRunsLimit {
		defaultLimit = 20
	}
	return &RetentionRunsHandler{
		history:      history,
		schedule:     schedule,
		window:       window,
		defaultLimit: defaultLimit,
		logger:       logger.With("component", "retention_api"),
	}
}

// ServeHTTP implements http.Handler.
func (h *RetentionRunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		_ = types.WriteError(w, http.StatusMethodNotAllowed, types.MsgMethodNotAllowed)
		return
	}
	if h.history == nil {
		_ = types.WriteError(w, http.StatusServiceUnavailable, types.MsgLedgerDisabled)
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = types.WriteError(w, http.StatusBadRequest, types.MsgInvalidLimit)
			return
		}
		limit = min(n, MaxRunsLimit)
	}

	runs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read retention history", "error", err)
		_ = types.WriteError(w, http.StatusInternalServerError, types.MsgInternal)
		return
	}
	if runs == nil {
		runs = []ledger.RunRecord{}
	}

	resp := types.RetentionRunsResponse{
		Status: http.StatusOK,
		Runs:   runs,
		Window: h.window.String(),
	}
	if h.schedule != nil {
		resp.NextRun = h.schedule.NextRun()
	}
	_ = types.WriteJSON(w, http.StatusOK, resp)
}
