package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"primeia/videogate/pkg/gateway/types"
	"primeia/videogate/pkg/ledger"
	"primeia/videogate/pkg/telemetry/logging"
)

type fakeHistory struct {
	runs      []ledger.RunRecord
	err       error
	lastLimit int
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]ledger.RunRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

type fixedNextRun struct {
	next *time.Time
}

func (f fixedNextRun) NextRun() *time.Time { return f.next }

type runsBody struct {
	Status  int                `json:"status"`
	Runs    []ledger.RunRecord `json:"runs"`
	NextRun *time.Time         `json:"next_run"`
	Window  string             `json:"window"`
}

func getRuns(h http.Handler, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/retention/runs"+query, nil))
	return w
}

func TestRetentionRunsHandler(t *testing.T) {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	next := started.Add(time.Hour)
	history := &fakeHistory{runs: []ledger.RunRecord{
		{ID: "r2", Trigger: "schedule", StartedAt: started, Deleted: 3},
		{ID: "r1", Trigger: "startup", StartedAt: started.Add(-time.Hour), Deleted: 1, Errors: 1},
	}}
	h := NewRetentionRunsHandler(history, fixedNextRun{next: &next}, 24*time.Hour, 20, logging.Discard())

	w := getRuns(h, "?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body runsBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if history.lastLimit != 1 {
		t.Errorf("limit = %d, want 1", history.lastLimit)
	}
	if len(body.Runs) != 1 || body.Runs[0].ID != "r2" {
		t.Errorf("runs = %+v", body.Runs)
	}
	if body.NextRun == nil || !body.NextRun.Equal(next) {
		t.Errorf("next_run = %v, want %v", body.NextRun, next)
	}
	if body.Window != "24h0m0s" {
		t.Errorf("window = %q", body.Window)
	}
}

func TestRetentionRunsHandler_Limits(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"default", "", http.StatusOK, 20},
		{"clamped", "?limit=5000", http.StatusOK, MaxRunsLimit},
		{"zero", "?limit=0", http.StatusBadRequest, 0},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &fakeHistory{}
			h := NewRetentionRunsHandler(history, nil, time.Hour, 20, logging.Discard())

			w := getRuns(h, tt.query)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if history.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", history.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestRetentionRunsHandler_EmptyHistory(t *testing.T) {
	h := NewRetentionRunsHandler(&fakeHistory{}, nil, time.Hour, 20, logging.Discard())

	w := getRuns(h, "")
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["runs"]) != "[]" {
		t.Errorf("runs = %s, want []", raw["runs"])
	}
	if _, ok := raw["next_run"]; ok {
		t.Error("next_run present without a schedule")
	}
}

func TestRetentionRunsHandler_Errors(t *testing.T) {
	t.Run("ledger disabled", func(t *testing.T) {
		h := NewRetentionRunsHandler(nil, nil, time.Hour, 20, logging.Discard())
		w := getRuns(h, "")
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", w.Code)
		}
		var resp types.Response
		_ = json.NewDecoder(w.Body).Decode(&resp)
		if resp.Message != types.MsgLedgerDisabled {
			t.Errorf("message = %q", resp.Message)
		}
	})

	t.Run("query failure", func(t *testing.T) {
		h := NewRetentionRunsHandler(&fakeHistory{err: errors.New("database is locked")}, nil, time.Hour, 20, logging.Discard())
		w := getRuns(h, "")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		h := NewRetentionRunsHandler(&fakeHistory{}, nil, time.Hour, 20, logging.Discard())
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/retention/runs", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", w.Code)
		}
	})
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/anything", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp types.Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != 404 || resp.Message != types.MsgNotFound {
		t.Errorf("body = %+v", resp)
	}
}
