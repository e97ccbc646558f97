package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteError(rec, http.StatusForbidden, MsgCORSForbidden); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != float64(403) || body["message"] != "CORS: Origin not allowed" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["error"]; ok {
		t.Error("error field should be omitted when empty")
	}
}

func TestWriteErrorCause(t *testing.T) {
	rec := httptest.NewRecorder()
	_ = WriteErrorCause(rec, http.StatusUnauthorized, MsgTokenInvalid, errors.New("jwt expired"))

	var body Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != 401 || body.Error != "jwt expired" {
		t.Errorf("body = %+v", body)
	}
}

func TestUploadResponseFieldNames(t *testing.T) {
	data, err := json.Marshal(UploadResponse{Status: 200, Message: MsgUploaded, VideoURL: "https://x/videos/a.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"status":200,"message":"Video uploaded successfully","videoUrl":"https://x/videos/a.mp4"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
