package handlers

import (
	"net/http"

	"primeia/videogate/pkg/gateway/types"
)

// NotFound answers every request with a JSON 404.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = types.WriteError(w, http.StatusNotFound, types.MsgNotFound)
	})
}
