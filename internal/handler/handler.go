package handler

import (
	"encoding/json"
	"net/http"

	"github.com/digital-menu/api/internal/logger"
	mw "github.com/digital-menu/api/internal/middleware"
	"github.com/digital-menu/api/internal/session"
)

// Sessions hands out the per-device session. Satisfied by *session.Store.
type Sessions interface {
	Get(deviceID string) *session.Session
}

// deviceSession returns the caller's session, or writes 400 when the
// request carries no device id.
func deviceSession(w http.ResponseWriter, r *http.Request, sessions Sessions) (*session.Session, bool) {
	id := mw.DeviceFromContext(r.Context())
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing device id"})
		return nil, false
	}
	return sessions.Get(id), true
}

func internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.WithCtx(r.Context()).Error(op, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error("failed to encode JSON response", "error", err)
	}
}
