package utils

import (
	"encoding/json"
	"net/http"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/logger"
)

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.For("http").WithError(err).Warn("failed to encode response")
	}
}

// OK writes {"ok": true, ...fields}.
func OK(w http.ResponseWriter, status int, fields map[string]interface{}) {
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["ok"] = true
	JSON(w, status, body)
}

type errorBody struct {
	Code      apperr.Code       `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"requestId,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error writes {"ok": false, "error": {...}} with the status of the error's
// code. Internal causes are logged, never returned.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	requestID := RequestIDFromContext(r.Context())
	status := apperr.HTTPStatus(ae.Code)

	entry := logger.For("http").WithFields(map[string]interface{}{
		"request_id": requestID,
		"code":       ae.Code,
		"path":       r.URL.Path,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Debug(ae.Message)
	}

	JSON(w, status, map[string]interface{}{
		"ok": false,
		"error": errorBody{
			Code:      ae.Code,
			Message:   ae.Message,
			RequestID: requestID,
			Details:   ae.Details,
		},
	})
}
