package handlers

import (
	"net/http"

	"hvac-backend/internal/apperr"
	"hvac-backend/pkg/utils"
)

// NotFound keeps unknown paths on the JSON envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	utils.Error(w, r, apperr.NotFound("route"))
}
