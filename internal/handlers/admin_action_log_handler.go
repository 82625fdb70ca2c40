package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/middleware"
	"hvac-backend/internal/models"
	"hvac-backend/internal/services"
	"hvac-backend/pkg/utils"
)

type AdminActionLogHandler struct {
	Service *services.AdminActionLogService
}

func NewAdminActionLogHandler(service *services.AdminActionLogService) *AdminActionLogHandler {
	return &AdminActionLogHandler{Service: service}
}

// ListActionLogs returns the audit trail, optionally for one target.
func (h *AdminActionLogHandler) ListActionLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ActionLogFilter{
		TargetType: q.Get("target_type"),
		TargetID:   q.Get("target_id"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.Error(w, r, apperr.Validation("invalid limit"))
			return
		}
		filter.Limit = n
	}

	logs, err := h.Service.List(r.Context(), filter)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// actionLog starts an audit entry for the authenticated caller.
func actionLog(r *http.Request, action, targetType, targetID, description string) *models.AdminActionLog {
	entry := &models.AdminActionLog{
		ActionType:  action,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
		IPAddress:   getIPAddress(r),
	}
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		entry.AdminUserID = &userID
	}
	return entry
}

// getIPAddress extracts the real IP address from the request
func getIPAddress(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
