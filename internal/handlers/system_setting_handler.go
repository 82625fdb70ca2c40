package handlers

import (
	"net/http"

	"hvac-backend/internal/middleware"
	"hvac-backend/internal/models"
	"hvac-backend/internal/services"
	"hvac-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type SystemSettingHandler struct {
	Service *services.SystemSettingService
	Audit   *services.AdminActionLogService
}

func NewSystemSettingHandler(service *services.SystemSettingService, audit *services.AdminActionLogService) *SystemSettingHandler {
	return &SystemSettingHandler{Service: service, Audit: audit}
}

func (h *SystemSettingHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.Service.GetSetting(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"setting": setting})
}

func (h *SystemSettingHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.ListSettings(r.Context())
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

func (h *SystemSettingHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req models.UpdateSettingRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	var updatedBy *string
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		updatedBy = &userID
	}

	var oldValue *string
	if prev, err := h.Service.GetSetting(r.Context(), key); err == nil {
		oldValue = &prev.SettingValue
	}

	if err := h.Service.UpsertSetting(r.Context(), key, req.SettingValue, updatedBy); err != nil {
		utils.Error(w, r, err)
		return
	}

	entry := actionLog(r, "setting_update", models.TargetSetting, key, "pricing setting changed")
	entry.OldValue = oldValue
	entry.NewValue = &req.SettingValue
	h.Audit.Record(r.Context(), entry)

	setting, err := h.Service.GetSetting(r.Context(), key)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"setting": setting})
}
