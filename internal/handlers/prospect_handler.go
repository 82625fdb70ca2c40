package handlers

import (
	"net/http"

	"hvac-backend/internal/models"
	"hvac-backend/internal/services"
	"hvac-backend/pkg/utils"
)

type ProspectHandler struct {
	Service *services.ProspectService
}

func NewProspectHandler(service *services.ProspectService) *ProspectHandler {
	return &ProspectHandler{Service: service}
}

// Create is the public lead form.
func (h *ProspectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProspectRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	out, err := h.Service.CreateProspect(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusCreated, map[string]interface{}{
		"prospect": out.Prospect,
		"client":   out.Client,
	})
}

func (h *ProspectHandler) List(w http.ResponseWriter, r *http.Request) {
	prospects, err := h.Service.ListProspects(r.Context())
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"prospects": prospects})
}
