package handlers

import (
	"net/http"

	"hvac-backend/internal/models"
	"hvac-backend/internal/services"
	"hvac-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ClientHandler struct {
	Service *services.ClientService
}

func NewClientHandler(service *services.ClientService) *ClientHandler {
	return &ClientHandler{Service: service}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClientRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	client, err := h.Service.CreateClient(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusCreated, map[string]interface{}{"client": client})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.GetClient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"client": client})
}

// List accepts an optional ?stage= filter.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClients(r.Context(), r.URL.Query().Get("stage"))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"clients": clients})
}

func (h *ClientHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	client, err := h.Service.UpdateStage(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"client": client})
}

func (h *ClientHandler) SetChecklistItem(w http.ResponseWriter, r *http.Request) {
	var req models.ChecklistItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	client, err := h.Service.SetChecklistItem(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"client": client})
}
