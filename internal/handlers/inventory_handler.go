package handlers

import (
	"net/http"

	"hvac-backend/internal/models"
	"hvac-backend/internal/services"
	"hvac-backend/pkg/utils"
)

type InventoryHandler struct {
	Service *services.InventoryService
}

func NewInventoryHandler(service *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{Service: service}
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListItems(r.Context())
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInventoryItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	item, err := h.Service.CreateItem(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusCreated, map[string]interface{}{"item": item})
}
