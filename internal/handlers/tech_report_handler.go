package handlers

import (
	"net/http"

	"hvac-backend/internal/middleware"
	"hvac-backend/internal/models"
	"hvac-backend/internal/services"
	"hvac-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type TechReportHandler struct {
	Service *services.TechReportService
	Audit   *services.AdminActionLogService
}

func NewTechReportHandler(service *services.TechReportService, audit *services.AdminActionLogService) *TechReportHandler {
	return &TechReportHandler{Service: service, Audit: audit}
}

// Create stores a visit report and drafts its quote.
func (h *TechReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTechReportRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	technicianID, _ := middleware.GetUserIDFromContext(r.Context())
	out, err := h.Service.Create(r.Context(), &req, technicianID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusCreated, map[string]interface{}{
		"report": out.Report,
		"quote":  out.Quote,
		"items":  out.Items,
	})
}

func (h *TechReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"report": report})
}

// Update corrects a report and re-prices its quote.
func (h *TechReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTechReportRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	out, err := h.Service.Update(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	total := out.Quote.Total.StringFixed(2)
	entry := actionLog(r, "tech_report_update", models.TargetTechReport, out.Report.ID, "report corrected, quote "+out.Quote.Number+" re-priced")
	entry.NewValue = &total
	h.Audit.Record(r.Context(), entry)
	utils.OK(w, http.StatusOK, map[string]interface{}{
		"report": out.Report,
		"quote":  out.Quote,
		"items":  out.Items,
	})
}
