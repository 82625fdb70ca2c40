package http

import (
	"net/http"

	"hvac-backend/internal/handlers"
	"hvac-backend/internal/middleware"
	"hvac-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. CORS is applied by the caller around the
// returned router so that preflight requests never reach route matching.
func NewRouter(
	quoteHandler *handlers.QuoteHandler,
	techReportHandler *handlers.TechReportHandler,
	clientHandler *handlers.ClientHandler,
	prospectHandler *handlers.ProspectHandler,
	inventoryHandler *handlers.InventoryHandler,
	systemSettingHandler *handlers.SystemSettingHandler,
	adminActionLogHandler *handlers.AdminActionLogHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.MetricsMiddleware)

	// Health and metrics
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	// Public routes: the quote page, the email links and the lead form
	r.HandleFunc("/quotes/{id}", quoteHandler.View).Methods("GET")
	r.HandleFunc("/quotes/{id}/accept", quoteHandler.PublicAccept).Methods("GET")
	r.HandleFunc("/quotes/{id}/decline", quoteHandler.PublicDecline).Methods("GET")
	r.HandleFunc("/quotes/{id}/respond", quoteHandler.Respond).Methods("POST")
	r.HandleFunc("/prospects", prospectHandler.Create).Methods("POST")

	staff := middleware.Chain(authMiddleware.Authenticate)
	admin := middleware.Chain(authMiddleware.Authenticate,
		authMiddleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	// Technicians and admins
	r.Handle("/quotes", staff(quoteHandler.Create)).Methods("POST")
	r.Handle("/quotes", staff(quoteHandler.List)).Methods("GET")
	r.Handle("/tech-reports", staff(techReportHandler.Create)).Methods("POST")
	r.Handle("/tech-reports/{id}", staff(techReportHandler.Get)).Methods("GET")
	r.Handle("/clients", staff(clientHandler.List)).Methods("GET")
	r.Handle("/clients", staff(clientHandler.Create)).Methods("POST")
	r.Handle("/clients/{id}", staff(clientHandler.Get)).Methods("GET")
	r.Handle("/clients/{id}/stage", staff(clientHandler.UpdateStage)).Methods("PATCH")
	r.Handle("/clients/{id}/checklist", staff(clientHandler.SetChecklistItem)).Methods("PATCH")
	r.Handle("/inventory", staff(inventoryHandler.List)).Methods("GET")
	r.Handle("/inventory", staff(inventoryHandler.Create)).Methods("POST")

	// Admin only
	r.Handle("/admin/quotes/validate", admin(quoteHandler.Validate)).Methods("POST")
	r.Handle("/admin/quotes/accept", admin(quoteHandler.Accept)).Methods("POST")
	r.Handle("/admin/quotes/refuse", admin(quoteHandler.Refuse)).Methods("POST")
	r.Handle("/admin/quotes/{id}", admin(quoteHandler.Get)).Methods("GET")
	r.Handle("/admin/tech-reports", admin(techReportHandler.Update)).Methods("PATCH")
	r.Handle("/admin/prospects", admin(prospectHandler.List)).Methods("GET")
	r.Handle("/admin/settings", admin(systemSettingHandler.ListSettings)).Methods("GET")
	r.Handle("/admin/settings/{key}", admin(systemSettingHandler.GetSetting)).Methods("GET")
	r.Handle("/admin/settings/{key}", admin(systemSettingHandler.UpdateSetting)).Methods("PUT")
	r.Handle("/admin/action-logs", admin(adminActionLogHandler.ListActionLogs)).Methods("GET")
	r.Handle("/admin/health/detailed", admin(healthHandler.DetailedHealth)).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	return r
}
