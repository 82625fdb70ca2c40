package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hvac-backend/internal/auth"
	"hvac-backend/internal/config"
	"hvac-backend/internal/handlers"
	"hvac-backend/internal/health"
	"hvac-backend/internal/middleware"
	"hvac-backend/internal/models"
	"hvac-backend/internal/services"
	"hvac-backend/internal/services/servicetest"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) (*mux.Router, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-secret"
	jm := auth.NewJWTManager(cfg)

	db := servicetest.New()
	db.AddProfile(models.Profile{ID: "tech", Role: models.RoleTechnicien, IsActive: true})
	db.AddProfile(models.Profile{ID: "admin", Role: models.RoleAdmin, IsActive: true})

	settings := services.NewSystemSettingService(db.Settings(), nil, nil)
	quotes := services.NewQuoteService(db.Quotes(), db.Clients(), db.Inventory(), settings,
		&servicetest.EmailRecorder{}, nil, nil, services.QuoteOptions{})
	reports := services.NewTechReportService(db.Reports(), db.Quotes(), db.Clients(), db.Inventory(), settings, nil, nil)

	audit := services.NewAdminActionLogService(db.ActionLogs())

	r := NewRouter(
		handlers.NewQuoteHandler(quotes, audit, handlers.Redirects{Error: "https://site.example.be/erreur"}),
		handlers.NewTechReportHandler(reports, audit),
		handlers.NewClientHandler(services.NewClientService(db.Clients(), "BE")),
		handlers.NewProspectHandler(services.NewProspectService(db.Prospects(), "BE")),
		handlers.NewInventoryHandler(services.NewInventoryService(db.Inventory())),
		handlers.NewSystemSettingHandler(settings, audit),
		handlers.NewAdminActionLogHandler(audit),
		handlers.NewHealthHandler(health.NewHealthChecker(okPinger{}, nil, db.Outbox())),
		middleware.NewAuthMiddleware(jm, db.Profiles()),
	)
	return r, jm
}

func TestRouter_Access(t *testing.T) {
	r, jm := newTestRouter(t)
	bearer := func(sub string) string {
		tok, err := jm.GenerateToken(sub, sub+"@example.be", time.Hour)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"health is public", "GET", "/health", "", http.StatusOK},
		{"readiness is public", "GET", "/health/ready", "", http.StatusOK},
		{"metrics are public", "GET", "/metrics", "", http.StatusOK},
		{"email link redirects without auth", "GET", "/quotes/x/accept", "", http.StatusSeeOther},
		{"listing needs a token", "GET", "/quotes", "", http.StatusUnauthorized},
		{"technician lists quotes", "GET", "/quotes", bearer("tech"), http.StatusOK},
		{"technician lists inventory", "GET", "/inventory", bearer("tech"), http.StatusOK},
		{"technician cannot validate", "POST", "/admin/quotes/validate", bearer("tech"), http.StatusForbidden},
		{"admin reaches validation", "POST", "/admin/quotes/validate", bearer("admin"), http.StatusBadRequest},
		{"unknown profile", "GET", "/clients", bearer("ghost"), http.StatusUnauthorized},
		{"unknown route", "GET", "/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString("{}"))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
