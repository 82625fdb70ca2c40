package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/config"
	"hvac-backend/internal/logger"
	"hvac-backend/internal/middleware"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/services"
	"hvac-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// Redirects are the pages a client lands on after clicking a link in the
// quote email.
type Redirects struct {
	Success string
	Already string
	Error   string
}

func RedirectsFromConfig(cfg *config.Config) Redirects {
	return Redirects{
		Success: cfg.Quotes.SuccessURL,
		Already: cfg.Quotes.AlreadyURL,
		Error:   cfg.Quotes.ErrorURL,
	}
}

type QuoteHandler struct {
	Service   *services.QuoteService
	Audit     *services.AdminActionLogService
	Redirects Redirects
}

func NewQuoteHandler(service *services.QuoteService, audit *services.AdminActionLogService, redirects Redirects) *QuoteHandler {
	return &QuoteHandler{Service: service, Audit: audit, Redirects: redirects}
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuoteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	quote, err := h.Service.Create(r.Context(), &req, userID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	utils.OK(w, http.StatusCreated, map[string]interface{}{"quote": quote})
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.QuoteFilter{
		Status:   quoting.Status(q.Get("status")),
		ClientID: q.Get("client_id"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		utils.Error(w, r, apperr.Validation("invalid status filter"))
		return
	}
	if filter.ClientID != "" && !utils.IsUUID(filter.ClientID) {
		utils.Error(w, r, apperr.Validation("invalid client_id filter"))
		return
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.Error(w, r, apperr.Validation("invalid "+name))
			return
		}
		*dst = n
	}

	quotes, err := h.Service.List(r.Context(), filter)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"quotes": quotes})
}

// View is the client-facing page data. No auth: the id is unguessable.
func (h *QuoteHandler) View(w http.ResponseWriter, r *http.Request) {
	quote, err := h.Service.View(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"quote": quote})
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	quote, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"quote": quote})
}

func (h *QuoteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, "quote_validate", h.Service.Validate)
}

func (h *QuoteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, "quote_accept", h.Service.Accept)
}

func (h *QuoteHandler) Refuse(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, "quote_refuse", h.Service.Refuse)
}

type transitionFunc func(ctx context.Context, id string) (*models.TransitionResult, error)

func (h *QuoteHandler) adminAction(w http.ResponseWriter, r *http.Request, action string, fn transitionFunc) {
	var req models.QuoteActionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	result, err := fn(r.Context(), req.QuoteID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	if !result.AlreadyResponded {
		status := string(result.Status)
		entry := actionLog(r, action, models.TargetQuote, result.QuoteID, "quote moved to "+status)
		entry.NewValue = &status
		h.Audit.Record(r.Context(), entry)
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"result": result})
}

// Respond is the JSON variant used by the quote page buttons.
func (h *QuoteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteRespondRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	result, err := h.Service.Respond(r.Context(), mux.Vars(r)["id"], req.Response)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.OK(w, http.StatusOK, map[string]interface{}{"result": result})
}

// PublicAccept and PublicDecline back the email links. They always redirect.
func (h *QuoteHandler) PublicAccept(w http.ResponseWriter, r *http.Request) {
	h.publicAction(w, r, h.Service.Accept)
}

func (h *QuoteHandler) PublicDecline(w http.ResponseWriter, r *http.Request) {
	h.publicAction(w, r, h.Service.Decline)
}

func (h *QuoteHandler) publicAction(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id := mux.Vars(r)["id"]
	result, err := fn(r.Context(), id)
	if err != nil {
		logger.For("quotes").WithError(err).WithField("quote_id", id).Warn("public quote link failed")
		h.redirect(w, r, h.Redirects.Error, id, "")
		return
	}
	if result.AlreadyResponded {
		h.redirect(w, r, h.Redirects.Already, id, string(result.Status))
		return
	}
	h.redirect(w, r, h.Redirects.Success, id, string(result.Status))
}

func (h *QuoteHandler) redirect(w http.ResponseWriter, r *http.Request, target, quoteID, status string) {
	u, err := url.Parse(target)
	if err != nil || target == "" {
		http.Error(w, "redirect not configured", http.StatusInternalServerError)
		return
	}
	q := u.Query()
	if utils.IsUUID(quoteID) {
		q.Set("quote", quoteID)
	}
	if status != "" {
		q.Set("status", status)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}
