package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/cache"
	"hvac-backend/internal/config"
	"hvac-backend/internal/email"
	"hvac-backend/internal/logger"
	"hvac-backend/internal/metrics"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/timeutil"
	"hvac-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// QuoteOptions carries the settings quote emails and links are built from.
type QuoteOptions struct {
	CompanyName   string
	PublicBaseURL string
	BookingURL    string
	MaxAttempts   int
}

func QuoteOptionsFromConfig(cfg *config.Config) QuoteOptions {
	return QuoteOptions{
		CompanyName:   cfg.Quotes.CompanyName,
		PublicBaseURL: strings.TrimRight(cfg.Quotes.PublicBaseURL, "/"),
		BookingURL:    cfg.Quotes.BookingURL,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
	}
}

type QuoteService struct {
	Quotes    QuoteStore
	Clients   ClientStore
	Inventory InventoryStore
	Settings  *SystemSettingService
	Email     email.Sender
	Cache     *cache.Store
	Locker    *cache.Locker
	opts      QuoteOptions
	now       func() time.Time
	log       *logrus.Entry
}

func NewQuoteService(quotes QuoteStore, clients ClientStore, inventory InventoryStore, settings *SystemSettingService,
	sender email.Sender, store *cache.Store, locker *cache.Locker, opts QuoteOptions) *QuoteService {
	return &QuoteService{
		Quotes:    quotes,
		Clients:   clients,
		Inventory: inventory,
		Settings:  settings,
		Email:     sender,
		Cache:     store,
		Locker:    locker,
		opts:      opts,
		now:       timeutil.Now,
		log:       logger.For("quotes"),
	}
}

func (s *QuoteService) link(id, suffix string) string {
	return s.opts.PublicBaseURL + "/quotes/" + id + suffix
}

// notFound maps a missing row to NOT_FOUND and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what)
	}
	return err
}

// Create prices the requested labor and parts and stores a draft quote.
func (s *QuoteService) Create(ctx context.Context, req *models.CreateQuoteRequest, userID string) (*models.QuoteWithDetails, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if req.EstimatedHours.IsNegative() {
		return nil, apperr.Validation("estimated_hours must not be negative")
	}
	hours, err := quoting.Cents("estimated_hours", req.EstimatedHours)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	client, err := s.Clients.Get(ctx, req.ClientID)
	if err != nil {
		return nil, notFound(err, "client")
	}

	defaults := s.Settings.PricingDefaults(ctx)
	rate := defaults.HourlyRate
	if req.HourlyRate != nil {
		if !req.HourlyRate.IsPositive() {
			return nil, apperr.Validation("hourly_rate must be positive")
		}
		if rate, err = quoting.Cents("hourly_rate", *req.HourlyRate); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}
	taxRate := defaults.TaxRate
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperr.Validation("tax_rate must be between 0 and 100")
		}
		if taxRate, err = quoting.Cents("tax_rate", *req.TaxRate); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}

	parts, err := s.resolveParts(ctx, req.Parts)
	if err != nil {
		return nil, err
	}

	drafts, err := quoting.BuildItems(hours, rate, parts)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	quote := &models.Quote{
		ClientID:       client.ID,
		Status:         quoting.StatusDraft,
		EstimatedHours: hours,
		Notes:          req.Notes,
	}
	if userID != "" {
		quote.CreatedBy = &userID
	}
	quote.ApplyBreakdown(quoting.Calculate(quoting.Input{
		EstimatedHours: hours,
		HourlyRate:     &rate,
		TaxRate:        &taxRate,
		Lines:          quoting.Lines(drafts),
	}))

	items, err := s.Quotes.Create(ctx, quote, models.QuoteItemsFromDrafts("", drafts))
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	metrics.QuoteNumbersIssued.Inc()

	s.log.WithFields(logrus.Fields{"quote_id": quote.ID, "number": quote.Number, "total": quote.Total.StringFixed(2)}).
		Info("quote created")

	return &models.QuoteWithDetails{
		Quote:       *quote,
		Items:       items,
		ClientName:  client.Name,
		ClientEmail: client.Email,
		ClientPhone: client.Phone,
	}, nil
}

// resolveParts turns requested parts into priced lines. Inventory references
// take the current catalogue price unless the request overrides it.
func (s *QuoteService) resolveParts(ctx context.Context, parts []models.QuotePart) ([]quoting.PartLine, error) {
	var ids []string
	for _, p := range parts {
		if p.InventoryItemID != nil {
			ids = append(ids, *p.InventoryItemID)
		}
	}
	prices := map[string]models.PricedItem{}
	if len(ids) > 0 {
		var err error
		if prices, err = s.Inventory.Prices(ctx, ids); err != nil {
			return nil, fmt.Errorf("load inventory prices: %w", err)
		}
	}

	lines := make([]quoting.PartLine, 0, len(parts))
	for i, p := range parts {
		if p.Quantity.IsNegative() {
			return nil, apperr.Validation(fmt.Sprintf("parts[%d].quantity must not be negative", i))
		}
		qty, err := quoting.Cents(fmt.Sprintf("parts[%d].quantity", i), p.Quantity)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		line := quoting.PartLine{InventoryItemID: p.InventoryItemID, Label: p.Label, Quantity: qty}

		if p.InventoryItemID != nil {
			priced, ok := prices[*p.InventoryItemID]
			if !ok {
				return nil, apperr.Validation(fmt.Sprintf("parts[%d]: inventory item not found", i))
			}
			if line.Label == "" {
				line.Label = priced.Name
			}
			line.UnitPrice = priced.UnitPrice
		} else if p.UnitPrice == nil {
			return nil, apperr.Validation(fmt.Sprintf("parts[%d].unit_price is required for a free line", i))
		}

		if p.UnitPrice != nil {
			if p.UnitPrice.IsNegative() {
				return nil, apperr.Validation(fmt.Sprintf("parts[%d].unit_price must not be negative", i))
			}
			if line.UnitPrice, err = quoting.Cents(fmt.Sprintf("parts[%d].unit_price", i), *p.UnitPrice); err != nil {
				return nil, apperr.Validation(err.Error())
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *QuoteService) Get(ctx context.Context, id string) (*models.QuoteWithDetails, error) {
	if !utils.IsUUID(id) {
		return nil, apperr.NotFound("quote")
	}
	q, err := s.Quotes.GetWithDetails(ctx, id)
	if err != nil {
		return nil, notFound(err, "quote")
	}
	return q, nil
}

// View is the client-facing read behind the emailed link. Contact data is
// left out and the result is cached until the next status change.
func (s *QuoteService) View(ctx context.Context, id string) (*models.QuoteWithDetails, error) {
	key := cache.QuoteViewKey(id)
	if raw, ok := s.Cache.Get(ctx, key); ok {
		var q models.QuoteWithDetails
		if err := json.Unmarshal(raw, &q); err == nil {
			return &q, nil
		}
	}

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.ClientEmail = ""
	q.ClientPhone = ""
	q.CreatedBy = nil

	if raw, err := json.Marshal(q); err == nil {
		s.Cache.Set(ctx, key, raw, cache.QuoteViewTTL)
	}
	return q, nil
}

func (s *QuoteService) List(ctx context.Context, filter models.QuoteFilter) ([]models.Quote, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("unknown status filter")
	}
	if filter.ClientID != "" && !utils.IsUUID(filter.ClientID) {
		return nil, apperr.Validation("client_id must be a UUID")
	}
	return s.Quotes.List(ctx, filter)
}

// Validate sends a draft quote to its client. The email goes out first; if it
// fails the quote stays a draft.
func (s *QuoteService) Validate(ctx context.Context, id string) (*models.TransitionResult, error) {
	return s.transition(ctx, id, quoting.ActionValidate)
}

// Accept records the client's acceptance of a sent quote.
func (s *QuoteService) Accept(ctx context.Context, id string) (*models.TransitionResult, error) {
	return s.transition(ctx, id, quoting.ActionAccept)
}

// Decline records the client's refusal of a sent quote.
func (s *QuoteService) Decline(ctx context.Context, id string) (*models.TransitionResult, error) {
	return s.transition(ctx, id, quoting.ActionDecline)
}

// Refuse is the admin shortcut that closes a draft or sent quote.
func (s *QuoteService) Refuse(ctx context.Context, id string) (*models.TransitionResult, error) {
	return s.transition(ctx, id, quoting.ActionRefuse)
}

// Respond applies a client answer given as "accepted" or "refused".
func (s *QuoteService) Respond(ctx context.Context, id, response string) (*models.TransitionResult, error) {
	action, err := quoting.ResponseAction(response)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return s.transition(ctx, id, action)
}

func (s *QuoteService) transition(ctx context.Context, id string, action quoting.Action) (*models.TransitionResult, error) {
	if !utils.IsUUID(id) {
		return nil, apperr.NotFound("quote")
	}
	log := s.log.WithFields(logrus.Fields{"quote_id": id, "action": action})

	release, err := s.Locker.Obtain(ctx, "quote-transition:"+id)
	if err != nil {
		log.WithError(err).Warn("transition lock not obtained, relying on conditional update")
	}
	defer release()

	q, err := s.Quotes.GetWithDetails(ctx, id)
	if err != nil {
		return nil, notFound(err, "quote")
	}

	to, err := quoting.Transition(q.Status, action)
	if errors.Is(err, quoting.ErrAlreadyResponded) {
		metrics.QuoteTransitionsTotal.WithLabelValues(string(action), "already_responded").Inc()
		return &models.TransitionResult{QuoteID: id, Status: q.Status, AlreadyResponded: true}, nil
	}
	if err != nil {
		metrics.QuoteTransitionsTotal.WithLabelValues(string(action), "rejected").Inc()
		return nil, apperr.Validation(err.Error())
	}

	now := s.now()
	t := models.QuoteTransition{
		QuoteID: id,
		From:    quoting.AllowedFrom(action),
		To:      to,
		At:      now,
	}

	switch action {
	case quoting.ActionValidate:
		if err := s.prepareValidate(ctx, q, &t); err != nil {
			metrics.QuoteTransitionsTotal.WithLabelValues(string(action), "rejected").Inc()
			return nil, err
		}
	case quoting.ActionAccept:
		if q.Expired(now) {
			metrics.QuoteTransitionsTotal.WithLabelValues(string(action), "rejected").Inc()
			return nil, apperr.Validation("quote has expired")
		}
		if err := s.prepareAccept(q, &t); err != nil {
			return nil, err
		}
	case quoting.ActionDecline, quoting.ActionRefuse:
		t.ClientPatch = func(c *models.Client) error {
			c.WorkflowState.MarkRefused(now)
			c.CRMStage = quoting.StageAfter(c.CRMStage, quoting.StatusRefused)
			return nil
		}
	}

	out, err := s.Quotes.ApplyTransition(ctx, t)
	if err != nil {
		return nil, notFound(err, "quote")
	}
	s.Cache.InvalidateQuote(ctx, id)

	if !out.Applied && action == quoting.ActionValidate {
		metrics.QuoteTransitionsTotal.WithLabelValues(string(action), "rejected").Inc()
		return nil, apperr.Validation(fmt.Sprintf("%s: quote is %s", quoting.ErrAlreadySent, out.Status))
	}
	if !out.Applied {
		metrics.QuoteTransitionsTotal.WithLabelValues(string(action), "already_responded").Inc()
		log.WithField("status", out.Status).Info("quote changed concurrently, nothing applied")
		return &models.TransitionResult{QuoteID: id, Status: out.Status, AlreadyResponded: true}, nil
	}

	metrics.QuoteTransitionsTotal.WithLabelValues(string(action), "applied").Inc()
	log.WithFields(logrus.Fields{
		"status":      out.Status,
		"client_id":   out.ClientID,
		"client_sync": out.ClientSyncErr == nil,
		"enqueued":    out.Enqueued,
	}).Info("quote transition applied")

	return &models.TransitionResult{QuoteID: id, Status: out.Status}, nil
}

// prepareValidate sends the quote email and fills in the sent-side effects.
func (s *QuoteService) prepareValidate(ctx context.Context, q *models.QuoteWithDetails, t *models.QuoteTransition) error {
	if q.ClientEmail == "" {
		return apperr.Validation("client has no email address")
	}

	validity := s.Settings.PricingDefaults(ctx).ValidityDays
	expires := timeutil.EndOfDayAfter(t.At, validity)
	t.ExpiresAt = &expires

	subject, html, err := email.RenderQuote(email.QuoteData{
		CompanyName: s.opts.CompanyName,
		ClientName:  q.ClientName,
		QuoteNumber: q.Number,
		Items:       quoting.ToEmailItems(models.Drafts(q.Items)),
		Subtotal:    q.LaborTotal.Add(q.PartsTotal).StringFixed(2),
		TaxRate:     q.TaxRate.String(),
		TaxAmount:   q.TaxAmount.StringFixed(2),
		Total:       q.Total.StringFixed(2),
		ValidUntil:  timeutil.FormatDate(expires),
		ViewURL:     s.link(q.ID, ""),
		AcceptURL:   s.link(q.ID, "/accept"),
		DeclineURL:  s.link(q.ID, "/decline"),
	})
	if err != nil {
		return err
	}
	if _, err := s.Email.Send(ctx, email.Message{To: q.ClientEmail, Subject: subject, HTML: html}); err != nil {
		return apperr.Email(err)
	}

	at := t.At
	t.ClientPatch = func(c *models.Client) error {
		c.WorkflowState.MarkSent(at)
		if err := c.Checklists.Set(models.ChecklistDevis, "q2", true); err != nil {
			return err
		}
		c.CRMStage = quoting.StageAfter(c.CRMStage, quoting.StatusSent)
		return nil
	}

	if q.ClientPhone != "" {
		t.Outbox = &models.OutboxMessage{
			Kind:        models.NotifyQuoteSentSMS,
			Channel:     models.ChannelSMS,
			Recipient:   q.ClientPhone,
			Body:        email.QuoteSentSMS(s.opts.CompanyName, q.Number, s.link(q.ID, "")),
			DedupKey:    "quote:" + q.ID + ":sent:sms",
			MaxAttempts: s.opts.MaxAttempts,
		}
	}
	return nil
}

// prepareAccept fills in the client sync and the thank-you email.
func (s *QuoteService) prepareAccept(q *models.QuoteWithDetails, t *models.QuoteTransition) error {
	at := t.At
	t.ClientPatch = func(c *models.Client) error {
		c.IsProspect = false
		if err := c.Checklists.Set(models.ChecklistDevis, "q3", true); err != nil {
			return err
		}
		c.WorkflowState.MarkAccepted(at)
		c.CRMStage = quoting.StageAfter(c.CRMStage, quoting.StatusAccepted)
		return nil
	}

	if q.ClientEmail == "" {
		return nil
	}
	subject, html, err := email.RenderAccepted(email.AcceptedData{
		CompanyName: s.opts.CompanyName,
		ClientName:  q.ClientName,
		QuoteNumber: q.Number,
		Total:       q.Total.StringFixed(2),
		BookingURL:  s.opts.BookingURL,
	})
	if err != nil {
		return err
	}
	t.Outbox = &models.OutboxMessage{
		Kind:        models.NotifyQuoteAccepted,
		Channel:     models.ChannelEmail,
		Recipient:   q.ClientEmail,
		Subject:     subject,
		Body:        html,
		DedupKey:    "quote:" + q.ID + ":accepted",
		MaxAttempts: s.opts.MaxAttempts,
	}
	return nil
}
