package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/cache"
	"hvac-backend/internal/logger"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/repositories"
	"hvac-backend/internal/storage"
	"hvac-backend/internal/timeutil"
	"hvac-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// unknownPartLabel names a line whose inventory item no longer exists.
const unknownPartLabel = "Article inconnu"

type TechReportService struct {
	Reports   TechReportStore
	Quotes    QuoteStore
	Clients   ClientStore
	Inventory InventoryStore
	Settings  *SystemSettingService
	Uploader  storage.Uploader
	Cache     *cache.Store
	now       func() time.Time
	log       *logrus.Entry
}

func NewTechReportService(reports TechReportStore, quotes QuoteStore, clients ClientStore, inventory InventoryStore,
	settings *SystemSettingService, uploader storage.Uploader, store *cache.Store) *TechReportService {
	return &TechReportService{
		Reports:   reports,
		Quotes:    quotes,
		Clients:   clients,
		Inventory: inventory,
		Settings:  settings,
		Uploader:  uploader,
		Cache:     store,
		now:       timeutil.Now,
		log:       logger.For("tech_reports"),
	}
}

// priceParts looks up current unit prices. An item that vanished from the
// inventory is priced at 0 and logged rather than failing the whole report.
// Quantities are normalized to cents in place.
func (s *TechReportService) priceParts(ctx context.Context, parts []models.ReportPart) ([]quoting.PartLine, error) {
	ids := make([]string, 0, len(parts))
	for i := range parts {
		if parts[i].Quantity.IsNegative() {
			return nil, apperr.Validation(fmt.Sprintf("parts[%d].quantity must not be negative", i))
		}
		qty, err := quoting.Cents(fmt.Sprintf("parts[%d].quantity", i), parts[i].Quantity)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		parts[i].Quantity = qty
		ids = append(ids, parts[i].InventoryItemID)
	}

	prices := map[string]models.PricedItem{}
	if len(ids) > 0 {
		var err error
		if prices, err = s.Inventory.Prices(ctx, ids); err != nil {
			return nil, fmt.Errorf("load inventory prices: %w", err)
		}
	}

	lines := make([]quoting.PartLine, len(parts))
	for i, p := range parts {
		id := p.InventoryItemID
		line := quoting.PartLine{InventoryItemID: &id, Label: unknownPartLabel, Quantity: p.Quantity}
		if priced, ok := prices[id]; ok {
			line.Label = priced.Name
			line.UnitPrice = priced.UnitPrice
		} else {
			s.log.WithField("inventory_item_id", id).Warn("inventory item not found, pricing at 0")
		}
		lines[i] = line
	}
	return lines, nil
}

func (s *TechReportService) buildQuote(ctx context.Context, report *models.TechReport, quote *models.Quote) ([]models.QuoteItem, error) {
	parts, err := s.priceParts(ctx, report.Parts)
	if err != nil {
		return nil, err
	}
	drafts, err := quoting.BuildItems(report.EstimatedHours, report.HourlyRate, parts)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	taxRate := quote.TaxRate
	quote.EstimatedHours = report.EstimatedHours
	quote.ApplyBreakdown(quoting.Calculate(quoting.Input{
		EstimatedHours: report.EstimatedHours,
		HourlyRate:     &report.HourlyRate,
		TaxRate:        &taxRate,
		Lines:          quoting.Lines(drafts),
	}))
	return models.QuoteItemsFromDrafts(quote.ID, drafts), nil
}

// Create stores a technician's visit report together with its draft quote.
func (s *TechReportService) Create(ctx context.Context, req *models.CreateTechReportRequest, technicianID string) (*models.TechReportWithQuote, error) {
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
	if _, err := s.Clients.Get(ctx, req.ClientID); err != nil {
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

	report := &models.TechReport{
		ClientID:       req.ClientID,
		TechnicianID:   technicianID,
		EstimatedHours: hours,
		HourlyRate:     rate,
		Parts:          req.Parts,
		Notes:          req.Notes,
	}
	if report.Parts == nil {
		report.Parts = []models.ReportPart{}
	}
	quote := &models.Quote{
		ClientID: req.ClientID,
		Status:   quoting.StatusDraft,
		TaxRate:  defaults.TaxRate,
		Notes:    req.Notes,
	}
	if technicianID != "" {
		quote.CreatedBy = &technicianID
	}

	items, err := s.buildQuote(ctx, report, quote)
	if err != nil {
		return nil, err
	}

	if req.Signature != "" {
		url, err := s.upload(ctx, req.ClientID, "signature", req.Signature)
		if err != nil {
			return nil, err
		}
		report.SignatureURL = url
		if url != "" {
			signed := s.now()
			report.SignedAt = &signed
		}
	}
	if req.Plan != "" {
		if report.PlanURL, err = s.upload(ctx, req.ClientID, "plan", req.Plan); err != nil {
			return nil, err
		}
	}

	saved, err := s.Reports.CreateWithQuote(ctx, report, quote, items)
	if err != nil {
		return nil, fmt.Errorf("create tech report: %w", err)
	}

	s.log.WithFields(logrus.Fields{"report_id": report.ID, "quote_id": quote.ID, "number": quote.Number}).
		Info("tech report created")
	return &models.TechReportWithQuote{Report: *report, Quote: *quote, Items: saved}, nil
}

// upload stores one base64 attachment. Without configured storage the
// attachment is dropped with a warning.
func (s *TechReportService) upload(ctx context.Context, clientID, name, data string) (string, error) {
	raw, contentType, ext, err := storage.DecodeImage(data)
	if err != nil {
		return "", apperr.Validation(fmt.Sprintf("%s must be a base64 PNG, JPEG or WebP image", name))
	}

	path := fmt.Sprintf("tech-reports/%s/%s-%s.%s", clientID, uuid.NewString(), name, ext)
	url, err := s.Uploader.Upload(ctx, path, raw, contentType)
	if errors.Is(err, storage.ErrNotConfigured) {
		s.log.WithField("attachment", name).Warn("storage not configured, attachment dropped")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return url, nil
}

func (s *TechReportService) Get(ctx context.Context, id string) (*models.TechReport, error) {
	if !utils.IsUUID(id) {
		return nil, apperr.NotFound("tech report")
	}
	report, err := s.Reports.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "tech report")
	}
	return report, nil
}

// Update applies an admin correction to a report and rebuilds its quote from
// scratch: totals recomputed, items deleted and reinserted, all in one
// transaction.
func (s *TechReportService) Update(ctx context.Context, req *models.UpdateTechReportRequest) (*models.TechReportWithQuote, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	report, err := s.Get(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	if report.QuoteID == nil {
		return nil, apperr.Validation("tech report has no quote")
	}

	quote, err := s.Quotes.Get(ctx, *report.QuoteID)
	if err != nil {
		return nil, notFound(err, "quote")
	}
	if quote.Status.Terminal() {
		return nil, apperr.Validation(fmt.Sprintf("quote %s is already %s", quote.Number, quote.Status))
	}

	if req.EstimatedHours != nil {
		if req.EstimatedHours.IsNegative() {
			return nil, apperr.Validation("estimated_hours must not be negative")
		}
		if report.EstimatedHours, err = quoting.Cents("estimated_hours", *req.EstimatedHours); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}
	if req.Parts != nil {
		report.Parts = *req.Parts
		if report.Parts == nil {
			report.Parts = []models.ReportPart{}
		}
	}
	if req.Notes != nil {
		report.Notes = *req.Notes
	}

	items, err := s.buildQuote(ctx, report, quote)
	if err != nil {
		return nil, err
	}

	saved, err := s.Reports.SyncQuote(ctx, report, quote, items)
	if errors.Is(err, repositories.ErrQuoteLocked) {
		return nil, apperr.Validation(fmt.Sprintf("quote %s was answered meanwhile", quote.Number))
	}
	if err != nil {
		return nil, fmt.Errorf("sync quote: %w", err)
	}
	s.Cache.InvalidateQuote(ctx, quote.ID)

	s.log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"quote_id":  quote.ID,
		"items":     len(saved),
		"total":     quote.Total.StringFixed(2),
	}).Info("quote resynced from tech report")

	return &models.TechReportWithQuote{Report: *report, Quote: *quote, Items: saved}, nil
}
