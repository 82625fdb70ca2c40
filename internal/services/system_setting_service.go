package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/cache"
	"hvac-backend/internal/config"
	"hvac-backend/internal/logger"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	pricingCacheKey = "settings:pricing"
	pricingCacheTTL = 5 * time.Minute
)

// PricingDefaults are the values a quote falls back to when the request
// does not carry its own.
type PricingDefaults struct {
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	ValidityDays int             `json:"validity_days"`
}

var settingDescriptions = map[string]string{
	models.SettingDefaultHourlyRate: "Default labor rate per hour (EUR, excl. VAT)",
	models.SettingDefaultTaxRate:    "Default VAT rate in percent",
	models.SettingQuoteValidityDays: "Days a sent quote stays acceptable",
}

type SystemSettingService struct {
	Repo     SettingStore
	Cache    *cache.Store
	fallback PricingDefaults
}

// NewSystemSettingService takes its fallbacks from config; stored settings
// override them.
func NewSystemSettingService(repo SettingStore, store *cache.Store, cfg *config.Config) *SystemSettingService {
	fb := PricingDefaults{
		HourlyRate:   quoting.DefaultHourlyRate,
		TaxRate:      quoting.DefaultTaxRate,
		ValidityDays: 30,
	}
	if cfg != nil {
		if d, err := decimal.NewFromString(cfg.Quotes.DefaultHourlyRate); err == nil && d.IsPositive() {
			fb.HourlyRate = d
		}
		if d, err := decimal.NewFromString(cfg.Quotes.DefaultTaxRate); err == nil && !d.IsNegative() {
			fb.TaxRate = d
		}
		if cfg.Quotes.ValidityDays > 0 {
			fb.ValidityDays = cfg.Quotes.ValidityDays
		}
	}
	return &SystemSettingService{Repo: repo, Cache: store, fallback: fb}
}

func (s *SystemSettingService) GetSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	if _, ok := settingDescriptions[key]; !ok {
		return nil, apperr.NotFound("setting")
	}
	setting, err := s.Repo.Get(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("setting")
	}
	return setting, err
}

func (s *SystemSettingService) ListSettings(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.Repo.List(ctx)
}

// UpsertSetting validates and stores a pricing setting, then drops the cached
// defaults.
func (s *SystemSettingService) UpsertSetting(ctx context.Context, key, value string, userID *string) error {
	desc, ok := settingDescriptions[key]
	if !ok {
		return apperr.NotFound("setting")
	}
	if err := validateSetting(key, value); err != nil {
		return err
	}
	if err := s.Repo.Upsert(ctx, key, value, desc, userID); err != nil {
		return err
	}
	s.Cache.Delete(ctx, pricingCacheKey)
	return nil
}

func validateSetting(key, value string) error {
	switch key {
	case models.SettingDefaultHourlyRate:
		d, err := decimal.NewFromString(value)
		if err != nil || !d.IsPositive() {
			return apperr.Validation("hourly rate must be a positive number")
		}
		if _, err := quoting.Cents("hourly rate", d); err != nil {
			return apperr.Validation(err.Error())
		}
	case models.SettingDefaultTaxRate:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return apperr.Validation("tax rate must be between 0 and 100")
		}
		if _, err := quoting.Cents("tax rate", d); err != nil {
			return apperr.Validation(err.Error())
		}
	case models.SettingQuoteValidityDays:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 365 {
			return apperr.Validation("validity must be between 1 and 365 days")
		}
	}
	return nil
}

// PricingDefaults returns the effective defaults. A setting that is missing
// or unreadable falls back to config.
func (s *SystemSettingService) PricingDefaults(ctx context.Context) PricingDefaults {
	if raw, ok := s.Cache.Get(ctx, pricingCacheKey); ok {
		var d PricingDefaults
		if err := json.Unmarshal(raw, &d); err == nil {
			return d
		}
	}

	d := s.fallback
	settings, err := s.Repo.List(ctx)
	if err != nil {
		logger.For("settings").WithError(err).Warn("failed to load settings, using config defaults")
		return d
	}
	for _, st := range settings {
		if validateSetting(st.SettingKey, st.SettingValue) != nil {
			continue
		}
		switch st.SettingKey {
		case models.SettingDefaultHourlyRate:
			d.HourlyRate = decimal.RequireFromString(st.SettingValue)
		case models.SettingDefaultTaxRate:
			d.TaxRate = decimal.RequireFromString(st.SettingValue)
		case models.SettingQuoteValidityDays:
			d.ValidityDays, _ = strconv.Atoi(st.SettingValue)
		}
	}

	if raw, err := json.Marshal(d); err == nil {
		s.Cache.Set(ctx, pricingCacheKey, raw, pricingCacheTTL)
	}
	return d
}
