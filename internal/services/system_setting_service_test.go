package services

import (
	"context"
	"testing"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/cache"
	"hvac-backend/internal/config"
	"hvac-backend/internal/models"
	"hvac-backend/internal/services/servicetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingDefaults_Fallbacks(t *testing.T) {
	db := servicetest.New()

	d := NewSystemSettingService(db.Settings(), nil, nil).PricingDefaults(context.Background())
	assert.Equal(t, "65", d.HourlyRate.String())
	assert.Equal(t, "21", d.TaxRate.String())
	assert.Equal(t, 30, d.ValidityDays)

	cfg := &config.Config{}
	cfg.Quotes.DefaultHourlyRate = "70.5"
	cfg.Quotes.DefaultTaxRate = "bogus"
	cfg.Quotes.ValidityDays = 14
	d = NewSystemSettingService(db.Settings(), nil, cfg).PricingDefaults(context.Background())
	assert.Equal(t, "70.5", d.HourlyRate.String())
	assert.Equal(t, "21", d.TaxRate.String())
	assert.Equal(t, 14, d.ValidityDays)
}

func TestUpsertSetting_Validates(t *testing.T) {
	svc := NewSystemSettingService(servicetest.New().Settings(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		key, value string
		code       apperr.Code
	}{
		{models.SettingDefaultHourlyRate, "0", apperr.CodeValidation},
		{models.SettingDefaultHourlyRate, "abc", apperr.CodeValidation},
		{models.SettingDefaultHourlyRate, "62.125", apperr.CodeValidation},
		{models.SettingDefaultTaxRate, "101", apperr.CodeValidation},
		{models.SettingDefaultTaxRate, "21.005", apperr.CodeValidation},
		{models.SettingQuoteValidityDays, "0", apperr.CodeValidation},
		{"smtp_password", "x", apperr.CodeNotFound},
	}
	for _, tt := range tests {
		err := svc.UpsertSetting(ctx, tt.key, tt.value, nil)
		assert.True(t, apperr.Is(err, tt.code), "%s=%s: %v", tt.key, tt.value, err)
	}

	userID := "3f6c1a2e-8b9d-4e0f-a1b2-c3d4e5f6a7b8"
	require.NoError(t, svc.UpsertSetting(ctx, models.SettingQuoteValidityDays, "45", &userID))
	s, err := svc.GetSetting(ctx, models.SettingQuoteValidityDays)
	require.NoError(t, err)
	assert.Equal(t, "45", s.SettingValue)
	assert.Equal(t, &userID, s.UpdatedBy)
}

func TestPricingDefaults_CacheInvalidatedOnUpsert(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	svc := NewSystemSettingService(servicetest.New().Settings(), store, nil)
	ctx := context.Background()

	assert.Equal(t, "65", svc.PricingDefaults(ctx).HourlyRate.String())
	assert.True(t, mr.Exists(pricingCacheKey))

	require.NoError(t, svc.UpsertSetting(ctx, models.SettingDefaultHourlyRate, "72", nil))
	assert.False(t, mr.Exists(pricingCacheKey))
	assert.Equal(t, "72", svc.PricingDefaults(ctx).HourlyRate.String())
}
