package models

import "time"

type SystemSetting struct {
	ID           int       `json:"id"`
	SettingKey   string    `json:"setting_key"`
	SettingValue string    `json:"setting_value"`
	Description  string    `json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
	UpdatedBy    *string   `json:"updated_by,omitempty"`
}

type UpdateSettingRequest struct {
	SettingValue string `json:"setting_value" validate:"required,max=200"`
}

// Pricing setting keys
const (
	SettingDefaultHourlyRate = "default_hourly_rate"
	SettingDefaultTaxRate    = "default_tax_rate"
	SettingQuoteValidityDays = "quote_validity_days"
)
