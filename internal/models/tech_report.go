package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportPart is a part a technician noted on site.
type ReportPart struct {
	InventoryItemID string          `json:"inventory_item_id" validate:"required,uuid"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// TechReport is a technician's on-site estimate. It owns exactly one quote.
type TechReport struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	TechnicianID   string          `json:"technician_id"`
	QuoteID        *string         `json:"quote_id,omitempty"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	Parts          []ReportPart    `json:"parts"`
	Notes          string          `json:"notes"`
	SignatureURL   string          `json:"signature_url,omitempty"`
	PlanURL        string          `json:"plan_url,omitempty"`
	SignedAt       *time.Time      `json:"signed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateTechReportRequest represents the request body for a technician visit.
// Signature and plan are optional base64 images (data URLs accepted).
type CreateTechReportRequest struct {
	ClientID       string           `json:"client_id" validate:"required,uuid"`
	EstimatedHours decimal.Decimal  `json:"estimated_hours"`
	HourlyRate     *decimal.Decimal `json:"hourly_rate,omitempty"`
	Parts          []ReportPart     `json:"parts" validate:"dive"`
	Notes          string           `json:"notes" validate:"max=4000"`
	Signature      string           `json:"signature,omitempty"`
	Plan           string           `json:"plan,omitempty"`
}

// UpdateTechReportRequest is an admin correction. Omitted fields keep their
// value; a present parts list replaces the old one entirely.
type UpdateTechReportRequest struct {
	ReportID       string           `json:"report_id" validate:"required,uuid"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours,omitempty"`
	Parts          *[]ReportPart    `json:"parts,omitempty"`
	Notes          *string          `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// TechReportWithQuote is returned after a report write.
type TechReportWithQuote struct {
	Report TechReport  `json:"report"`
	Quote  Quote       `json:"quote"`
	Items  []QuoteItem `json:"items"`
}
