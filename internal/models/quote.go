package models

import (
	"time"

	"hvac-backend/internal/quoting"

	"github.com/shopspring/decimal"
)

// Quote is a priced proposal sent to a client. The five money columns are
// always written together from one quoting.Breakdown.
type Quote struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	TechReportID   *string         `json:"tech_report_id,omitempty"`
	Number         string          `json:"number"`
	Status         quoting.Status  `json:"status"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	LaborTotal     decimal.Decimal `json:"labor_total"`
	PartsTotal     decimal.Decimal `json:"parts_total"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	Notes          string          `json:"notes"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty"`
	RefusedAt      *time.Time      `json:"refused_at,omitempty"`
	CreatedBy      *string         `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Expired reports whether the quote's validity window has passed at now.
func (q *Quote) Expired(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

// ApplyBreakdown copies a pricing result onto the quote.
func (q *Quote) ApplyBreakdown(b quoting.Breakdown) {
	q.HourlyRate = b.HourlyRate
	q.TaxRate = b.TaxRate
	q.LaborTotal = b.LaborTotal
	q.PartsTotal = b.PartsTotal
	q.TaxAmount = b.TaxAmount
	q.Total = b.Total
}

type QuoteItem struct {
	ID              string           `json:"id"`
	QuoteID         string           `json:"quote_id"`
	Kind            quoting.ItemKind `json:"kind"`
	Label           string           `json:"label"`
	InventoryItemID *string          `json:"inventory_item_id,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	LineTotal       decimal.Decimal  `json:"line_total"`
	Position        int              `json:"position"`
	CreatedAt       time.Time        `json:"created_at"`
}

// QuoteItemsFromDrafts attaches drafts to a quote.
func QuoteItemsFromDrafts(quoteID string, drafts []quoting.ItemDraft) []QuoteItem {
	items := make([]QuoteItem, len(drafts))
	for i, dr := range drafts {
		items[i] = QuoteItem{
			QuoteID:         quoteID,
			Kind:            dr.Kind,
			Label:           dr.Label,
			InventoryItemID: dr.InventoryItemID,
			Quantity:        dr.Quantity,
			UnitPrice:       dr.UnitPrice,
			LineTotal:       dr.LineTotal,
			Position:        dr.Position,
		}
	}
	return items
}

// Drafts strips persistence fields from items.
func Drafts(items []QuoteItem) []quoting.ItemDraft {
	out := make([]quoting.ItemDraft, len(items))
	for i, it := range items {
		out[i] = quoting.ItemDraft{
			Kind:            it.Kind,
			Label:           it.Label,
			InventoryItemID: it.InventoryItemID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			LineTotal:       it.LineTotal,
			Position:        it.Position,
		}
	}
	return out
}

// QuoteWithDetails is a quote with its items and the client contact data the
// public view and the emails need.
type QuoteWithDetails struct {
	Quote
	Items       []QuoteItem `json:"items"`
	ClientName  string      `json:"client_name"`
	ClientEmail string      `json:"client_email,omitempty"`
	ClientPhone string      `json:"client_phone,omitempty"`
}

// QuotePart is one requested line: either an inventory reference, whose price
// is looked up, or a free line with its own label and price.
type QuotePart struct {
	InventoryItemID *string          `json:"inventory_item_id,omitempty" validate:"omitempty,uuid"`
	Label           string           `json:"label,omitempty" validate:"required_without=InventoryItemID,max=200"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateQuoteRequest represents the request body for creating a quote
type CreateQuoteRequest struct {
	ClientID       string           `json:"client_id" validate:"required,uuid"`
	EstimatedHours decimal.Decimal  `json:"estimated_hours"`
	HourlyRate     *decimal.Decimal `json:"hourly_rate,omitempty"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"`
	Parts          []QuotePart      `json:"parts" validate:"dive"`
	Notes          string           `json:"notes" validate:"max=4000"`
}

// QuoteActionRequest is the admin body for validate/accept/refuse.
type QuoteActionRequest struct {
	QuoteID string `json:"quote_id" validate:"required,uuid"`
}

// QuoteRespondRequest is the public body of POST /quotes/{id}/respond.
type QuoteRespondRequest struct {
	Response string `json:"response" validate:"required,oneof=accepted refused"`
}

// TransitionResult is what every status action reports back.
type TransitionResult struct {
	QuoteID          string         `json:"quote_id"`
	Status           quoting.Status `json:"status"`
	AlreadyResponded bool           `json:"already_responded"`
}

// QuoteFilter narrows quote listings.
type QuoteFilter struct {
	Status   quoting.Status
	ClientID string
	Limit    int
	Offset   int
}
