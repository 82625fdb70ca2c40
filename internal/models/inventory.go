package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateInventoryItemRequest represents the request body for an inventory item
type CreateInventoryItemRequest struct {
	SKU           string          `json:"sku" validate:"required,max=60"`
	Name          string          `json:"name" validate:"required,max=200"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
}

// PricedItem is the current price and label of an inventory item.
type PricedItem struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
}
