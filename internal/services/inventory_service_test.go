package services

import (
	"context"
	"testing"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/models"
	"hvac-backend/internal/services/servicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItem_Price(t *testing.T) {
	svc := NewInventoryService(servicetest.New().Inventory())
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, &models.CreateInventoryItemRequest{SKU: "F-1", Name: "Filtre", UnitPrice: dec("12.500")})
	require.NoError(t, err)
	assert.Equal(t, "12.50", item.UnitPrice.StringFixed(2))

	_, err = svc.CreateItem(ctx, &models.CreateInventoryItemRequest{SKU: "F-2", Name: "Filtre", UnitPrice: dec("10.999")})
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)

	_, err = svc.CreateItem(ctx, &models.CreateInventoryItemRequest{SKU: "F-3", Name: "Filtre", UnitPrice: dec("-1")})
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
}
