package services

import (
	"context"
	"errors"
	"fmt"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

type InventoryService struct {
	Repo InventoryStore
}

func NewInventoryService(repo InventoryStore) *InventoryService {
	return &InventoryService{Repo: repo}
}

func (s *InventoryService) CreateItem(ctx context.Context, req *models.CreateInventoryItemRequest) (*models.InventoryItem, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperr.Validation("unit_price must not be negative")
	}
	price, err := quoting.Cents("unit_price", req.UnitPrice)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	item := &models.InventoryItem{
		SKU:           req.SKU,
		Name:          req.Name,
		UnitPrice:     price,
		StockQuantity: req.StockQuantity,
	}
	if err := s.Repo.Create(ctx, item); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Validation("sku already exists")
		}
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	return s.Repo.List(ctx)
}
