package repositories

import (
	"context"

	"hvac-backend/internal/models"
)

type InventoryRepository struct {
	DB Conn
}

func NewInventoryRepository(db Conn) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO inventory_items (sku, name, unit_price, stock_quantity)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		item.SKU, item.Name, item.UnitPrice, item.StockQuantity,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *InventoryRepository) List(ctx context.Context) ([]models.InventoryItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, sku, name, unit_price, stock_quantity, created_at, updated_at
		 FROM inventory_items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		var it models.InventoryItem
		if err := rows.Scan(&it.ID, &it.SKU, &it.Name, &it.UnitPrice, &it.StockQuantity,
			&it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Prices returns the current price of each known id. Unknown ids are simply
// absent from the map.
func (r *InventoryRepository) Prices(ctx context.Context, ids []string) (map[string]models.PricedItem, error) {
	prices := make(map[string]models.PricedItem, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, name, unit_price FROM inventory_items WHERE id::text = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PricedItem
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPrice); err != nil {
			return nil, err
		}
		prices[p.ID] = p
	}
	return prices, rows.Err()
}
