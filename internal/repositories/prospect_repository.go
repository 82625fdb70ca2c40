package repositories

import (
	"context"
	"fmt"

	"hvac-backend/internal/models"
)

type ProspectRepository struct {
	DB Conn
}

func NewProspectRepository(db Conn) *ProspectRepository {
	return &ProspectRepository{DB: db}
}

// CreateWithClient stores the lead and the client copied from it in one
// transaction, linking both ways.
func (r *ProspectRepository) CreateWithClient(ctx context.Context, p *models.Prospect, c *models.Client) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO prospects (name, email, phone, address, city, postal_code, source, message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		p.Name, p.Email, p.Phone, p.Address, p.City, p.PostalCode, p.Source, p.Message,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert prospect: %w", err)
	}

	c.ProspectID = &p.ID
	if err := createClient(ctx, tx, c); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE prospects SET client_id = $2 WHERE id = $1`, p.ID, c.ID); err != nil {
		return fmt.Errorf("link prospect: %w", err)
	}
	p.ClientID = &c.ID

	return tx.Commit(ctx)
}

func (r *ProspectRepository) List(ctx context.Context) ([]models.Prospect, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, email, phone, address, city, postal_code, source, message, client_id, created_at
		 FROM prospects ORDER BY created_at DESC LIMIT 500`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prospects := []models.Prospect{}
	for rows.Next() {
		var p models.Prospect
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.City, &p.PostalCode,
			&p.Source, &p.Message, &p.ClientID, &p.CreatedAt); err != nil {
			return nil, err
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}
