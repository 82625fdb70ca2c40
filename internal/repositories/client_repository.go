package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"hvac-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is what the repositories need from *pgxpool.Pool.
type Conn interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type ClientRepository struct {
	DB Conn
}

func NewClientRepository(db Conn) *ClientRepository {
	return &ClientRepository{DB: db}
}

const clientColumns = `id, name, email, phone, address, city, postal_code, is_prospect, crm_stage,
	checklists, workflow_state, prospect_id, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var (
		c                   models.Client
		checklists, wfState []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.PostalCode,
		&c.IsProspect, &c.CRMStage, &checklists, &wfState, &c.ProspectID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(checklists, &c.Checklists); err != nil {
		return nil, fmt.Errorf("client %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(wfState, &c.WorkflowState); err != nil {
		return nil, fmt.Errorf("client %s: %w", c.ID, err)
	}
	return &c, nil
}

func createClient(ctx context.Context, q querier, c *models.Client) error {
	checklists, err := json.Marshal(c.Checklists)
	if err != nil {
		return err
	}
	wfState, err := json.Marshal(c.WorkflowState)
	if err != nil {
		return err
	}
	return q.QueryRow(ctx,
		`INSERT INTO clients (name, email, phone, address, city, postal_code, is_prospect, crm_stage,
		                      checklists, workflow_state, prospect_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Email, c.Phone, c.Address, c.City, c.PostalCode, c.IsProspect, string(c.CRMStage),
		checklists, wfState, c.ProspectID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// patchClient locks the client row, lets fn mutate it and writes back the
// pipeline fields.
func patchClient(ctx context.Context, tx pgx.Tx, id string, fn func(*models.Client) error) error {
	c, err := scanClient(tx.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return fmt.Errorf("lock client: %w", err)
	}
	if err := fn(c); err != nil {
		return err
	}

	checklists, err := json.Marshal(c.Checklists)
	if err != nil {
		return err
	}
	wfState, err := json.Marshal(c.WorkflowState)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE clients
		 SET is_prospect = $2, crm_stage = $3, checklists = $4, workflow_state = $5, updated_at = NOW()
		 WHERE id = $1`,
		id, c.IsProspect, string(c.CRMStage), checklists, wfState,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	return createClient(ctx, r.DB, c)
}

func (r *ClientRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	return scanClient(r.DB.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

// List returns clients, optionally restricted to one CRM stage.
func (r *ClientRepository) List(ctx context.Context, stage string) ([]models.Client, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if stage != "" {
		rows, err = r.DB.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE crm_stage = $1 ORDER BY created_at DESC`, stage)
	} else {
		rows, err = r.DB.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// Patch applies fn to the client under a row lock.
func (r *ClientRepository) Patch(ctx context.Context, id string, fn func(*models.Client) error) (*models.Client, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var patched models.Client
	err = patchClient(ctx, tx, id, func(c *models.Client) error {
		if err := fn(c); err != nil {
			return err
		}
		patched = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &patched, nil
}
