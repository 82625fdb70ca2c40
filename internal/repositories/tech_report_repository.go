package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"hvac-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type TechReportRepository struct {
	DB Conn
}

func NewTechReportRepository(db Conn) *TechReportRepository {
	return &TechReportRepository{DB: db}
}

const techReportColumns = `id, client_id, technician_id, quote_id, estimated_hours, hourly_rate, parts, notes,
	signature_url, plan_url, signed_at, created_at, updated_at`

func scanTechReport(row pgx.Row) (*models.TechReport, error) {
	var (
		tr    models.TechReport
		parts []byte
	)
	err := row.Scan(&tr.ID, &tr.ClientID, &tr.TechnicianID, &tr.QuoteID, &tr.EstimatedHours, &tr.HourlyRate,
		&parts, &tr.Notes, &tr.SignatureURL, &tr.PlanURL, &tr.SignedAt, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parts, &tr.Parts); err != nil {
		return nil, fmt.Errorf("tech report %s parts: %w", tr.ID, err)
	}
	return &tr, nil
}

func (r *TechReportRepository) Get(ctx context.Context, id string) (*models.TechReport, error) {
	return scanTechReport(r.DB.QueryRow(ctx, `SELECT `+techReportColumns+` FROM tech_reports WHERE id = $1`, id))
}

// CreateWithQuote stores the report and its draft quote, linked both ways,
// in one transaction.
func (r *TechReportRepository) CreateWithQuote(ctx context.Context, report *models.TechReport, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	parts, err := json.Marshal(report.Parts)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO tech_reports (client_id, technician_id, estimated_hours, hourly_rate, parts, notes,
		                           signature_url, plan_url, signed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		report.ClientID, report.TechnicianID, report.EstimatedHours, report.HourlyRate, parts, report.Notes,
		report.SignatureURL, report.PlanURL, report.SignedAt,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert tech report: %w", err)
	}

	quote.TechReportID = &report.ID
	saved, err := insertQuote(ctx, tx, quote, items)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE tech_reports SET quote_id = $2 WHERE id = $1`, report.ID, quote.ID); err != nil {
		return nil, fmt.Errorf("link tech report: %w", err)
	}
	report.QuoteID = &quote.ID

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

// SyncQuote writes the corrected report and replaces its quote's totals and
// items in one transaction. It fails with ErrQuoteLocked when the quote was
// already answered.
func (r *TechReportRepository) SyncQuote(ctx context.Context, report *models.TechReport, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	parts, err := json.Marshal(report.Parts)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE tech_reports
		 SET estimated_hours = $2, parts = $3, notes = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		report.ID, report.EstimatedHours, parts, report.Notes,
	).Scan(&report.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update tech report: %w", err)
	}

	saved, err := replaceQuoteItems(ctx, tx, quote, items)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}
