package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hvac-backend/internal/logger"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
)

// ErrQuoteLocked is returned when items are rewritten on a quote the client
// already answered.
var ErrQuoteLocked = errors.New("quote already answered")

type QuoteRepository struct {
	DB Conn
}

func NewQuoteRepository(db Conn) *QuoteRepository {
	return &QuoteRepository{DB: db}
}

const quoteColumns = `q.id, q.client_id, q.tech_report_id, q.number, q.status, q.estimated_hours, q.hourly_rate,
	q.labor_total, q.parts_total, q.tax_rate, q.tax_amount, q.total, q.notes, q.expires_at,
	q.sent_at, q.accepted_at, q.refused_at, q.created_by, q.created_at, q.updated_at`

func scanQuote(row pgx.Row, extra ...any) (*models.Quote, error) {
	var q models.Quote
	dest := []any{&q.ID, &q.ClientID, &q.TechReportID, &q.Number, &q.Status, &q.EstimatedHours, &q.HourlyRate,
		&q.LaborTotal, &q.PartsTotal, &q.TaxRate, &q.TaxAmount, &q.Total, &q.Notes, &q.ExpiresAt,
		&q.SentAt, &q.AcceptedAt, &q.RefusedAt, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &q, nil
}

// nextQuoteNumber bumps the counter of the quote's year. The counter row is
// seeded from the quotes already created that year, and its row lock
// serialises concurrent creators until the transaction ends.
func nextQuoteNumber(ctx context.Context, tx pgx.Tx, year int) (string, error) {
	var seq int
	err := tx.QueryRow(ctx,
		`INSERT INTO quote_number_counters (year, last_seq)
		 VALUES ($1, (SELECT COUNT(*) FROM quotes
		              WHERE created_at >= make_timestamptz($1, 1, 1, 0, 0, 0, $2)
		                AND created_at < make_timestamptz($1 + 1, 1, 1, 0, 0, 0, $2)) + 1)
		 ON CONFLICT (year) DO UPDATE SET last_seq = quote_number_counters.last_seq + 1
		 RETURNING last_seq`,
		year, timeutil.ZoneName,
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to get next quote number: %w", err)
	}
	return quoting.FormatQuoteNumber(year, seq), nil
}

// insertQuote allocates a number and stores quote and items in tx.
func insertQuote(ctx context.Context, tx pgx.Tx, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	number, err := nextQuoteNumber(ctx, tx, timeutil.Now().Year())
	if err != nil {
		return nil, err
	}
	quote.Number = number
	if quote.Status == "" {
		quote.Status = quoting.StatusDraft
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO quotes (client_id, tech_report_id, number, status, estimated_hours, hourly_rate,
		                     labor_total, parts_total, tax_rate, tax_amount, total, notes, expires_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at, updated_at`,
		quote.ClientID, quote.TechReportID, quote.Number, string(quote.Status), quote.EstimatedHours, quote.HourlyRate,
		quote.LaborTotal, quote.PartsTotal, quote.TaxRate, quote.TaxAmount, quote.Total, quote.Notes,
		quote.ExpiresAt, quote.CreatedBy,
	).Scan(&quote.ID, &quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert quote: %w", err)
	}

	return insertItems(ctx, tx, quote.ID, items)
}

func insertItems(ctx context.Context, tx pgx.Tx, quoteID string, items []models.QuoteItem) ([]models.QuoteItem, error) {
	out := make([]models.QuoteItem, len(items))
	for i, item := range items {
		item.QuoteID = quoteID
		err := tx.QueryRow(ctx,
			`INSERT INTO quote_items (quote_id, kind, label, inventory_item_id, quantity, unit_price, line_total, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at`,
			quoteID, string(item.Kind), item.Label, item.InventoryItemID, item.Quantity, item.UnitPrice,
			item.LineTotal, item.Position,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert quote item %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}

// replaceQuoteItems rewrites the money columns and the whole item set of a
// quote that the client has not answered yet.
func replaceQuoteItems(ctx context.Context, tx pgx.Tx, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE quotes
		 SET estimated_hours = $2, hourly_rate = $3, labor_total = $4, parts_total = $5,
		     tax_rate = $6, tax_amount = $7, total = $8, updated_at = NOW()
		 WHERE id = $1 AND status IN ('draft', 'sent')`,
		quote.ID, quote.EstimatedHours, quote.HourlyRate, quote.LaborTotal, quote.PartsTotal,
		quote.TaxRate, quote.TaxAmount, quote.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("update quote totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrQuoteLocked
	}

	if _, err := tx.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quote.ID); err != nil {
		return nil, fmt.Errorf("delete quote items: %w", err)
	}
	return insertItems(ctx, tx, quote.ID, items)
}

// Create stores a new draft quote with its items under a fresh number.
func (r *QuoteRepository) Create(ctx context.Context, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	saved, err := insertQuote(ctx, tx, quote, items)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *QuoteRepository) Get(ctx context.Context, id string) (*models.Quote, error) {
	return scanQuote(r.DB.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes q WHERE q.id = $1`, id))
}

// GetWithDetails loads the quote, its items and the client contact data.
func (r *QuoteRepository) GetWithDetails(ctx context.Context, id string) (*models.QuoteWithDetails, error) {
	var details models.QuoteWithDetails
	q, err := scanQuote(r.DB.QueryRow(ctx,
		`SELECT `+quoteColumns+`, c.name, c.email, c.phone
		 FROM quotes q
		 JOIN clients c ON c.id = q.client_id
		 WHERE q.id = $1`, id),
		&details.ClientName, &details.ClientEmail, &details.ClientPhone)
	if err != nil {
		return nil, err
	}
	details.Quote = *q

	items, err := r.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	details.Items = items
	return &details, nil
}

func (r *QuoteRepository) GetItems(ctx context.Context, quoteID string) ([]models.QuoteItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, quote_id, kind, label, inventory_item_id, quantity, unit_price, line_total, position, created_at
		 FROM quote_items WHERE quote_id = $1
		 ORDER BY position`, quoteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.QuoteItem{}
	for rows.Next() {
		var item models.QuoteItem
		err := rows.Scan(&item.ID, &item.QuoteID, &item.Kind, &item.Label, &item.InventoryItemID,
			&item.Quantity, &item.UnitPrice, &item.LineTotal, &item.Position, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *QuoteRepository) List(ctx context.Context, filter models.QuoteFilter) ([]models.Quote, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("q.status = $%d", len(args)))
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conds = append(conds, fmt.Sprintf("q.client_id = $%d", len(args)))
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes q`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY q.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := []models.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// ApplyTransition runs a status change in one transaction. The quote update
// is conditional on the current status, so concurrent or repeated requests
// apply it once; the loser gets Applied == false. The client patch and the
// outbox insert each run in a savepoint: their failure is logged, rolled back
// to the savepoint and reported in the outcome while the status change still
// commits.
func (r *QuoteRepository) ApplyTransition(ctx context.Context, t models.QuoteTransition) (*models.TransitionOutcome, error) {
	log := logger.For("quotes").WithField("quote_id", t.QuoteID)

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	from := make([]string, len(t.From))
	for i, s := range t.From {
		from[i] = string(s)
	}

	var sentAt, acceptedAt, refusedAt *time.Time
	switch t.To {
	case quoting.StatusSent:
		sentAt = &t.At
	case quoting.StatusAccepted:
		acceptedAt = &t.At
	case quoting.StatusRefused:
		refusedAt = &t.At
	}

	out := &models.TransitionOutcome{}
	err = tx.QueryRow(ctx,
		`UPDATE quotes
		 SET status = $2,
		     sent_at = COALESCE($3, sent_at),
		     accepted_at = COALESCE($4, accepted_at),
		     refused_at = COALESCE($5, refused_at),
		     expires_at = COALESCE($6, expires_at),
		     updated_at = NOW()
		 WHERE id = $1 AND status = ANY($7)
		 RETURNING status, client_id`,
		t.QuoteID, string(t.To), sentAt, acceptedAt, refusedAt, t.ExpiresAt, from,
	).Scan(&out.Status, &out.ClientID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race or never eligible: report where the quote stands.
		if err := tx.QueryRow(ctx, `SELECT status, client_id FROM quotes WHERE id = $1`, t.QuoteID).
			Scan(&out.Status, &out.ClientID); err != nil {
			return nil, err
		}
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update quote status: %w", err)
	}
	out.Applied = true

	if t.ClientPatch != nil {
		out.ClientSyncErr = inSavepoint(ctx, tx, func(sp pgx.Tx) error {
			return patchClient(ctx, sp, out.ClientID, t.ClientPatch)
		})
		if out.ClientSyncErr != nil {
			log.WithError(out.ClientSyncErr).WithField("client_id", out.ClientID).Error("client sync failed, keeping quote status")
		}
	}

	if t.Outbox != nil {
		out.OutboxErr = inSavepoint(ctx, tx, func(sp pgx.Tx) error {
			var err error
			out.Enqueued, err = enqueue(ctx, sp, t.Outbox)
			return err
		})
		if out.OutboxErr != nil {
			log.WithError(out.OutboxErr).WithField("dedup_key", t.Outbox.DedupKey).Error("notification enqueue failed, keeping quote status")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit quote transition: %w", err)
	}
	return out, nil
}

// inSavepoint runs fn in a nested transaction and rolls only that back on
// error.
func inSavepoint(ctx context.Context, tx pgx.Tx, fn func(pgx.Tx) error) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(sp); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (savepoint rollback: %v)", err, rbErr)
		}
		return err
	}
	return sp.Commit(ctx)
}
