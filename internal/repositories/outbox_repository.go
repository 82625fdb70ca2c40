package repositories

import (
	"context"
	"fmt"
	"time"

	"hvac-backend/internal/models"
)

type OutboxRepository struct {
	DB Conn
}

func NewOutboxRepository(db Conn) *OutboxRepository {
	return &OutboxRepository{DB: db}
}

const outboxColumns = `id, kind, channel, recipient, subject, body, dedup_key, status, attempts, max_attempts,
	next_attempt_at, locked_until, last_error, reference_id, created_at, sent_at`

// enqueue inserts msg unless its dedup key already exists.
func enqueue(ctx context.Context, q querier, msg *models.OutboxMessage) (bool, error) {
	if msg.MaxAttempts <= 0 {
		msg.MaxAttempts = 5
	}
	tag, err := q.Exec(ctx,
		`INSERT INTO notification_outbox (kind, channel, recipient, subject, body, dedup_key, max_attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (dedup_key) DO NOTHING`,
		msg.Kind, msg.Channel, msg.Recipient, msg.Subject, msg.Body, msg.DedupKey, msg.MaxAttempts,
	)
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", msg.DedupKey, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OutboxRepository) Enqueue(ctx context.Context, msg *models.OutboxMessage) (bool, error) {
	return enqueue(ctx, r.DB, msg)
}

// ClaimDue leases up to limit due messages. Rows whose lease expired while
// processing are picked up again; SKIP LOCKED keeps concurrent workers off
// each other's rows.
func (r *OutboxRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]models.OutboxMessage, error) {
	rows, err := r.DB.Query(ctx,
		`UPDATE notification_outbox o
		 SET status = 'processing', locked_until = NOW() + make_interval(secs => $2)
		 WHERE o.id IN (
		     SELECT id FROM notification_outbox
		     WHERE next_attempt_at <= NOW()
		       AND (status IN ('pending', 'failed')
		            OR (status = 'processing' AND locked_until < NOW()))
		     ORDER BY next_attempt_at
		     LIMIT $1
		     FOR UPDATE SKIP LOCKED)
		 RETURNING `+outboxColumns,
		limit, lease.Seconds(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []models.OutboxMessage
	for rows.Next() {
		var m models.OutboxMessage
		if err := rows.Scan(&m.ID, &m.Kind, &m.Channel, &m.Recipient, &m.Subject, &m.Body, &m.DedupKey,
			&m.Status, &m.Attempts, &m.MaxAttempts, &m.NextAttemptAt, &m.LockedUntil, &m.LastError,
			&m.ReferenceID, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		claimed = append(claimed, m)
	}
	return claimed, rows.Err()
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id, referenceID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'sent', attempts = attempts + 1, reference_id = $2, sent_at = NOW(),
		     locked_until = NULL, last_error = ''
		 WHERE id = $1`, id, referenceID)
	return err
}

// MarkFailed records a failed attempt. dead ends retries for good.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id, lastError string, nextAttempt time.Time, dead bool) error {
	status := models.OutboxFailed
	if dead {
		status = models.OutboxDead
	}
	_, err := r.DB.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = $2, attempts = attempts + 1, last_error = $3, next_attempt_at = $4, locked_until = NULL
		 WHERE id = $1`, id, status, lastError, nextAttempt)
	return err
}

func (r *OutboxRepository) Stats(ctx context.Context) (*models.OutboxStats, error) {
	var s models.OutboxStats
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status IN ('pending', 'processing')),
		        COUNT(*) FILTER (WHERE status = 'failed'),
		        COUNT(*) FILTER (WHERE status = 'dead'),
		        COUNT(*) FILTER (WHERE status = 'sent')
		 FROM notification_outbox`,
	).Scan(&s.Pending, &s.Failed, &s.Dead, &s.Sent)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
