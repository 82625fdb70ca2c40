package services

import (
	"context"
	"time"

	"hvac-backend/internal/models"
)

// The services depend on these narrow views of the repositories so they can
// be exercised against in-memory fakes.

type QuoteStore interface {
	Create(ctx context.Context, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error)
	Get(ctx context.Context, id string) (*models.Quote, error)
	GetWithDetails(ctx context.Context, id string) (*models.QuoteWithDetails, error)
	List(ctx context.Context, filter models.QuoteFilter) ([]models.Quote, error)
	ApplyTransition(ctx context.Context, t models.QuoteTransition) (*models.TransitionOutcome, error)
}

type ClientStore interface {
	Create(ctx context.Context, c *models.Client) error
	Get(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context, stage string) ([]models.Client, error)
	Patch(ctx context.Context, id string, fn func(*models.Client) error) (*models.Client, error)
}

type InventoryStore interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	List(ctx context.Context) ([]models.InventoryItem, error)
	Prices(ctx context.Context, ids []string) (map[string]models.PricedItem, error)
}

type TechReportStore interface {
	Get(ctx context.Context, id string) (*models.TechReport, error)
	CreateWithQuote(ctx context.Context, report *models.TechReport, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error)
	SyncQuote(ctx context.Context, report *models.TechReport, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error)
}

type ProspectStore interface {
	CreateWithClient(ctx context.Context, p *models.Prospect, c *models.Client) error
	List(ctx context.Context) ([]models.Prospect, error)
}

type OutboxStore interface {
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]models.OutboxMessage, error)
	MarkSent(ctx context.Context, id, referenceID string) error
	MarkFailed(ctx context.Context, id, lastError string, nextAttempt time.Time, dead bool) error
	Stats(ctx context.Context) (*models.OutboxStats, error)
}

type SettingStore interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	List(ctx context.Context) ([]*models.SystemSetting, error)
	Upsert(ctx context.Context, key, value, description string, userID *string) error
}

type ActionLogStore interface {
	CreateActionLog(ctx context.Context, log *models.AdminActionLog) error
	ListActionLogs(ctx context.Context, filter models.ActionLogFilter) ([]models.AdminActionLog, error)
}
