// Package servicetest provides in-memory stores and senders for service and
// handler tests. The stores mirror the repositories' semantics, including
// the conditional status update and outbox deduplication.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"hvac-backend/internal/email"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/repositories"
	"hvac-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DB is the shared state behind every fake store.
type DB struct {
	mu sync.Mutex

	quotes    map[string]*models.Quote
	items     map[string][]models.QuoteItem
	clients   map[string]*models.Client
	inventory map[string]*models.InventoryItem
	reports   map[string]*models.TechReport
	prospects map[string]*models.Prospect
	settings  map[string]*models.SystemSetting
	profiles  map[string]*models.Profile
	outbox    []*models.OutboxMessage
	auditLog  []models.AdminActionLog
	counters  map[int]int

	// Now is the clock used for outbox scheduling.
	Now func() time.Time

	// FailClientPatch makes the client sync of the next transitions fail.
	FailClientPatch error
	// FailOutbox makes outbox inserts fail.
	FailOutbox error
}

func New() *DB {
	return &DB{
		quotes:    map[string]*models.Quote{},
		items:     map[string][]models.QuoteItem{},
		clients:   map[string]*models.Client{},
		inventory: map[string]*models.InventoryItem{},
		reports:   map[string]*models.TechReport{},
		prospects: map[string]*models.Prospect{},
		settings:  map[string]*models.SystemSetting{},
		profiles:  map[string]*models.Profile{},
		counters:  map[int]int{},
		Now:       time.Now,
	}
}

func (db *DB) Quotes() *QuoteStore { return &QuoteStore{db} }
func (db *DB) Clients() *ClientStore { return &ClientStore{db} }
func (db *DB) Inventory() *InventoryStore { return &InventoryStore{db} }
func (db *DB) Reports() *TechReportStore { return &TechReportStore{db} }
func (db *DB) Prospects() *ProspectStore { return &ProspectStore{db} }
func (db *DB) Outbox() *OutboxStore { return &OutboxStore{db} }
func (db *DB) Settings() *SettingStore { return &SettingStore{db} }
func (db *DB) Profiles() *ProfileStore { return &ProfileStore{db} }
func (db *DB) ActionLogs() *ActionLogStore { return &ActionLogStore{db} }

// Seeding and inspection helpers.

func (db *DB) AddClient(c models.Client) *models.Client {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CRMStage == "" {
		c.CRMStage = quoting.StageNouveau
	}
	if c.Checklists.Version == 0 {
		c.Checklists = models.NewChecklists()
	}
	db.clients[c.ID] = &c
	out := c
	return &out
}

func (db *DB) AddInventory(item models.InventoryItem) *models.InventoryItem {
	db.mu.Lock()
	defer db.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	db.inventory[item.ID] = &item
	out := item
	return &out
}

func (db *DB) AddProfile(p models.Profile) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.profiles[p.ID] = &p
}

// SetQuoteStatus forces a status, bypassing the state machine.
func (db *DB) SetQuoteStatus(id string, status quoting.Status) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.quotes[id].Status = status
}

// SetQuoteExpiry forces expires_at.
func (db *DB) SetQuoteExpiry(id string, t time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.quotes[id].ExpiresAt = &t
}

func (db *DB) Quote(id string) *models.Quote {
	db.mu.Lock()
	defer db.mu.Unlock()
	q, ok := db.quotes[id]
	if !ok {
		return nil
	}
	out := *q
	return &out
}

func (db *DB) Items(quoteID string) []models.QuoteItem {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]models.QuoteItem(nil), db.items[quoteID]...)
}

func (db *DB) Client(id string) *models.Client {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.clients[id]
	if !ok {
		return nil
	}
	out := *c
	return &out
}

func (db *DB) OutboxMessages() []models.OutboxMessage {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]models.OutboxMessage, len(db.outbox))
	for i, m := range db.outbox {
		out[i] = *m
	}
	return out
}

// QuoteStore mirrors repositories.QuoteRepository.
type QuoteStore struct{ db *DB }

func (s *QuoteStore) create(quote *models.Quote, items []models.QuoteItem) []models.QuoteItem {
	db := s.db
	year := timeutil.Now().Year()
	db.counters[year]++
	quote.ID = uuid.NewString()
	quote.Number = quoting.FormatQuoteNumber(year, db.counters[year])
	if quote.Status == "" {
		quote.Status = quoting.StatusDraft
	}
	quote.CreatedAt = time.Now()
	quote.UpdatedAt = quote.CreatedAt
	stored := *quote
	db.quotes[quote.ID] = &stored
	return s.replaceItems(quote.ID, items)
}

func (s *QuoteStore) replaceItems(quoteID string, items []models.QuoteItem) []models.QuoteItem {
	out := make([]models.QuoteItem, len(items))
	for i, it := range items {
		it.ID = uuid.NewString()
		it.QuoteID = quoteID
		it.CreatedAt = time.Now()
		out[i] = it
	}
	s.db.items[quoteID] = out
	return append([]models.QuoteItem(nil), out...)
}

func (s *QuoteStore) Create(_ context.Context, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.clients[quote.ClientID]; !ok {
		return nil, errors.New("foreign key violation: client")
	}
	return s.create(quote, items), nil
}

func (s *QuoteStore) Get(_ context.Context, id string) (*models.Quote, error) {
	if q := s.db.Quote(id); q != nil {
		return q, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *QuoteStore) GetWithDetails(_ context.Context, id string) (*models.QuoteWithDetails, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quotes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := s.db.clients[q.ClientID]
	return &models.QuoteWithDetails{
		Quote:       *q,
		Items:       append([]models.QuoteItem{}, s.db.items[id]...),
		ClientName:  c.Name,
		ClientEmail: c.Email,
		ClientPhone: c.Phone,
	}, nil
}

func (s *QuoteStore) List(_ context.Context, filter models.QuoteFilter) ([]models.Quote, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Quote{}
	for _, q := range s.db.quotes {
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		if filter.ClientID != "" && q.ClientID != filter.ClientID {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}

func (s *QuoteStore) ApplyTransition(_ context.Context, t models.QuoteTransition) (*models.TransitionOutcome, error) {
	db := s.db
	db.mu.Lock()
	defer db.mu.Unlock()

	q, ok := db.quotes[t.QuoteID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := &models.TransitionOutcome{Status: q.Status, ClientID: q.ClientID}

	eligible := false
	for _, st := range t.From {
		if q.Status == st {
			eligible = true
		}
	}
	if !eligible {
		return out, nil
	}

	at := t.At
	q.Status = t.To
	switch t.To {
	case quoting.StatusSent:
		q.SentAt = &at
	case quoting.StatusAccepted:
		q.AcceptedAt = &at
	case quoting.StatusRefused:
		q.RefusedAt = &at
	}
	if t.ExpiresAt != nil {
		exp := *t.ExpiresAt
		q.ExpiresAt = &exp
	}
	q.UpdatedAt = time.Now()
	out.Applied = true
	out.Status = q.Status

	if t.ClientPatch != nil {
		out.ClientSyncErr = db.FailClientPatch
		if out.ClientSyncErr == nil {
			c, ok := db.clients[q.ClientID]
			if !ok {
				out.ClientSyncErr = pgx.ErrNoRows
			} else {
				patched := *c
				if err := t.ClientPatch(&patched); err != nil {
					out.ClientSyncErr = err
				} else {
					patched.UpdatedAt = time.Now()
					db.clients[c.ID] = &patched
				}
			}
		}
	}

	if t.Outbox != nil {
		out.OutboxErr = db.FailOutbox
		if out.OutboxErr == nil {
			out.Enqueued = db.enqueue(t.Outbox)
		}
	}
	return out, nil
}

func (db *DB) enqueue(msg *models.OutboxMessage) bool {
	for _, m := range db.outbox {
		if m.DedupKey == msg.DedupKey {
			return false
		}
	}
	m := *msg
	m.ID = uuid.NewString()
	m.Status = models.OutboxPending
	if m.MaxAttempts <= 0 {
		m.MaxAttempts = 5
	}
	m.CreatedAt = db.Now()
	m.NextAttemptAt = m.CreatedAt
	db.outbox = append(db.outbox, &m)
	return true
}

// ClientStore mirrors repositories.ClientRepository.
type ClientStore struct{ db *DB }

func (s *ClientStore) Create(_ context.Context, c *models.Client) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	s.db.clients[c.ID] = &stored
	return nil
}

func (s *ClientStore) Get(_ context.Context, id string) (*models.Client, error) {
	if c := s.db.Client(id); c != nil {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *ClientStore) List(_ context.Context, stage string) ([]models.Client, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Client{}
	for _, c := range s.db.clients {
		if stage == "" || string(c.CRMStage) == stage {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *ClientStore) Patch(_ context.Context, id string, fn func(*models.Client) error) (*models.Client, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	patched := *c
	if err := fn(&patched); err != nil {
		return nil, err
	}
	s.db.clients[id] = &patched
	out := patched
	return &out, nil
}

// InventoryStore mirrors repositories.InventoryRepository.
type InventoryStore struct{ db *DB }

func (s *InventoryStore) Create(_ context.Context, item *models.InventoryItem) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, it := range s.db.inventory {
		if it.SKU == item.SKU {
			return errors.New("duplicate sku")
		}
	}
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	stored := *item
	s.db.inventory[item.ID] = &stored
	return nil
}

func (s *InventoryStore) List(_ context.Context) ([]models.InventoryItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.InventoryItem{}
	for _, it := range s.db.inventory {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InventoryStore) Prices(_ context.Context, ids []string) (map[string]models.PricedItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := map[string]models.PricedItem{}
	for _, id := range ids {
		if it, ok := s.db.inventory[id]; ok {
			out[id] = models.PricedItem{ID: id, Name: it.Name, UnitPrice: it.UnitPrice}
		}
	}
	return out, nil
}

// SetPrice changes the catalogue price of an item.
func (db *DB) SetPrice(id string, price decimal.Decimal) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.inventory[id].UnitPrice = price
}

// TechReportStore mirrors repositories.TechReportRepository.
type TechReportStore struct{ db *DB }

func (s *TechReportStore) Get(_ context.Context, id string) (*models.TechReport, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *r
	out.Parts = append([]models.ReportPart{}, r.Parts...)
	return &out, nil
}

func (s *TechReportStore) CreateWithQuote(_ context.Context, report *models.TechReport, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	report.ID = uuid.NewString()
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	quote.TechReportID = &report.ID

	saved := (&QuoteStore{s.db}).create(quote, items)
	report.QuoteID = &quote.ID

	stored := *report
	stored.Parts = append([]models.ReportPart{}, report.Parts...)
	s.db.reports[report.ID] = &stored
	return saved, nil
}

func (s *TechReportStore) SyncQuote(_ context.Context, report *models.TechReport, quote *models.Quote, items []models.QuoteItem) ([]models.QuoteItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.quotes[quote.ID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if stored.Status != quoting.StatusDraft && stored.Status != quoting.StatusSent {
		return nil, repositories.ErrQuoteLocked
	}

	r := *report
	r.Parts = append([]models.ReportPart{}, report.Parts...)
	r.UpdatedAt = time.Now()
	s.db.reports[report.ID] = &r

	stored.EstimatedHours = quote.EstimatedHours
	stored.HourlyRate = quote.HourlyRate
	stored.LaborTotal = quote.LaborTotal
	stored.PartsTotal = quote.PartsTotal
	stored.TaxRate = quote.TaxRate
	stored.TaxAmount = quote.TaxAmount
	stored.Total = quote.Total
	stored.UpdatedAt = time.Now()

	return (&QuoteStore{s.db}).replaceItems(quote.ID, items), nil
}

// ProspectStore mirrors repositories.ProspectRepository.
type ProspectStore struct{ db *DB }

func (s *ProspectStore) CreateWithClient(_ context.Context, p *models.Prospect, c *models.Client) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p.ID = uuid.NewString()
	c.ID = uuid.NewString()
	p.ClientID = &c.ID
	c.ProspectID = &p.ID
	p.CreatedAt = time.Now()
	c.CreatedAt = p.CreatedAt
	c.UpdatedAt = p.CreatedAt

	sp, sc := *p, *c
	s.db.prospects[p.ID] = &sp
	s.db.clients[c.ID] = &sc
	return nil
}

func (s *ProspectStore) List(_ context.Context) ([]models.Prospect, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Prospect{}
	for _, p := range s.db.prospects {
		out = append(out, *p)
	}
	return out, nil
}

// OutboxStore mirrors repositories.OutboxRepository.
type OutboxStore struct{ db *DB }

func (s *OutboxStore) Enqueue(_ context.Context, msg *models.OutboxMessage) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.enqueue(msg), nil
}

func (s *OutboxStore) ClaimDue(_ context.Context, limit int, lease time.Duration) ([]models.OutboxMessage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := s.db.Now()
	var out []models.OutboxMessage
	for _, m := range s.db.outbox {
		if len(out) == limit {
			break
		}
		expired := m.Status == models.OutboxProcessing && m.LockedUntil != nil && m.LockedUntil.Before(now)
		due := (m.Status == models.OutboxPending || m.Status == models.OutboxFailed) && !m.NextAttemptAt.After(now)
		if !due && !expired {
			continue
		}
		until := now.Add(lease)
		m.Status = models.OutboxProcessing
		m.LockedUntil = &until
		out = append(out, *m)
	}
	return out, nil
}

func (s *OutboxStore) find(id string) *models.OutboxMessage {
	for _, m := range s.db.outbox {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *OutboxStore) MarkSent(_ context.Context, id, referenceID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m := s.find(id)
	if m == nil {
		return pgx.ErrNoRows
	}
	now := s.db.Now()
	m.Status = models.OutboxSent
	m.Attempts++
	m.ReferenceID = referenceID
	m.SentAt = &now
	m.LockedUntil = nil
	m.LastError = ""
	return nil
}

func (s *OutboxStore) MarkFailed(_ context.Context, id, lastError string, nextAttempt time.Time, dead bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m := s.find(id)
	if m == nil {
		return pgx.ErrNoRows
	}
	m.Status = models.OutboxFailed
	if dead {
		m.Status = models.OutboxDead
	}
	m.Attempts++
	m.LastError = lastError
	m.NextAttemptAt = nextAttempt
	m.LockedUntil = nil
	return nil
}

func (s *OutboxStore) Stats(_ context.Context) (*models.OutboxStats, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var st models.OutboxStats
	for _, m := range s.db.outbox {
		switch m.Status {
		case models.OutboxPending, models.OutboxProcessing:
			st.Pending++
		case models.OutboxFailed:
			st.Failed++
		case models.OutboxDead:
			st.Dead++
		case models.OutboxSent:
			st.Sent++
		}
	}
	return &st, nil
}

// SettingStore mirrors repositories.SystemSettingRepository.
type SettingStore struct{ db *DB }

func (s *SettingStore) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st, ok := s.db.settings[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *st
	return &out, nil
}

func (s *SettingStore) List(_ context.Context) ([]*models.SystemSetting, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.SystemSetting
	for _, st := range s.db.settings {
		c := *st
		out = append(out, &c)
	}
	return out, nil
}

func (s *SettingStore) Upsert(_ context.Context, key, value, description string, userID *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.settings[key] = &models.SystemSetting{
		ID:           len(s.db.settings) + 1,
		SettingKey:   key,
		SettingValue: value,
		Description:  description,
		UpdatedAt:    time.Now(),
		UpdatedBy:    userID,
	}
	return nil
}

// ProfileStore mirrors repositories.ProfileRepository.
type ProfileStore struct{ db *DB }

func (s *ProfileStore) Get(_ context.Context, id string) (*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *p
	return &out, nil
}

// ActionLogStore mirrors repositories.AdminActionLogRepository.
type ActionLogStore struct{ db *DB }

func (s *ActionLogStore) CreateActionLog(_ context.Context, log *models.AdminActionLog) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	log.ID = int64(len(s.db.auditLog) + 1)
	log.CreatedAt = s.db.Now()
	s.db.auditLog = append(s.db.auditLog, *log)
	return nil
}

func (s *ActionLogStore) ListActionLogs(_ context.Context, filter models.ActionLogFilter) ([]models.AdminActionLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.AdminActionLog
	for i := len(s.db.auditLog) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		l := s.db.auditLog[i]
		if filter.TargetType != "" && l.TargetType != filter.TargetType {
			continue
		}
		if filter.TargetID != "" && l.TargetID != filter.TargetID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// EmailRecorder is an email.Sender that keeps what it was asked to send.
type EmailRecorder struct {
	mu   sync.Mutex
	Sent []email.Message
	Err  error
}

func (r *EmailRecorder) Send(_ context.Context, msg email.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	r.Sent = append(r.Sent, msg)
	return uuid.NewString(), nil
}

func (r *EmailRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Sent)
}

// SMSRecorder is an sms.Sender that keeps what it was asked to send.
type SMSRecorder struct {
	mu   sync.Mutex
	Sent []string
	Err  error
}

func (r *SMSRecorder) Send(_ context.Context, to, body string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	r.Sent = append(r.Sent, to+": "+body)
	return uuid.NewString(), nil
}
