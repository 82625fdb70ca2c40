package models

import (
	"time"

	"hvac-backend/internal/quoting"
)

// QuoteTransition describes one status change and the writes that ride along
// with it. The quote update is applied only while the quote is still in one
// of From; ClientPatch and Outbox are secondary and never block it.
type QuoteTransition struct {
	QuoteID   string
	From      []quoting.Status
	To        quoting.Status
	At        time.Time
	ExpiresAt *time.Time

	// ClientPatch mutates the owning client under a row lock.
	ClientPatch func(*Client) error
	// Outbox, when set, is enqueued once; its DedupKey makes repeats no-ops.
	Outbox *OutboxMessage
}

// TransitionOutcome reports what a transition actually changed.
type TransitionOutcome struct {
	Applied       bool
	Status        quoting.Status
	ClientID      string
	ClientSyncErr error
	OutboxErr     error
	Enqueued      bool
}
