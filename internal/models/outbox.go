package models

import "time"

// OutboxMessage is a notification waiting for, or done with, delivery.
type OutboxMessage struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Channel       string     `json:"channel"`
	Recipient     string     `json:"recipient"`
	Subject       string     `json:"subject,omitempty"`
	Body          string     `json:"body"`
	DedupKey      string     `json:"dedup_key"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	ReferenceID   string     `json:"reference_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
}

// Notification kinds
const (
	NotifyQuoteAccepted = "quote_accepted"
	NotifyQuoteSentSMS  = "quote_sent_sms"
)

// Outbox statuses
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxSent       = "sent"
	OutboxFailed     = "failed"
	OutboxDead       = "dead"
)

// Message channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// OutboxStats counts messages per status.
type OutboxStats struct {
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
	Dead    int `json:"dead"`
	Sent    int `json:"sent"`
}
