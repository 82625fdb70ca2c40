package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hvac-backend/internal/config"
	"hvac-backend/internal/models"
	"hvac-backend/internal/services/servicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 30 * time.Second},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{6, 32 * time.Minute},
		{7, time.Hour},
		{40, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.attempts), "attempts=%d", tt.attempts)
	}
}

type dispatcherFixture struct {
	db    *servicetest.DB
	mail  *servicetest.EmailRecorder
	texts *servicetest.SMSRecorder
	d     *NotificationDispatcher
	clock time.Time
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	f := &dispatcherFixture{
		db:    servicetest.New(),
		mail:  &servicetest.EmailRecorder{},
		texts: &servicetest.SMSRecorder{},
		clock: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.db.Now = func() time.Time { return f.clock }

	cfg := &config.Config{}
	cfg.Outbox.BatchSize = 10
	f.d = NewNotificationDispatcher(f.db.Outbox(), f.mail, f.texts, cfg)
	f.d.now = func() time.Time { return f.clock }
	return f
}

func (f *dispatcherFixture) enqueue(t *testing.T, msg models.OutboxMessage) {
	t.Helper()
	ok, err := f.db.Outbox().Enqueue(context.Background(), &msg)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDispatcher_Delivers(t *testing.T) {
	f := newDispatcherFixture(t)
	f.enqueue(t, models.OutboxMessage{
		Kind: models.NotifyQuoteAccepted, Channel: models.ChannelEmail,
		Recipient: "jean@example.be", Subject: "Merci", Body: "<p>ok</p>", DedupKey: "quote:1:accepted",
	})
	f.enqueue(t, models.OutboxMessage{
		Kind: models.NotifyQuoteSentSMS, Channel: models.ChannelSMS,
		Recipient: "+32470123456", Body: "devis envoyé", DedupKey: "quote:1:sent:sms",
	})

	assert.Equal(t, 2, f.d.RunOnce(context.Background()))
	require.Equal(t, 1, f.mail.Count())
	assert.Equal(t, "jean@example.be", f.mail.Sent[0].To)
	assert.Len(t, f.texts.Sent, 1)

	for _, m := range f.db.OutboxMessages() {
		assert.Equal(t, models.OutboxSent, m.Status)
		assert.NotEmpty(t, m.ReferenceID)
	}

	assert.Equal(t, 0, f.d.RunOnce(context.Background()))
	assert.Equal(t, 1, f.mail.Count())
}

func TestDispatcher_DedupKey(t *testing.T) {
	f := newDispatcherFixture(t)
	msg := models.OutboxMessage{Kind: models.NotifyQuoteAccepted, Channel: models.ChannelEmail, Recipient: "a@b.be", DedupKey: "k"}
	f.enqueue(t, msg)

	ok, err := f.db.Outbox().Enqueue(context.Background(), &msg)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, f.db.OutboxMessages(), 1)
}

func TestDispatcher_RetriesThenDies(t *testing.T) {
	f := newDispatcherFixture(t)
	f.mail.Err = errors.New("503 from provider")
	f.enqueue(t, models.OutboxMessage{
		Kind: models.NotifyQuoteAccepted, Channel: models.ChannelEmail,
		Recipient: "jean@example.be", DedupKey: "quote:2:accepted", MaxAttempts: 3,
	})

	assert.Equal(t, 0, f.d.RunOnce(context.Background()))
	m := f.db.OutboxMessages()[0]
	assert.Equal(t, models.OutboxFailed, m.Status)
	assert.Equal(t, 1, m.Attempts)
	assert.Equal(t, f.clock.Add(30*time.Second), m.NextAttemptAt)
	assert.Contains(t, m.LastError, "503")

	// not due yet
	f.d.RunOnce(context.Background())
	assert.Equal(t, 1, f.db.OutboxMessages()[0].Attempts)

	f.clock = f.clock.Add(31 * time.Second)
	f.d.RunOnce(context.Background())
	m = f.db.OutboxMessages()[0]
	assert.Equal(t, 2, m.Attempts)
	assert.Equal(t, f.clock.Add(time.Minute), m.NextAttemptAt)

	f.clock = f.clock.Add(2 * time.Minute)
	f.d.RunOnce(context.Background())
	m = f.db.OutboxMessages()[0]
	assert.Equal(t, models.OutboxDead, m.Status)
	assert.Equal(t, 3, m.Attempts)

	f.clock = f.clock.Add(24 * time.Hour)
	f.mail.Err = nil
	assert.Equal(t, 0, f.d.RunOnce(context.Background()))
	assert.Equal(t, 0, f.mail.Count())
}

func TestDispatcher_StartStop(t *testing.T) {
	f := newDispatcherFixture(t)
	f.d.interval = 10 * time.Millisecond
	f.enqueue(t, models.OutboxMessage{Kind: models.NotifyQuoteAccepted, Channel: models.ChannelEmail, Recipient: "a@b.be", DedupKey: "x"})

	f.d.Start(context.Background())
	assert.Eventually(t, func() bool { return f.mail.Count() == 1 }, time.Second, 5*time.Millisecond)
	f.d.Stop()
}
