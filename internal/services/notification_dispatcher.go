package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hvac-backend/internal/config"
	"hvac-backend/internal/email"
	"hvac-backend/internal/logger"
	"hvac-backend/internal/metrics"
	"hvac-backend/internal/models"
	"hvac-backend/internal/sms"

	"github.com/sirupsen/logrus"
)

const (
	retryBase = 30 * time.Second
	retryCap  = time.Hour
)

// RetryDelay is the wait before the next attempt once attempts deliveries
// have failed: 30s doubling per attempt, capped at one hour.
func RetryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= 7 {
		return retryCap
	}
	d := retryBase << uint(attempts)
	if d > retryCap {
		return retryCap
	}
	return d
}

// NotificationDispatcher drains the notification outbox in the background.
// Delivery is at least once: a crash between send and mark re-sends after
// the lease expires.
type NotificationDispatcher struct {
	repo      OutboxStore
	email     email.Sender
	sms       sms.Sender
	interval  time.Duration
	batchSize int
	lease     time.Duration
	now       func() time.Time
	log       *logrus.Entry

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewNotificationDispatcher(repo OutboxStore, emailSender email.Sender, smsSender sms.Sender, cfg *config.Config) *NotificationDispatcher {
	d := &NotificationDispatcher{
		repo:      repo,
		email:     emailSender,
		sms:       smsSender,
		interval:  10 * time.Second,
		batchSize: 20,
		lease:     2 * time.Minute,
		now:       time.Now,
		log:       logger.For("outbox"),
		stopChan:  make(chan struct{}),
	}
	if cfg != nil {
		if cfg.Outbox.Interval > 0 {
			d.interval = cfg.Outbox.Interval
		}
		if cfg.Outbox.BatchSize > 0 {
			d.batchSize = cfg.Outbox.BatchSize
		}
		if cfg.Outbox.Lease > 0 {
			d.lease = cfg.Outbox.Lease
		}
	}
	return d
}

// Start begins the dispatch loop
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.log.WithField("interval", d.interval.String()).Info("starting notification dispatcher")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			d.RunOnce(ctx)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			case <-d.stopChan:
				d.log.Info("stopping notification dispatcher")
				return
			}
		}
	}()
}

// Stop stops the loop and waits for the batch in flight.
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

// RunOnce claims and delivers one batch. It returns how many messages were
// sent.
func (d *NotificationDispatcher) RunOnce(ctx context.Context) int {
	msgs, err := d.repo.ClaimDue(ctx, d.batchSize, d.lease)
	if err != nil {
		d.log.WithError(err).Error("failed to claim outbox messages")
		return 0
	}

	sent := 0
	for i := range msgs {
		if ctx.Err() != nil {
			break
		}
		if d.deliver(ctx, &msgs[i]) {
			sent++
		}
	}

	if stats, err := d.repo.Stats(ctx); err == nil {
		metrics.OutboxPending.Set(float64(stats.Pending + stats.Failed))
	}
	return sent
}

func (d *NotificationDispatcher) deliver(ctx context.Context, msg *models.OutboxMessage) bool {
	log := d.log.WithFields(logrus.Fields{
		"outbox_id": msg.ID,
		"kind":      msg.Kind,
		"dedup_key": msg.DedupKey,
		"attempt":   msg.Attempts + 1,
	})

	ref, err := d.send(ctx, msg)
	if err == nil {
		if err := d.repo.MarkSent(ctx, msg.ID, ref); err != nil {
			log.WithError(err).Error("message sent but not marked, it may be sent again")
		}
		metrics.OutboxDeliveriesTotal.WithLabelValues(msg.Kind, "sent").Inc()
		log.Info("notification delivered")
		return true
	}

	attempts := msg.Attempts + 1
	dead := attempts >= msg.MaxAttempts
	next := d.now().Add(RetryDelay(msg.Attempts))
	if markErr := d.repo.MarkFailed(ctx, msg.ID, err.Error(), next, dead); markErr != nil {
		log.WithError(markErr).Error("failed to record delivery failure")
	}

	if dead {
		metrics.OutboxDeliveriesTotal.WithLabelValues(msg.Kind, "dead").Inc()
		log.WithError(err).Error("notification gave up after max attempts")
	} else {
		metrics.OutboxDeliveriesTotal.WithLabelValues(msg.Kind, "failed").Inc()
		log.WithError(err).WithField("next_attempt_at", next).Warn("notification delivery failed, will retry")
	}
	return false
}

func (d *NotificationDispatcher) send(ctx context.Context, msg *models.OutboxMessage) (string, error) {
	switch msg.Channel {
	case models.ChannelEmail:
		return d.email.Send(ctx, email.Message{To: msg.Recipient, Subject: msg.Subject, HTML: msg.Body})
	case models.ChannelSMS:
		return d.sms.Send(ctx, msg.Recipient, msg.Body)
	}
	return "", fmt.Errorf("unknown channel %q", msg.Channel)
}
