package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/senders"
	"gorm.io/gorm"
)

// Dispatcher fans persisted events out to their matched channels and records
// every delivery outcome.
type Dispatcher struct {
	db      *gorm.DB
	matcher *Matcher
	senders *senders.Registry
	log     *slog.Logger
}

func NewDispatcher(conn *gorm.DB, registry *senders.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		db:      conn,
		matcher: NewMatcher(conn),
		senders: registry,
		log:     logger,
	}
}

// Dispatch drives one delivery attempt per matched channel. Each attempt
// gets its own pending record which always reaches a terminal state; a
// failing channel is recorded and never blocks its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event) error {
	matched, err := d.matcher.Match(event.ProjectID, event.Category)

	if err != nil {
		return fmt.Errorf("failed to match channels: %w", err)
	}

	for _, channel := range matched {
		record := models.Notification{
			EventID:   event.ID,
			ChannelID: channel.ChannelID,
			Status:    models.NotificationPending,
		}

		if err := d.db.Create(&record).Error; err != nil {
			d.log.Error("failed to create delivery record",
				"event_id", event.ID, "channel_id", channel.ChannelID, "error", err)
			continue
		}

		if err := d.deliver(ctx, channel, event); err != nil {
			d.log.Warn("delivery failed",
				"event_id", event.ID, "channel_id", channel.ChannelID, "error", err)
			d.finalize(record.ID, models.NotificationFailed, err.Error(), nil)
			continue
		}

		now := time.Now()
		d.finalize(record.ID, models.NotificationSent, "", &now)
	}

	return nil
}

// deliver recovers sender panics so a broken sender is recorded as a failed
// delivery instead of tearing down the request.
func (d *Dispatcher) deliver(ctx context.Context, channel MatchedChannel, event models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()

	sender, err := d.senders.Get(channel.Kind)

	if err != nil {
		return err
	}

	return sender.Send(ctx, channel.Config, event)
}

func (d *Dispatcher) finalize(recordID uint, status, errText string, sentAt *time.Time) {
	updates := map[string]interface{}{"status": status}

	if errText != "" {
		updates["error"] = errText
	}

	if sentAt != nil {
		updates["sent_at"] = sentAt
	}

	if err := d.db.Model(&models.Notification{}).Where("id = ?", recordID).Updates(updates).Error; err != nil {
		d.log.Error("failed to finalize delivery record", "record_id", recordID, "error", err)
	}
}
