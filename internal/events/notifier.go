package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Notifier pushes user-facing messages and domain events onto the bus.
// Every method is fire-and-forget: callers never block on delivery, and a
// publish failure is logged, not returned.
type Notifier struct {
	bus    Bus
	config *EventConfig
	logger *slog.Logger
}

func NewNotifier(bus Bus, config *EventConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		bus:    bus,
		config: config,
		logger: logger,
	}
}

// Notify publishes a notification for the user's tray. Safe to call from
// any goroutine; returns immediately.
func (n *Notifier) Notify(level, message, userID string) {
	payload := UserNotification{
		UserID:  userID,
		Level:   level,
		Message: message,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("Failed to marshal user notification", "error", err)
		return
	}

	msgId := fmt.Sprintf("notify.%s.%d", userID, time.Now().UnixNano())
	go func() {
		if err := n.bus.Publish(n.config.UserNotifications, data, msgId); err != nil {
			n.logger.Error("Failed to publish user notification",
				"user_id", userID,
				"level", level,
				"error", err,
			)
		}
	}()
}

// ListingCreated announces a freshly composed listing to downstream
// consumers. Also fire-and-forget.
func (n *Notifier) ListingCreated(listingID, shopID, userID, traceID string) {
	evt := ListingCreatedEvent{
		ListingID: listingID,
		ShopID:    shopID,
		UserID:    userID,
		TraceID:   traceID,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		n.logger.Error("Failed to marshal ListingCreatedEvent", "error", err)
		return
	}

	msgId := fmt.Sprintf("listing.created.%s", evt.ListingID)
	go func() {
		if err := n.bus.Publish(n.config.ListingCreated, data, msgId); err != nil {
			n.logger.Error("Failed to publish ListingCreatedEvent",
				"listing_id", evt.ListingID,
				"shop_id", evt.ShopID,
				"error", err,
			)
		}
	}()
}
