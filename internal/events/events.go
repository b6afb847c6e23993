package events

import (
	"os"
)

// ListingCreatedEvent is published once per successful listing composition
// so downstream consumers (search indexer, shop stats) can pick it up.
type ListingCreatedEvent struct {
	ListingID string `json:"listing_id"`
	ShopID    string `json:"shop_id"`
	UserID    string `json:"user_id"`
	TraceID   string `json:"trace_id"`
}

// UserNotification is the fire-and-forget message shown to a seller in the
// frontend notification tray.
type UserNotification struct {
	UserID  string `json:"user_id"`
	Level   string `json:"level"` // "info" | "warning" | "error"
	Message string `json:"message"`
}

type EventConfig struct {
	ListingCreated    string
	UserNotifications string
}

func NewEventConfig() *EventConfig {
	return &EventConfig{
		ListingCreated:    os.Getenv("EVENT_LISTING_CREATED"),
		UserNotifications: os.Getenv("EVENT_USER_NOTIFICATIONS"),
	}
}
