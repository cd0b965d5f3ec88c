package events

import (
	"time"

	"github.com/squareit/account-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated        EventType = "account_created"
	EventConfirmationRequested EventType = "account_confirmation_requested"
	EventConfirmationReissued  EventType = "account_confirmation_reissued"
	EventAccountConfirmed      EventType = "account_confirmed"
	EventAccountDeleted        EventType = "account_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NotificationPayload carries the message to deliver for notification events.
type NotificationPayload struct {
	Message domain.NotificationMessage `json:"message"`
}

// EventForKind maps a notification kind to the event that announces it.
func EventForKind(kind domain.NotificationKind) EventType {
	switch kind {
	case domain.NotificationResendNewAccount:
		return EventConfirmationReissued
	case domain.NotificationAccountConfirmed:
		return EventAccountConfirmed
	default:
		return EventConfirmationRequested
	}
}
