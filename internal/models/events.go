package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationPaid      EventType = "reservation.paid"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationStatus    EventType = "reservation.status_changed"
	EventShareCreated         EventType = "share.created"
	EventSharePayment         EventType = "share.payment_recorded"
	EventShareConfirmed       EventType = "share.confirmed"
	EventConnectionRequested  EventType = "connection.requested"
)

// ReservationEvent is the message published for every lifecycle change.
// Recipients are user ids; the consumer resolves them to addresses.
type ReservationEvent struct {
	Type          EventType   `json:"type"`
	ReservationID string      `json:"reservation_id,omitempty"`
	ShareID       string      `json:"share_id,omitempty"`
	Recipients    []uuid.UUID `json:"recipients"`
	Status        string      `json:"status,omitempty"`
	Amount        float64     `json:"amount,omitempty"`
	Dates         *DateRange  `json:"dates,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
