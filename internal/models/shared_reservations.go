package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ShareStatus string

const (
	SharePending       ShareStatus = "pending"
	SharePartiallyPaid ShareStatus = "partially_paid"
	ShareConfirmed     ShareStatus = "confirmed"
	ShareCancelled     ShareStatus = "cancelled"
	ShareExpired       ShareStatus = "expired"
)

// ShareTTL is how long participants have to settle a split payment.
const ShareTTL = 24 * time.Hour

type Participant struct {
	UserID      uuid.UUID  `bson:"user_id" json:"user_id"`
	HasPaid     bool       `bson:"has_paid" json:"has_paid"`
	AmountToPay float64    `bson:"amount_to_pay" json:"amount_to_pay"`
	PaymentDate *time.Time `bson:"payment_date,omitempty" json:"payment_date,omitempty"`
}

type SharedReservation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReservationID primitive.ObjectID `bson:"reservation_id" json:"reservation_id"`
	CreatedBy     uuid.UUID          `bson:"created_by" json:"created_by"`
	Participants  []Participant      `bson:"participants" json:"participants"`
	TotalAmount   float64            `bson:"total_amount" json:"total_amount"`
	AmountPerUser float64            `bson:"amount_per_user" json:"amount_per_user"`
	Status        ShareStatus        `bson:"status" json:"status"`
	ExpiresAt     time.Time          `bson:"expires_at" json:"expires_at"`
	Version       int64              `bson:"version" json:"-"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

type SharedReservationRepo interface {
	InsertShare(ctx context.Context, s *SharedReservation) error
	GetShare(ctx context.Context, id primitive.ObjectID) (*SharedReservation, error)
	GetShareByReservation(ctx context.Context, reservationID primitive.ObjectID) (*SharedReservation, error)
	// ReplaceShare stores s only if the stored document is still at prevVersion.
	ReplaceShare(ctx context.Context, s *SharedReservation, prevVersion int64) error
	ListSharesForUser(ctx context.Context, userID uuid.UUID) ([]*SharedReservation, error)
	ListUnpaidShares(ctx context.Context, userID uuid.UUID) ([]*SharedReservation, error)
	CancelShareForReservation(ctx context.Context, reservationID primitive.ObjectID, now time.Time) error
	ExpireOverdueShares(ctx context.Context, now time.Time) (int64, error)
}

// NewSharedReservation splits the reservation total evenly between the
// participants and the creator, who is appended last.
func NewSharedReservation(r *Reservation, creator uuid.UUID, participants []uuid.UUID, now time.Time) (*SharedReservation, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: no valid participants found, participants must be accepted connections", ErrInvalidRequest)
	}

	per := r.TotalPrice / float64(len(participants)+1)
	list := make([]Participant, 0, len(participants)+1)
	for _, id := range participants {
		list = append(list, Participant{UserID: id, AmountToPay: per})
	}
	list = append(list, Participant{UserID: creator, AmountToPay: per})

	return &SharedReservation{
		ID:            primitive.NewObjectID(),
		ReservationID: r.ID,
		CreatedBy:     creator,
		Participants:  list,
		TotalAmount:   r.TotalPrice,
		AmountPerUser: per,
		Status:        SharePending,
		ExpiresAt:     now.Add(ShareTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s SharedReservation) participantIndex(userID uuid.UUID) int {
	for i, p := range s.Participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (s SharedReservation) IsParticipant(userID uuid.UUID) bool {
	return s.participantIndex(userID) >= 0
}

func (s SharedReservation) CanView(userID uuid.UUID) bool {
	return s.CreatedBy == userID || s.IsParticipant(userID)
}

// Open reports whether the share still accepts payments at now.
func (s SharedReservation) Open(now time.Time) bool {
	if s.Status != SharePending && s.Status != SharePartiallyPaid {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// AmountOwed returns what userID still has to pay, and false when they owe nothing.
func (s SharedReservation) AmountOwed(userID uuid.UUID) (float64, bool) {
	i := s.participantIndex(userID)
	if i < 0 || s.Participants[i].HasPaid {
		return 0, false
	}
	return s.Participants[i].AmountToPay, true
}

func (s SharedReservation) AllPaid() bool {
	for _, p := range s.Participants {
		if !p.HasPaid {
			return false
		}
	}
	return len(s.Participants) > 0
}

// RecordPayment marks payer as paid and recomputes the aggregate status.
// The receiver is left untouched.
func (s SharedReservation) RecordPayment(payer uuid.UUID, now time.Time) (SharedReservation, error) {
	i := s.participantIndex(payer)
	if i < 0 {
		return s, fmt.Errorf("%w: you are not a participant in this shared reservation", ErrForbidden)
	}
	if s.Participants[i].HasPaid {
		return s, ErrAlreadyPaid
	}
	if !s.Open(now) {
		return s, ErrShareClosed
	}

	next := s
	next.Participants = make([]Participant, len(s.Participants))
	copy(next.Participants, s.Participants)

	paidAt := now
	next.Participants[i].HasPaid = true
	next.Participants[i].PaymentDate = &paidAt
	if next.AllPaid() {
		next.Status = ShareConfirmed
	} else {
		next.Status = SharePartiallyPaid
	}
	next.Version = s.Version + 1
	next.UpdatedAt = now
	return next, nil
}
