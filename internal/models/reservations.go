package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "Pending"
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusCancelled ReservationStatus = "Cancelled"
	StatusCompleted ReservationStatus = "Completed"
)

// AdminStatuses is the allow-list accepted by the admin status endpoint.
var AdminStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func ParseReservationStatus(v string) (ReservationStatus, error) {
	for _, s := range AdminStatuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: invalid status %q, allowed values are Pending, Confirmed, Cancelled, Completed", ErrInvalidRequest, v)
}

func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ReservationState is the (paymentStatus, status) pair the lifecycle moves through.
type ReservationState struct {
	Payment PaymentStatus
	Status  ReservationStatus
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type Reservation struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID        uuid.UUID            `bson:"user_id" json:"user_id"`
	HotelID       primitive.ObjectID   `bson:"hotel_id" json:"hotel_id"`
	RoomIDs       []primitive.ObjectID `bson:"room_ids" json:"room_ids"`
	RoomNumbers   []int                `bson:"room_numbers" json:"room_numbers"`
	Dates         DateRange            `bson:"dates" json:"dates"`
	TotalPrice    float64              `bson:"total_price" json:"total_price"`
	PaymentStatus PaymentStatus        `bson:"payment_status" json:"payment_status"`
	Status        ReservationStatus    `bson:"status" json:"status"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

type ReservationRepo interface {
	InsertReservation(ctx context.Context, r *Reservation) error
	GetReservation(ctx context.Context, id primitive.ObjectID) (*Reservation, error)
	ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]*Reservation, error)
	ListReservations(ctx context.Context, offset, limit int) ([]*Reservation, int64, error)
	// TransitionReservation writes to only if the stored state still equals from.
	TransitionReservation(ctx context.Context, id primitive.ObjectID, from, to ReservationState, now time.Time) error
	DeleteReservation(ctx context.Context, id primitive.ObjectID) error
}

type UserReservationsRepo interface {
	AddUserReservation(ctx context.Context, userID uuid.UUID, reservationID primitive.ObjectID) error
	RemoveUserReservation(ctx context.Context, userID uuid.UUID, reservationID primitive.ObjectID) error
}

func NewReservation(userID uuid.UUID, hotelID primitive.ObjectID, roomIDs []primitive.ObjectID, roomNumbers []int, dates DateRange, total float64, now time.Time) *Reservation {
	return &Reservation{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		HotelID:       hotelID,
		RoomIDs:       roomIDs,
		RoomNumbers:   roomNumbers,
		Dates:         dates,
		TotalPrice:    total,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (r Reservation) State() ReservationState {
	return ReservationState{Payment: r.PaymentStatus, Status: r.Status}
}

func (r Reservation) IsOwner(userID uuid.UUID) bool {
	return r.UserID == userID
}

func (r Reservation) CanView(actor Actor) bool {
	return actor.IsAdmin || r.IsOwner(actor.UserID)
}

func (r Reservation) with(payment PaymentStatus, status ReservationStatus, now time.Time) Reservation {
	r.PaymentStatus = payment
	r.Status = status
	r.UpdatedAt = now
	return r
}

// Pay moves a pending reservation to (paid, Confirmed). shareActive must be
// true while an open split payment exists; the split settles the reservation.
func (r Reservation) Pay(actor Actor, shareActive bool, now time.Time) (Reservation, error) {
	if !r.CanView(actor) {
		return r, fmt.Errorf("%w: only the owner or an admin can pay for this reservation", ErrForbidden)
	}
	if r.Status.Terminal() {
		return r, fmt.Errorf("%w: reservation is %s", ErrInvalidTransition, r.Status)
	}
	if r.PaymentStatus == PaymentPaid {
		return r, ErrAlreadyPaid
	}
	if shareActive {
		return r, ErrReservationShared
	}
	return r.with(PaymentPaid, StatusConfirmed, now), nil
}

// ApplyAdminStatus returns the next state for an admin status change and
// whether the reservation's held dates must be released.
func (r Reservation) ApplyAdminStatus(target ReservationStatus, shareActive bool, now time.Time) (Reservation, bool, error) {
	if r.Status.Terminal() {
		if r.Status == target && target == StatusCancelled {
			return r, false, ErrAlreadyCancelled
		}
		if r.Status == target {
			return r, false, fmt.Errorf("%w: reservation is already %s", ErrAlreadyDone, target)
		}
		return r, false, fmt.Errorf("%w: reservation is %s", ErrInvalidTransition, r.Status)
	}

	switch target {
	case StatusPending:
		if r.Status != StatusPending {
			return r, false, fmt.Errorf("%w: a %s reservation cannot return to Pending", ErrInvalidTransition, r.Status)
		}
		return r, false, nil
	case StatusConfirmed:
		if r.PaymentStatus == PaymentPaid {
			return r, false, ErrAlreadyPaid
		}
		if shareActive {
			return r, false, ErrReservationShared
		}
		return r.with(PaymentPaid, StatusConfirmed, now), false, nil
	case StatusCancelled:
		payment := r.PaymentStatus
		if payment == PaymentPaid {
			payment = PaymentRefunded
		}
		return r.with(payment, StatusCancelled, now), true, nil
	case StatusCompleted:
		if r.State() != (ReservationState{Payment: PaymentPaid, Status: StatusConfirmed}) {
			return r, false, fmt.Errorf("%w: only paid and confirmed reservations can be completed", ErrInvalidTransition)
		}
		if !NormalizeDay(r.Dates.End).Before(NormalizeDay(now)) {
			return r, false, fmt.Errorf("%w: stay ends %s and has not passed yet", ErrInvalidTransition, r.Dates.End.Format(DayLayout))
		}
		return r.with(PaymentPaid, StatusCompleted, now), false, nil
	default:
		return r, false, fmt.Errorf("%w: invalid status %q", ErrInvalidRequest, target)
	}
}

// CheckGuestCancel validates a guest cancellation and reports whether the
// held dates still need releasing. An admin-cancelled reservation has
// already given its dates back.
func (r Reservation) CheckGuestCancel(actor Actor) (bool, error) {
	if !r.IsOwner(actor.UserID) {
		return false, fmt.Errorf("%w: only the owner can cancel this reservation", ErrForbidden)
	}
	switch r.Status {
	case StatusCompleted:
		return false, fmt.Errorf("%w: completed reservations cannot be cancelled", ErrInvalidTransition)
	case StatusCancelled:
		return false, nil
	default:
		return true, nil
	}
}

// ResetForShare puts a reservation back to (pending, Pending) while its
// payment is split between participants.
func (r Reservation) ResetForShare(now time.Time) (Reservation, error) {
	if r.Status.Terminal() {
		return r, fmt.Errorf("%w: a %s reservation cannot be shared", ErrInvalidTransition, r.Status)
	}
	return r.with(PaymentPending, StatusPending, now), nil
}

// ConfirmFromShare is the transition applied once every participant has paid.
func (r Reservation) ConfirmFromShare(now time.Time) (Reservation, error) {
	if r.Status.Terminal() {
		return r, fmt.Errorf("%w: reservation is %s", ErrInvalidTransition, r.Status)
	}
	return r.with(PaymentPaid, StatusConfirmed, now), nil
}
