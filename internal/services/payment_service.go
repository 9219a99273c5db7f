package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/joshua-takyi/staybook/internal/payments"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*payments.Intent, error)
}

type IntentRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	Currency string  `json:"currency"`
}

type PaymentService struct {
	gateway      PaymentGateway
	reservations models.ReservationRepo
	shares       models.SharedReservationRepo
	logger       *slog.Logger
	now          func() time.Time
}

func NewPaymentService(gateway PaymentGateway, reservations models.ReservationRepo, shares models.SharedReservationRepo, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		gateway:      gateway,
		reservations: reservations,
		shares:       shares,
		logger:       logger,
		now:          utcNow,
	}
}

// ToMinorUnits converts a decimal amount to cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (ps *PaymentService) CreateIntent(ctx context.Context, actor models.Actor, req IntentRequest) (*payments.Intent, error) {
	if ps.gateway == nil {
		return nil, fmt.Errorf("%w: payments are not configured", models.ErrUpstream)
	}
	minor := ToMinorUnits(req.Amount)
	if minor < payments.MinimumAmount {
		return nil, fmt.Errorf("%w: amount must be at least 0.50", models.ErrInvalidRequest)
	}
	return ps.gateway.CreateIntent(ctx, minor, req.Currency, map[string]string{
		"user_id": actor.UserID.String(),
	})
}

// CreateReservationIntent charges what the caller owes on a reservation:
// their part of an open split, or the full price otherwise.
func (ps *PaymentService) CreateReservationIntent(ctx context.Context, actor models.Actor, reservationID primitive.ObjectID) (*payments.Intent, error) {
	if ps.gateway == nil {
		return nil, fmt.Errorf("%w: payments are not configured", models.ErrUpstream)
	}
	r, err := ps.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"reservation_id": reservationID.Hex(),
		"user_id":        actor.UserID.String(),
	}

	var amount float64
	share, err := ps.shares.GetShareByReservation(ctx, reservationID)
	switch {
	case err == nil && share.Open(ps.now()):
		if !share.IsParticipant(actor.UserID) {
			return nil, fmt.Errorf("%w: you are not a participant in this shared reservation", models.ErrForbidden)
		}
		owed, ok := share.AmountOwed(actor.UserID)
		if !ok {
			return nil, models.ErrAlreadyPaid
		}
		amount = owed
		metadata["shared_reservation_id"] = share.ID.Hex()
	case err == nil || errors.Is(err, models.ErrNotFound):
		if !r.CanView(actor) {
			return nil, fmt.Errorf("%w: you can only pay for your own reservations", models.ErrForbidden)
		}
		if r.PaymentStatus == models.PaymentPaid {
			return nil, models.ErrAlreadyPaid
		}
		if r.Status.Terminal() {
			return nil, fmt.Errorf("%w: reservation is %s", models.ErrInvalidTransition, r.Status)
		}
		amount = r.TotalPrice
	default:
		return nil, err
	}

	intent, err := ps.gateway.CreateIntent(ctx, ToMinorUnits(amount), "", metadata)
	if err != nil {
		return nil, err
	}
	ps.logger.Info("payment intent created", "reservation_id", reservationID.Hex(), "user_id", actor.UserID, "amount", intent.Amount)
	return intent, nil
}
