package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// paymentAttempts bounds retries when another participant pays at the same time.
const paymentAttempts = 5

type ShareReservationRequest struct {
	ReservationID  string   `json:"reservation_id" binding:"required"`
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1"`
}

type SharedReservationService struct {
	shares       models.SharedReservationRepo
	reservations models.ReservationRepo
	connections  models.ConnectionRepo
	events       models.EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

func NewSharedReservationService(
	shares models.SharedReservationRepo,
	reservations models.ReservationRepo,
	connections models.ConnectionRepo,
	events models.EventPublisher,
	logger *slog.Logger,
) *SharedReservationService {
	if events == nil {
		events = models.NopPublisher{}
	}
	return &SharedReservationService{
		shares:       shares,
		reservations: reservations,
		connections:  connections,
		events:       events,
		logger:       logger,
		now:          utcNow,
	}
}

// Create splits the reservation's payment between the requester and those
// of participantIDs who are accepted connections. Others are dropped.
func (ss *SharedReservationService) Create(ctx context.Context, actor models.Actor, reservationID primitive.ObjectID, participantIDs []uuid.UUID) (*models.SharedReservation, error) {
	r, err := ss.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !r.IsOwner(actor.UserID) {
		return nil, fmt.Errorf("%w: you can only share your own reservations", models.ErrForbidden)
	}

	_, err = ss.shares.GetShareByReservation(ctx, reservationID)
	switch {
	case err == nil:
		return nil, models.ErrAlreadyShared
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	valid, err := ss.acceptedParticipants(ctx, actor.UserID, participantIDs)
	if err != nil {
		return nil, err
	}

	now := ss.now()
	share, err := models.NewSharedReservation(r, actor.UserID, valid, now)
	if err != nil {
		return nil, err
	}
	reset, err := r.ResetForShare(now)
	if err != nil {
		return nil, err
	}

	sg := newSaga(ss.logger)
	if reset.State() != r.State() {
		sg.add("reset reservation",
			func(ctx context.Context) error {
				return ss.reservations.TransitionReservation(ctx, r.ID, r.State(), reset.State(), now)
			},
			func(ctx context.Context) error {
				return ss.reservations.TransitionReservation(ctx, r.ID, reset.State(), r.State(), ss.now())
			},
		)
	}
	sg.add("insert share",
		func(ctx context.Context) error { return ss.shares.InsertShare(ctx, share) },
		nil,
	)
	if err := sg.run(ctx); err != nil {
		return nil, err
	}

	ss.logger.Info("reservation shared",
		"share_id", share.ID.Hex(),
		"reservation_id", reservationID.Hex(),
		"participants", len(share.Participants),
		"amount_per_user", share.AmountPerUser,
	)
	publishEvent(ctx, ss.events, ss.logger, models.ReservationEvent{
		Type:          models.EventShareCreated,
		ReservationID: reservationID.Hex(),
		ShareID:       share.ID.Hex(),
		Recipients:    valid,
		Status:        string(share.Status),
		Amount:        share.AmountPerUser,
		Dates:         &r.Dates,
	}, now)
	return share, nil
}

func (ss *SharedReservationService) acceptedParticipants(ctx context.Context, requester uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	valid := make([]uuid.UUID, 0, len(ids))
	seen := map[uuid.UUID]struct{}{requester: {}}
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		ok, err := ss.connections.HasAcceptedConnection(ctx, requester, id)
		if err != nil {
			return nil, err
		}
		if ok {
			valid = append(valid, id)
		} else {
			ss.logger.Debug("dropping participant without accepted connection", "requester", requester, "participant", id)
		}
	}
	return valid, nil
}

// RecordPayment marks the payer's part as settled. When the last part is
// paid the reservation becomes paid and confirmed.
func (ss *SharedReservationService) RecordPayment(ctx context.Context, actor models.Actor, shareID primitive.ObjectID) (*models.SharedReservation, error) {
	var next models.SharedReservation
	for attempt := 1; ; attempt++ {
		s, err := ss.shares.GetShare(ctx, shareID)
		if err != nil {
			return nil, err
		}
		next, err = s.RecordPayment(actor.UserID, ss.now())
		if err != nil {
			return nil, err
		}
		err = ss.shares.ReplaceShare(ctx, &next, s.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrStaleWrite) || attempt == paymentAttempts {
			return nil, err
		}
		ss.logger.Debug("shared reservation changed concurrently, retrying", "share_id", shareID.Hex(), "attempt", attempt)
	}

	ss.logger.Info("share payment recorded", "share_id", shareID.Hex(), "user_id", actor.UserID, "status", next.Status)

	if next.Status == models.ShareConfirmed {
		if err := ss.confirmReservation(ctx, next.ReservationID); err != nil {
			return nil, err
		}
		publishEvent(ctx, ss.events, ss.logger, models.ReservationEvent{
			Type:          models.EventShareConfirmed,
			ReservationID: next.ReservationID.Hex(),
			ShareID:       next.ID.Hex(),
			Recipients:    participantIDs(next),
			Status:        string(next.Status),
			Amount:        next.TotalAmount,
		}, ss.now())
	} else {
		publishEvent(ctx, ss.events, ss.logger, models.ReservationEvent{
			Type:          models.EventSharePayment,
			ReservationID: next.ReservationID.Hex(),
			ShareID:       next.ID.Hex(),
			Recipients:    []uuid.UUID{next.CreatedBy},
			Status:        string(next.Status),
			Amount:        next.AmountPerUser,
		}, ss.now())
	}
	return &next, nil
}

func (ss *SharedReservationService) confirmReservation(ctx context.Context, reservationID primitive.ObjectID) error {
	r, err := ss.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	now := ss.now()
	next, err := r.ConfirmFromShare(now)
	if err != nil {
		return err
	}
	if next.State() == r.State() {
		return nil
	}
	return ss.reservations.TransitionReservation(ctx, reservationID, r.State(), next.State(), now)
}

func participantIDs(s models.SharedReservation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Participants))
	for _, p := range s.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

func (ss *SharedReservationService) List(ctx context.Context, actor models.Actor) ([]*models.SharedReservation, error) {
	if actor.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user id", models.ErrInvalidRequest)
	}
	return ss.shares.ListSharesForUser(ctx, actor.UserID)
}

// ListUnpaid returns the open shares in which the caller still owes money.
func (ss *SharedReservationService) ListUnpaid(ctx context.Context, actor models.Actor) ([]*models.SharedReservation, error) {
	if actor.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user id", models.ErrInvalidRequest)
	}
	return ss.shares.ListUnpaidShares(ctx, actor.UserID)
}

func (ss *SharedReservationService) Get(ctx context.Context, actor models.Actor, shareID primitive.ObjectID) (*models.SharedReservation, error) {
	s, err := ss.shares.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if !s.CanView(actor.UserID) && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: you are not part of this shared reservation", models.ErrForbidden)
	}
	return s, nil
}

// ExpireOverdue closes every unsettled share whose deadline has passed.
func (ss *SharedReservationService) ExpireOverdue(ctx context.Context) (int64, error) {
	return ss.shares.ExpireOverdueShares(ctx, ss.now())
}
