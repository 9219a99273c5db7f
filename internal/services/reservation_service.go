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

const publishTimeout = 3 * time.Second

type CreateReservationRequest struct {
	HotelID   string   `json:"hotel_id" binding:"required"`
	RoomIDs   []string `json:"room_ids" binding:"required,min=1"`
	StartDate string   `json:"start_date" binding:"required"`
	EndDate   string   `json:"end_date" binding:"required"`
}

type ReservationService struct {
	reservations models.ReservationRepo
	userLists    models.UserReservationsRepo
	shares       models.SharedReservationRepo
	rooms        models.RoomRepo
	availability *AvailabilityReconciler
	events       models.EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

func NewReservationService(
	reservations models.ReservationRepo,
	userLists models.UserReservationsRepo,
	shares models.SharedReservationRepo,
	rooms models.RoomRepo,
	availability *AvailabilityReconciler,
	events models.EventPublisher,
	logger *slog.Logger,
) *ReservationService {
	if events == nil {
		events = models.NopPublisher{}
	}
	return &ReservationService{
		reservations: reservations,
		userLists:    userLists,
		shares:       shares,
		rooms:        rooms,
		availability: availability,
		events:       events,
		logger:       logger,
		now:          utcNow,
	}
}

// Mongo keeps millisecond precision; values used in guards must survive a round trip.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ParseObjectIDs parses every id, rejecting malformed values and duplicates.
func ParseObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, raw := range ids {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", models.ErrInvalidRequest, raw)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: id %s listed twice", models.ErrInvalidRequest, raw)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Create holds the requested rooms, stores the reservation and links it to
// the guest. A failing step undoes the ones before it.
func (rs *ReservationService) Create(ctx context.Context, actor models.Actor, req CreateReservationRequest) (*models.Reservation, error) {
	if actor.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user id", models.ErrInvalidRequest)
	}
	hotelID, err := primitive.ObjectIDFromHex(req.HotelID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hotel id %q", models.ErrInvalidRequest, req.HotelID)
	}
	if len(req.RoomIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one room is required", models.ErrInvalidRequest)
	}
	roomIDs, err := ParseObjectIDs(req.RoomIDs)
	if err != nil {
		return nil, err
	}
	dates, err := models.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	nights := dates.Nights()
	if nights == 0 {
		nights = 1
	}
	numbers := make([]int, 0, len(roomIDs))
	var total float64
	for _, id := range roomIDs {
		room, rn, err := rs.rooms.FindRoomNumber(ctx, id)
		if err != nil {
			return nil, err
		}
		if room.HotelID != hotelID {
			return nil, fmt.Errorf("%w: room %s does not belong to hotel %s", models.ErrInvalidRequest, id.Hex(), hotelID.Hex())
		}
		numbers = append(numbers, rn.Number)
		total += room.PricePerNight * float64(nights)
	}

	now := rs.now()
	r := models.NewReservation(actor.UserID, hotelID, roomIDs, numbers, dates, total, now)

	sg := newSaga(rs.logger)
	sg.add("hold dates",
		func(ctx context.Context) error { return rs.availability.CheckAndHold(ctx, roomIDs, dates) },
		func(ctx context.Context) error { return rs.availability.Release(ctx, roomIDs, dates) },
	)
	sg.add("insert reservation",
		func(ctx context.Context) error { return rs.reservations.InsertReservation(ctx, r) },
		func(ctx context.Context) error { return rs.reservations.DeleteReservation(ctx, r.ID) },
	)
	sg.add("link to user",
		func(ctx context.Context) error { return rs.userLists.AddUserReservation(ctx, actor.UserID, r.ID) },
		nil,
	)
	if err := sg.run(ctx); err != nil {
		return nil, err
	}

	rs.logger.Info("reservation created",
		"reservation_id", r.ID.Hex(),
		"user_id", actor.UserID,
		"rooms", len(roomIDs),
		"start", dates.Start.Format(models.DayLayout),
		"end", dates.End.Format(models.DayLayout),
	)
	rs.publish(ctx, models.ReservationEvent{
		Type:          models.EventReservationCreated,
		ReservationID: r.ID.Hex(),
		Recipients:    []uuid.UUID{actor.UserID},
		Status:        string(r.Status),
		Amount:        r.TotalPrice,
		Dates:         &r.Dates,
	})
	return r, nil
}

func (rs *ReservationService) Get(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Reservation, error) {
	r, err := rs.reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.CanView(actor) {
		return nil, fmt.Errorf("%w: you can only view your own reservations", models.ErrForbidden)
	}
	return r, nil
}

func (rs *ReservationService) ListForUser(ctx context.Context, actor models.Actor, userID uuid.UUID) ([]*models.Reservation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user id", models.ErrInvalidRequest)
	}
	if actor.UserID != userID && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: you can only list your own reservations", models.ErrForbidden)
	}
	return rs.reservations.ListReservationsByUser(ctx, userID)
}

func (rs *ReservationService) ListAll(ctx context.Context, actor models.Actor, offset, limit int) ([]*models.Reservation, int64, error) {
	if !actor.IsAdmin {
		return nil, 0, fmt.Errorf("%w: admin access required", models.ErrForbidden)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return rs.reservations.ListReservations(ctx, offset, limit)
}

// shareActive reports whether an open split payment covers the reservation.
func (rs *ReservationService) shareActive(ctx context.Context, reservationID primitive.ObjectID, now time.Time) (bool, error) {
	s, err := rs.shares.GetShareByReservation(ctx, reservationID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.Open(now), nil
}

func (rs *ReservationService) Pay(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Reservation, error) {
	r, err := rs.reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	now := rs.now()
	active, err := rs.shareActive(ctx, id, now)
	if err != nil {
		return nil, err
	}
	next, err := r.Pay(actor, active, now)
	if err != nil {
		return nil, err
	}
	if err := rs.reservations.TransitionReservation(ctx, id, r.State(), next.State(), now); err != nil {
		return nil, err
	}

	rs.logger.Info("reservation paid", "reservation_id", id.Hex(), "by", actor.UserID, "admin", actor.IsAdmin)
	rs.publish(ctx, models.ReservationEvent{
		Type:          models.EventReservationPaid,
		ReservationID: id.Hex(),
		Recipients:    []uuid.UUID{next.UserID},
		Status:        string(next.Status),
		Amount:        next.TotalPrice,
	})
	return &next, nil
}

// Cancel is the guest cancellation: the share is closed, the dates go back
// to the rooms and the reservation is removed. Each step's failure is
// returned as is.
func (rs *ReservationService) Cancel(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	r, err := rs.reservations.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	release, err := r.CheckGuestCancel(actor)
	if err != nil {
		return err
	}

	now := rs.now()
	if release {
		// Mark it cancelled first so a retried request never releases twice.
		cancelled, _, err := r.ApplyAdminStatus(models.StatusCancelled, false, now)
		if err != nil {
			return err
		}
		if err := rs.reservations.TransitionReservation(ctx, id, r.State(), cancelled.State(), now); err != nil {
			return err
		}
	}
	if err := rs.shares.CancelShareForReservation(ctx, id, now); err != nil {
		return err
	}
	if release {
		if err := rs.availability.Release(ctx, r.RoomIDs, r.Dates); err != nil {
			return fmt.Errorf("failed to release dates: %w", err)
		}
	}
	if err := rs.reservations.DeleteReservation(ctx, id); err != nil {
		return err
	}
	if err := rs.userLists.RemoveUserReservation(ctx, r.UserID, id); err != nil {
		return err
	}

	rs.logger.Info("reservation cancelled by guest", "reservation_id", id.Hex(), "user_id", r.UserID, "released", release)
	rs.publish(ctx, models.ReservationEvent{
		Type:          models.EventReservationCancelled,
		ReservationID: id.Hex(),
		Recipients:    []uuid.UUID{r.UserID},
		Status:        string(models.StatusCancelled),
		Dates:         &r.Dates,
	})
	return nil
}

// UpdateStatus applies an admin status change. Cancelling keeps the
// reservation and gives its dates back.
func (rs *ReservationService) UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, status string) (*models.Reservation, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: admin access required", models.ErrForbidden)
	}
	target, err := models.ParseReservationStatus(status)
	if err != nil {
		return nil, err
	}
	r, err := rs.reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	now := rs.now()
	active, err := rs.shareActive(ctx, id, now)
	if err != nil {
		return nil, err
	}
	next, release, err := r.ApplyAdminStatus(target, active, now)
	if err != nil {
		return nil, err
	}
	if next.State() == r.State() {
		return r, nil
	}
	if err := rs.reservations.TransitionReservation(ctx, id, r.State(), next.State(), now); err != nil {
		return nil, err
	}
	if release {
		// close the share before giving the dates back
		if err := rs.shares.CancelShareForReservation(ctx, id, now); err != nil {
			return nil, err
		}
		if err := rs.availability.Release(ctx, r.RoomIDs, r.Dates); err != nil {
			return nil, fmt.Errorf("failed to release dates: %w", err)
		}
	}

	rs.logger.Info("reservation status changed",
		"reservation_id", id.Hex(),
		"from", r.Status,
		"to", next.Status,
		"payment_status", next.PaymentStatus,
	)
	rs.publish(ctx, models.ReservationEvent{
		Type:          models.EventReservationStatus,
		ReservationID: id.Hex(),
		Recipients:    []uuid.UUID{next.UserID},
		Status:        string(next.Status),
	})
	return &next, nil
}

// publish never fails the caller; delivery problems are logged.
func (rs *ReservationService) publish(ctx context.Context, event models.ReservationEvent) {
	publishEvent(ctx, rs.events, rs.logger, event, rs.now())
}

func publishEvent(ctx context.Context, events models.EventPublisher, logger *slog.Logger, event models.ReservationEvent, now time.Time) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish event", "type", event.Type, "reservation_id", event.ReservationID, "error", err)
	}
}
