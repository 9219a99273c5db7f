package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/staybook/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilityReconciler places and removes date holds on room numbers.
type AvailabilityReconciler struct {
	rooms  models.RoomRepo
	logger *slog.Logger
}

func NewAvailabilityReconciler(rooms models.RoomRepo, logger *slog.Logger) *AvailabilityReconciler {
	return &AvailabilityReconciler{rooms: rooms, logger: logger}
}

// CheckAndHold holds every day of dates on each room number. If any room is
// unavailable the rooms held so far are released again and the conflict is returned.
func (ar *AvailabilityReconciler) CheckAndHold(ctx context.Context, roomIDs []primitive.ObjectID, dates models.DateRange) error {
	days := dates.Days()
	if len(days) == 0 {
		return fmt.Errorf("%w: empty date range", models.ErrInvalidRequest)
	}

	held := make([]primitive.ObjectID, 0, len(roomIDs))
	for _, id := range roomIDs {
		if err := ar.rooms.HoldDates(ctx, id, days); err != nil {
			if len(held) > 0 {
				if relErr := ar.Release(context.WithoutCancel(ctx), held, dates); relErr != nil {
					ar.logger.Error("failed to release partial hold", "rooms", len(held), "error", relErr)
				}
			}
			return err
		}
		held = append(held, id)
	}
	return nil
}

// Release removes the days of dates from every room number. A room number
// that no longer exists has nothing to give back and is skipped. It keeps
// going after a failure and reports all of them.
func (ar *AvailabilityReconciler) Release(ctx context.Context, roomIDs []primitive.ObjectID, dates models.DateRange) error {
	days := dates.Days()
	var errs []error
	for _, id := range roomIDs {
		err := ar.rooms.ReleaseDates(ctx, id, days)
		switch {
		case err == nil:
		case errors.Is(err, models.ErrRoomNotFound):
			ar.logger.Warn("room number gone, nothing to release", "room_number_id", id.Hex())
		default:
			errs = append(errs, fmt.Errorf("room %s: %w", id.Hex(), err))
		}
	}
	return errors.Join(errs...)
}
