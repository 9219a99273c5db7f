package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomNumber is one physical room. UnavailableDates is the only record of
// which days the room is held; Version grows with every calendar write.
type RoomNumber struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	Number           int                `bson:"number" json:"number" validate:"required,gt=0"`
	UnavailableDates []time.Time        `bson:"unavailable_dates" json:"unavailable_dates"`
	Version          int64              `bson:"version" json:"version"`
}

type RoomType struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HotelID       primitive.ObjectID `bson:"hotel_id" json:"hotel_id"`
	Title         string             `bson:"title" json:"title" validate:"required,min=2,max=120"`
	PricePerNight float64            `bson:"price_per_night" json:"price_per_night" validate:"gt=0"`
	MaxOccupants  int                `bson:"max_occupants" json:"max_occupants" validate:"gte=1,lte=20"`
	Description   string             `bson:"description" json:"description" validate:"max=2000"`
	Photos        []string           `bson:"photos,omitempty" json:"photos,omitempty"`
	RoomNumbers   []RoomNumber       `bson:"room_numbers" json:"room_numbers" validate:"dive"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// RoomTypeUpdate carries the descriptive fields an admin may change.
type RoomTypeUpdate struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,min=2,max=120"`
	PricePerNight *float64 `json:"price_per_night,omitempty" validate:"omitempty,gt=0"`
	MaxOccupants  *int     `json:"max_occupants,omitempty" validate:"omitempty,gte=1,lte=20"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
}

func (u RoomTypeUpdate) Empty() bool {
	return u.Title == nil && u.PricePerNight == nil && u.MaxOccupants == nil && u.Description == nil
}

type RoomRepo interface {
	CreateRoomType(ctx context.Context, room *RoomType) (*RoomType, error)
	GetRoomType(ctx context.Context, id primitive.ObjectID) (*RoomType, error)
	ListRoomTypesByHotel(ctx context.Context, hotelID primitive.ObjectID) ([]*RoomType, error)
	UpdateRoomType(ctx context.Context, id primitive.ObjectID, update RoomTypeUpdate) (*RoomType, error)
	DeleteRoomType(ctx context.Context, id primitive.ObjectID) error
	HasBookableRoom(ctx context.Context, hotelID primitive.ObjectID) (bool, error)

	FindRoomNumber(ctx context.Context, roomNumberID primitive.ObjectID) (*RoomType, *RoomNumber, error)
	ReplaceUnavailableDates(ctx context.Context, roomNumberID primitive.ObjectID, days []time.Time) (*RoomNumber, error)
	HoldDates(ctx context.Context, roomNumberID primitive.ObjectID, days []time.Time) error
	ReleaseDates(ctx context.Context, roomNumberID primitive.ObjectID, days []time.Time) error
}

func (r *RoomType) BeforeCreate(now time.Time) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.HotelID.IsZero() {
		return fmt.Errorf("%w: hotel id is required", ErrInvalidRequest)
	}
	if len(r.RoomNumbers) == 0 {
		return fmt.Errorf("%w: at least one room number is required", ErrInvalidRequest)
	}

	seen := make(map[int]struct{}, len(r.RoomNumbers))
	for i := range r.RoomNumbers {
		rn := &r.RoomNumbers[i]
		if _, dup := seen[rn.Number]; dup {
			return fmt.Errorf("%w: room number %d appears twice", ErrInvalidRequest, rn.Number)
		}
		seen[rn.Number] = struct{}{}
		rn.ID = primitive.NewObjectID()
		rn.UnavailableDates = []time.Time{}
		rn.Version = 0
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// RoomNumberByID returns the room number with the given id, or nil.
func (r *RoomType) RoomNumberByID(id primitive.ObjectID) *RoomNumber {
	for i := range r.RoomNumbers {
		if r.RoomNumbers[i].ID == id {
			return &r.RoomNumbers[i]
		}
	}
	return nil
}

// IsDateUnavailable reports whether d is held on this room number.
func (rn RoomNumber) IsDateUnavailable(d time.Time) bool {
	day := NormalizeDay(d)
	for _, u := range rn.UnavailableDates {
		if NormalizeDay(u).Equal(day) {
			return true
		}
	}
	return false
}

// Conflicts returns the requested days already held on this room number.
func (rn RoomNumber) Conflicts(days []time.Time) []time.Time {
	return Intersect(rn.UnavailableDates, days)
}

// CalendarSnapshot returns a map[dayOfMonth]unavailable for the requested month.
func (rn RoomNumber) CalendarSnapshot(year int, month time.Month) map[int]bool {
	days := daysIn(month, year)
	out := make(map[int]bool, days)
	for day := 1; day <= days; day++ {
		out[day] = rn.IsDateUnavailable(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	}
	return out
}
