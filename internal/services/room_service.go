package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/staybook/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const RoomPhotosFolder = "rooms"

// ImageUploader stores images and returns their public URLs.
type ImageUploader interface {
	Upload(ctx context.Context, sources []string, folder string) ([]string, error)
}

type CreateRoomTypeRequest struct {
	HotelID       string   `json:"hotel_id" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	PricePerNight float64  `json:"price_per_night" binding:"required"`
	MaxOccupants  int      `json:"max_occupants" binding:"required"`
	Description   string   `json:"description"`
	RoomNumbers   []int    `json:"room_numbers" binding:"required,min=1"`
	Photos        []string `json:"photos"`
}

type RoomService struct {
	rooms    models.RoomRepo
	uploader ImageUploader
	logger   *slog.Logger
	now      func() time.Time
}

// NewRoomService accepts a nil uploader, in which case photo URLs are stored as given.
func NewRoomService(rooms models.RoomRepo, uploader ImageUploader, logger *slog.Logger) *RoomService {
	return &RoomService{
		rooms:    rooms,
		uploader: uploader,
		logger:   logger,
		now:      utcNow,
	}
}

func (rs *RoomService) CreateRoomType(ctx context.Context, req CreateRoomTypeRequest) (*models.RoomType, error) {
	hotelID, err := primitive.ObjectIDFromHex(req.HotelID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hotel id %q", models.ErrInvalidRequest, req.HotelID)
	}

	room := &models.RoomType{
		HotelID:       hotelID,
		Title:         req.Title,
		PricePerNight: req.PricePerNight,
		MaxOccupants:  req.MaxOccupants,
		Description:   req.Description,
	}
	for _, n := range req.RoomNumbers {
		room.RoomNumbers = append(room.RoomNumbers, models.RoomNumber{Number: n})
	}
	if err := room.BeforeCreate(rs.now()); err != nil {
		return nil, err
	}
	if err := models.Validate.Struct(room); err != nil {
		return nil, fmt.Errorf("%w: invalid room data provided: %v", models.ErrInvalidRequest, err)
	}

	room.Photos = req.Photos
	if rs.uploader != nil && len(req.Photos) > 0 {
		urls, err := rs.uploader.Upload(ctx, req.Photos, RoomPhotosFolder)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
		}
		room.Photos = urls
	}

	created, err := rs.rooms.CreateRoomType(ctx, room)
	if err != nil {
		return nil, err
	}
	rs.logger.Info("room type created", "room_type_id", created.ID.Hex(), "hotel_id", hotelID.Hex(), "room_numbers", len(created.RoomNumbers))
	return created, nil
}

func (rs *RoomService) GetRoomType(ctx context.Context, id primitive.ObjectID) (*models.RoomType, error) {
	return rs.rooms.GetRoomType(ctx, id)
}

func (rs *RoomService) ListByHotel(ctx context.Context, hotelID primitive.ObjectID) ([]*models.RoomType, error) {
	return rs.rooms.ListRoomTypesByHotel(ctx, hotelID)
}

func (rs *RoomService) UpdateRoomType(ctx context.Context, id primitive.ObjectID, update models.RoomTypeUpdate) (*models.RoomType, error) {
	if update.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrInvalidRequest)
	}
	if err := models.Validate.Struct(update); err != nil {
		return nil, fmt.Errorf("%w: invalid room data provided: %v", models.ErrInvalidRequest, err)
	}
	return rs.rooms.UpdateRoomType(ctx, id, update)
}

func (rs *RoomService) DeleteRoomType(ctx context.Context, id primitive.ObjectID) error {
	return rs.rooms.DeleteRoomType(ctx, id)
}

func (rs *RoomService) HasBookableRoom(ctx context.Context, hotelID primitive.ObjectID) (bool, error) {
	return rs.rooms.HasBookableRoom(ctx, hotelID)
}

// SetUnavailableDates replaces the whole calendar of one room number.
func (rs *RoomService) SetUnavailableDates(ctx context.Context, roomNumberID primitive.ObjectID, dates []string) (*models.RoomNumber, error) {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := time.Parse(models.DayLayout, d)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", models.ErrInvalidRequest, d)
		}
		days = append(days, t)
	}
	rn, err := rs.rooms.ReplaceUnavailableDates(ctx, roomNumberID, days)
	if err != nil {
		return nil, err
	}
	rs.logger.Info("room calendar replaced", "room_number_id", roomNumberID.Hex(), "days", len(rn.UnavailableDates))
	return rn, nil
}

type RoomCalendar struct {
	RoomNumberID string       `json:"room_number_id"`
	Number       int          `json:"number"`
	Year         int          `json:"year"`
	Month        time.Month   `json:"month"`
	Unavailable  map[int]bool `json:"unavailable"`
}

func (rs *RoomService) Calendar(ctx context.Context, roomNumberID primitive.ObjectID, year int, month time.Month) (*RoomCalendar, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", models.ErrInvalidRequest)
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: year out of range", models.ErrInvalidRequest)
	}
	_, rn, err := rs.rooms.FindRoomNumber(ctx, roomNumberID)
	if err != nil {
		return nil, err
	}
	return &RoomCalendar{
		RoomNumberID: roomNumberID.Hex(),
		Number:       rn.Number,
		Year:         year,
		Month:        month,
		Unavailable:  rn.CalendarSnapshot(year, month),
	}, nil
}
