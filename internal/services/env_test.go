package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	rooms        *memRooms
	reservations *memReservations
	userLists    *memUserLists
	shares       *memShares
	connections  *memConnections
	events       *recordingPublisher
	gateway      *fakeGateway

	reservationSvc *ReservationService
	shareSvc       *SharedReservationService
	paymentSvc     *PaymentService

	hotelID primitive.ObjectID
	roomA   primitive.ObjectID
	roomB   primitive.ObjectID
}

// newTestEnv seeds one hotel with a 100 per night room type holding two room numbers.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		rooms:        newMemRooms(),
		reservations: newMemReservations(),
		userLists:    newMemUserLists(),
		shares:       newMemShares(),
		connections:  newMemConnections(),
		events:       &recordingPublisher{},
		gateway:      &fakeGateway{},
		hotelID:      primitive.NewObjectID(),
	}

	rt := &models.RoomType{
		HotelID:       env.hotelID,
		Title:         "Deluxe",
		PricePerNight: 100,
		MaxOccupants:  2,
		RoomNumbers:   []models.RoomNumber{{Number: 101}, {Number: 102}},
	}
	require.NoError(t, rt.BeforeCreate(testNow))
	_, err := env.rooms.CreateRoomType(t.Context(), rt)
	require.NoError(t, err)
	env.roomA = rt.RoomNumbers[0].ID
	env.roomB = rt.RoomNumbers[1].ID

	logger := discardLogger()
	availability := NewAvailabilityReconciler(env.rooms, logger)
	env.reservationSvc = NewReservationService(env.reservations, env.userLists, env.shares, env.rooms, availability, env.events, logger)
	env.reservationSvc.now = fixedClock(testNow)
	env.shareSvc = NewSharedReservationService(env.shares, env.reservations, env.connections, env.events, logger)
	env.shareSvc.now = fixedClock(testNow)
	env.paymentSvc = NewPaymentService(env.gateway, env.reservations, env.shares, logger)
	env.paymentSvc.now = fixedClock(testNow)
	return env
}

func (env *testEnv) book(t *testing.T, guest uuid.UUID, start, end string, rooms ...primitive.ObjectID) *models.Reservation {
	t.Helper()
	r, err := env.reservationSvc.Create(t.Context(), models.Actor{UserID: guest}, env.request(start, end, rooms...))
	require.NoError(t, err)
	return r
}

func (env *testEnv) request(start, end string, rooms ...primitive.ObjectID) CreateReservationRequest {
	ids := make([]string, 0, len(rooms))
	for _, id := range rooms {
		ids = append(ids, id.Hex())
	}
	return CreateReservationRequest{
		HotelID:   env.hotelID.Hex(),
		RoomIDs:   ids,
		StartDate: start,
		EndDate:   end,
	}
}

func days(t *testing.T, start, end string) []time.Time {
	t.Helper()
	r, err := models.ParseDateRange(start, end)
	require.NoError(t, err)
	return r.Days()
}

var admin = models.Actor{UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000ad"), IsAdmin: true}
