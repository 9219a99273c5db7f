package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/joshua-takyi/staybook/internal/payments"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errInjected = errors.New("injected failure")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// memRooms mirrors the Mongo store: a hold checks and writes under one lock.
type memRooms struct {
	mu       sync.Mutex
	rooms    map[primitive.ObjectID]*models.RoomType
	holdErr  map[primitive.ObjectID]error
	relErr   map[primitive.ObjectID]error
	holds    int
	releases int
}

func newMemRooms() *memRooms {
	return &memRooms{
		rooms:   map[primitive.ObjectID]*models.RoomType{},
		holdErr: map[primitive.ObjectID]error{},
		relErr:  map[primitive.ObjectID]error{},
	}
}

func cloneRoom(r *models.RoomType) *models.RoomType {
	c := *r
	c.RoomNumbers = make([]models.RoomNumber, len(r.RoomNumbers))
	for i, rn := range r.RoomNumbers {
		rn.UnavailableDates = append([]time.Time(nil), rn.UnavailableDates...)
		c.RoomNumbers[i] = rn
	}
	return &c
}

func (m *memRooms) CreateRoomType(_ context.Context, room *models.RoomType) (*models.RoomType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = cloneRoom(room)
	return room, nil
}

func (m *memRooms) GetRoomType(_ context.Context, id primitive.ObjectID) (*models.RoomType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return cloneRoom(r), nil
}

func (m *memRooms) ListRoomTypesByHotel(_ context.Context, hotelID primitive.ObjectID) ([]*models.RoomType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.RoomType{}
	for _, r := range m.rooms {
		if r.HotelID == hotelID {
			out = append(out, cloneRoom(r))
		}
	}
	return out, nil
}

func (m *memRooms) UpdateRoomType(_ context.Context, id primitive.ObjectID, u models.RoomTypeUpdate) (*models.RoomType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.PricePerNight != nil {
		r.PricePerNight = *u.PricePerNight
	}
	if u.MaxOccupants != nil {
		r.MaxOccupants = *u.MaxOccupants
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	return cloneRoom(r), nil
}

func (m *memRooms) DeleteRoomType(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return models.ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

func (m *memRooms) HasBookableRoom(_ context.Context, hotelID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.HotelID == hotelID && len(r.RoomNumbers) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRooms) locate(id primitive.ObjectID) (*models.RoomType, *models.RoomNumber) {
	for _, r := range m.rooms {
		if rn := r.RoomNumberByID(id); rn != nil {
			return r, rn
		}
	}
	return nil, nil
}

func (m *memRooms) FindRoomNumber(_ context.Context, id primitive.ObjectID) (*models.RoomType, *models.RoomNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, _ := m.locate(id)
	if r == nil {
		return nil, nil, models.ErrRoomNotFound
	}
	c := cloneRoom(r)
	return c, c.RoomNumberByID(id), nil
}

func (m *memRooms) ReplaceUnavailableDates(_ context.Context, id primitive.ObjectID, days []time.Time) (*models.RoomNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, rn := m.locate(id)
	if rn == nil {
		return nil, models.ErrRoomNotFound
	}
	rn.UnavailableDates = models.DaySet(days)
	rn.Version++
	out := *rn
	return &out, nil
}

func (m *memRooms) HoldDates(_ context.Context, id primitive.ObjectID, days []time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.holdErr[id]; err != nil {
		return err
	}
	_, rn := m.locate(id)
	if rn == nil {
		return models.ErrRoomNotFound
	}
	if conflicts := rn.Conflicts(days); len(conflicts) > 0 {
		return &models.ConflictError{RoomID: id.Hex(), Dates: conflicts}
	}
	rn.UnavailableDates = models.DaySet(append(rn.UnavailableDates, days...))
	rn.Version++
	m.holds++
	return nil
}

func (m *memRooms) ReleaseDates(_ context.Context, id primitive.ObjectID, days []time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.relErr[id]; err != nil {
		return err
	}
	_, rn := m.locate(id)
	if rn == nil {
		return models.ErrRoomNotFound
	}
	drop := map[time.Time]struct{}{}
	for _, d := range models.DaySet(days) {
		drop[d] = struct{}{}
	}
	kept := []time.Time{}
	for _, d := range rn.UnavailableDates {
		if _, ok := drop[models.NormalizeDay(d)]; !ok {
			kept = append(kept, d)
		}
	}
	rn.UnavailableDates = kept
	rn.Version++
	m.releases++
	return nil
}

func (m *memRooms) unavailable(id primitive.ObjectID) []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, rn := m.locate(id)
	if rn == nil {
		return nil
	}
	return append([]time.Time(nil), rn.UnavailableDates...)
}

type memReservations struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]models.Reservation
	insertErr error
}

func newMemReservations() *memReservations {
	return &memReservations{items: map[primitive.ObjectID]models.Reservation{}}
}

func (m *memReservations) InsertReservation(_ context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memReservations) GetReservation(_ context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, models.ErrReservationNotFound
	}
	return &r, nil
}

func (m *memReservations) ListReservationsByUser(_ context.Context, userID uuid.UUID) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Reservation{}
	for _, r := range m.items {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memReservations) ListReservations(_ context.Context, offset, limit int) ([]*models.Reservation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*models.Reservation, 0, len(m.items))
	for _, r := range m.items {
		r := r
		all = append(all, &r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.Hex() < all[j].ID.Hex() })
	total := int64(len(all))
	if offset >= len(all) {
		return []*models.Reservation{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (m *memReservations) TransitionReservation(_ context.Context, id primitive.ObjectID, from, to models.ReservationState, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return models.ErrReservationNotFound
	}
	if r.State() != from {
		return models.ErrStaleWrite
	}
	r.PaymentStatus = to.Payment
	r.Status = to.Status
	r.UpdatedAt = now
	m.items[id] = r
	return nil
}

func (m *memReservations) DeleteReservation(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return models.ErrReservationNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memReservations) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memUserLists struct {
	mu     sync.Mutex
	lists  map[uuid.UUID][]primitive.ObjectID
	addErr error
}

func newMemUserLists() *memUserLists {
	return &memUserLists{lists: map[uuid.UUID][]primitive.ObjectID{}}
}

func (m *memUserLists) AddUserReservation(_ context.Context, userID uuid.UUID, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	for _, existing := range m.lists[userID] {
		if existing == id {
			return nil
		}
	}
	m.lists[userID] = append(m.lists[userID], id)
	return nil
}

func (m *memUserLists) RemoveUserReservation(_ context.Context, userID uuid.UUID, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := []primitive.ObjectID{}
	for _, existing := range m.lists[userID] {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	m.lists[userID] = kept
	return nil
}

func (m *memUserLists) of(userID uuid.UUID) []primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]primitive.ObjectID(nil), m.lists[userID]...)
}

type memShares struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]models.SharedReservation
	insertErr error
}

func newMemShares() *memShares {
	return &memShares{items: map[primitive.ObjectID]models.SharedReservation{}}
}

func cloneShare(s models.SharedReservation) models.SharedReservation {
	s.Participants = append([]models.Participant(nil), s.Participants...)
	return s
}

func (m *memShares) InsertShare(_ context.Context, s *models.SharedReservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, existing := range m.items {
		if existing.ReservationID == s.ReservationID {
			return models.ErrAlreadyShared
		}
	}
	m.items[s.ID] = cloneShare(*s)
	return nil
}

func (m *memShares) GetShare(_ context.Context, id primitive.ObjectID) (*models.SharedReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, models.ErrShareNotFound
	}
	c := cloneShare(s)
	return &c, nil
}

func (m *memShares) GetShareByReservation(_ context.Context, reservationID primitive.ObjectID) (*models.SharedReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.ReservationID == reservationID {
			c := cloneShare(s)
			return &c, nil
		}
	}
	return nil, models.ErrShareNotFound
}

func (m *memShares) ReplaceShare(_ context.Context, s *models.SharedReservation, prevVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[s.ID]
	if !ok {
		return models.ErrShareNotFound
	}
	if stored.Version != prevVersion {
		return models.ErrStaleWrite
	}
	m.items[s.ID] = cloneShare(*s)
	return nil
}

func (m *memShares) ListSharesForUser(_ context.Context, userID uuid.UUID) ([]*models.SharedReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.SharedReservation{}
	for _, s := range m.items {
		if s.CanView(userID) {
			c := cloneShare(s)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memShares) ListUnpaidShares(_ context.Context, userID uuid.UUID) ([]*models.SharedReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.SharedReservation{}
	for _, s := range m.items {
		if s.Status != models.SharePending && s.Status != models.SharePartiallyPaid {
			continue
		}
		if _, owes := s.AmountOwed(userID); owes {
			c := cloneShare(s)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memShares) CancelShareForReservation(_ context.Context, reservationID primitive.ObjectID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.items {
		if s.ReservationID == reservationID && (s.Status == models.SharePending || s.Status == models.SharePartiallyPaid) {
			s.Status = models.ShareCancelled
			s.UpdatedAt = now
			s.Version++
			m.items[id] = s
		}
	}
	return nil
}

func (m *memShares) ExpireOverdueShares(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.items {
		if (s.Status == models.SharePending || s.Status == models.SharePartiallyPaid) && !s.ExpiresAt.After(now) {
			s.Status = models.ShareExpired
			s.UpdatedAt = now
			s.Version++
			m.items[id] = s
			n++
		}
	}
	return n, nil
}

type memConnections struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Connection
}

func newMemConnections() *memConnections {
	return &memConnections{items: map[primitive.ObjectID]models.Connection{}}
}

func (m *memConnections) InsertConnection(_ context.Context, c *models.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.User1 == c.User1 && existing.User2 == c.User2 {
			return models.ErrConflict
		}
	}
	m.items[c.ID] = *c
	return nil
}

func (m *memConnections) GetConnection(_ context.Context, id primitive.ObjectID) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, models.ErrConnectionNotFound
	}
	return &c, nil
}

func (m *memConnections) UpdateConnectionStatus(_ context.Context, id primitive.ObjectID, from, to models.ConnectionStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return models.ErrConnectionNotFound
	}
	if c.Status != from {
		return models.ErrStaleWrite
	}
	c.Status = to
	c.UpdatedAt = now
	m.items[id] = c
	return nil
}

func (m *memConnections) ListConnections(_ context.Context, userID uuid.UUID, status models.ConnectionStatus) ([]*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Connection{}
	for _, c := range m.items {
		if c.Involves(userID) && (status == "" || c.Status == status) {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memConnections) DeleteConnection(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return models.ErrConnectionNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memConnections) HasAcceptedConnection(_ context.Context, a, b uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u1, u2 := models.OrderedPair(a, b)
	for _, c := range m.items {
		if c.User1 == u1 && c.User2 == u2 && c.Status == models.ConnectionAccepted {
			return true, nil
		}
	}
	return false, nil
}

// connect stores an accepted connection between a and b.
func (m *memConnections) connect(a, b uuid.UUID) {
	c, err := models.NewConnection(a, b, time.Now().UTC())
	if err != nil {
		panic(err)
	}
	c.Status = models.ConnectionAccepted
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = *c
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    []int64
	metadata []map[string]string
	err      error
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, amount)
	g.metadata = append(g.metadata, metadata)
	if currency == "" {
		currency = "usd"
	}
	return &payments.Intent{ID: "pi_test", ClientSecret: "secret", Amount: amount, Currency: currency}, nil
}

type fakeUploader struct {
	sources []string
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, sources []string, folder string) ([]string, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.sources = append(u.sources, sources...)
	out := make([]string, len(sources))
	for i := range sources {
		out[i] = "https://img.example/" + folder + "/" + sources[i]
	}
	return out, nil
}
