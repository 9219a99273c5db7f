package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSharedReservation(t *testing.T) {
	creator, a, b := uuid.New(), uuid.New(), uuid.New()
	r := newTestReservation(t, creator, "2025-06-01", "2025-06-03")

	s, err := NewSharedReservation(r, creator, []uuid.UUID{a, b}, testNow)
	require.NoError(t, err)

	assert.Equal(t, r.ID, s.ReservationID)
	assert.Equal(t, SharePending, s.Status)
	assert.Equal(t, 300.0, s.TotalAmount)
	assert.Equal(t, 100.0, s.AmountPerUser)
	assert.Equal(t, testNow.Add(ShareTTL), s.ExpiresAt)
	require.Len(t, s.Participants, 3)
	assert.Equal(t, creator, s.Participants[2].UserID, "creator is appended last")
	for _, p := range s.Participants {
		assert.False(t, p.HasPaid)
		assert.Equal(t, 100.0, p.AmountToPay)
	}
}

func TestNewSharedReservation_NoParticipants(t *testing.T) {
	creator := uuid.New()
	r := newTestReservation(t, creator, "2025-06-01", "2025-06-03")

	_, err := NewSharedReservation(r, creator, nil, testNow)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSharedReservation_RecordPayment(t *testing.T) {
	creator, friend := uuid.New(), uuid.New()
	r := newTestReservation(t, creator, "2025-06-01", "2025-06-03")
	s, err := NewSharedReservation(r, creator, []uuid.UUID{friend}, testNow)
	require.NoError(t, err)

	paidAt := testNow.Add(time.Hour)
	first, err := s.RecordPayment(friend, paidAt)
	require.NoError(t, err)
	assert.Equal(t, SharePartiallyPaid, first.Status)
	assert.True(t, first.Participants[0].HasPaid)
	require.NotNil(t, first.Participants[0].PaymentDate)
	assert.Equal(t, paidAt, *first.Participants[0].PaymentDate)
	assert.False(t, s.Participants[0].HasPaid, "receiver must not change")
	assert.Equal(t, s.Version+1, first.Version)

	owed, ok := first.AmountOwed(friend)
	assert.False(t, ok)
	assert.Zero(t, owed)
	owed, ok = first.AmountOwed(creator)
	assert.True(t, ok)
	assert.Equal(t, 150.0, owed)

	_, err = first.RecordPayment(friend, paidAt)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	second, err := first.RecordPayment(creator, paidAt)
	require.NoError(t, err)
	assert.Equal(t, ShareConfirmed, second.Status)
	assert.True(t, second.AllPaid())
	assert.False(t, second.Open(paidAt))
}

func TestSharedReservation_RecordPayment_Rejections(t *testing.T) {
	creator, friend := uuid.New(), uuid.New()
	r := newTestReservation(t, creator, "2025-06-01", "2025-06-03")
	s, err := NewSharedReservation(r, creator, []uuid.UUID{friend}, testNow)
	require.NoError(t, err)

	_, err = s.RecordPayment(uuid.New(), testNow)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.RecordPayment(friend, s.ExpiresAt)
	assert.ErrorIs(t, err, ErrShareClosed)

	cancelled := *s
	cancelled.Status = ShareCancelled
	_, err = cancelled.RecordPayment(friend, testNow)
	assert.ErrorIs(t, err, ErrShareClosed)
}

func TestSharedReservation_Access(t *testing.T) {
	creator, friend := uuid.New(), uuid.New()
	r := newTestReservation(t, creator, "2025-06-01", "2025-06-03")
	s, err := NewSharedReservation(r, creator, []uuid.UUID{friend}, testNow)
	require.NoError(t, err)

	assert.True(t, s.CanView(creator))
	assert.True(t, s.CanView(friend))
	assert.False(t, s.CanView(uuid.New()))
	assert.True(t, s.Open(testNow))
	assert.False(t, s.Open(testNow.Add(ShareTTL)))
}
