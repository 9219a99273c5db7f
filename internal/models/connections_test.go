package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnection_OrdersPair(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ab, err := NewConnection(a, b, testNow)
	require.NoError(t, err)
	ba, err := NewConnection(b, a, testNow)
	require.NoError(t, err)

	assert.Equal(t, ab.User1, ba.User1)
	assert.Equal(t, ab.User2, ba.User2)
	assert.Less(t, ab.User1.String(), ab.User2.String())
	assert.Equal(t, a, ab.RequestSentBy)
	assert.Equal(t, b, ba.RequestSentBy)
	assert.Equal(t, ConnectionPending, ab.Status)
}

func TestNewConnection_Invalid(t *testing.T) {
	a := uuid.New()

	_, err := NewConnection(a, a, testNow)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewConnection(a, uuid.Nil, testNow)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestConnection_Respond(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	c, err := NewConnection(from, to, testNow)
	require.NoError(t, err)

	_, err = c.Respond(from, true, testNow)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = c.Respond(uuid.New(), true, testNow)
	assert.ErrorIs(t, err, ErrForbidden)

	accepted, err := c.Respond(to, true, testNow)
	require.NoError(t, err)
	assert.Equal(t, ConnectionAccepted, accepted.Status)
	assert.Equal(t, ConnectionPending, c.Status)

	_, err = accepted.Respond(to, false, testNow)
	assert.ErrorIs(t, err, ErrAlreadyDone)

	rejected, err := c.Respond(to, false, testNow)
	require.NoError(t, err)
	assert.Equal(t, ConnectionRejected, rejected.Status)
}

func TestConnection_Other(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c, err := NewConnection(a, b, testNow)
	require.NoError(t, err)

	assert.Equal(t, b, c.Other(a))
	assert.Equal(t, a, c.Other(b))
	assert.True(t, c.Involves(a))
	assert.False(t, c.Involves(uuid.New()))
}
