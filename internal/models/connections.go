package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection links two users. User1 always sorts before User2 so a pair can
// only be stored once whichever side asked first.
type Connection struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User1         uuid.UUID          `bson:"user1" json:"user1"`
	User2         uuid.UUID          `bson:"user2" json:"user2"`
	Status        ConnectionStatus   `bson:"status" json:"status"`
	RequestSentBy uuid.UUID          `bson:"request_sent_by" json:"request_sent_by"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

type ConnectionRepo interface {
	InsertConnection(ctx context.Context, c *Connection) error
	GetConnection(ctx context.Context, id primitive.ObjectID) (*Connection, error)
	UpdateConnectionStatus(ctx context.Context, id primitive.ObjectID, from, to ConnectionStatus, now time.Time) error
	ListConnections(ctx context.Context, userID uuid.UUID, status ConnectionStatus) ([]*Connection, error)
	DeleteConnection(ctx context.Context, id primitive.ObjectID) error
	HasAcceptedConnection(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// OrderedPair returns a and b in storage order.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

func NewConnection(from, to uuid.UUID, now time.Time) (*Connection, error) {
	if from == uuid.Nil || to == uuid.Nil {
		return nil, fmt.Errorf("%w: both users are required", ErrInvalidRequest)
	}
	if from == to {
		return nil, fmt.Errorf("%w: cannot connect with yourself", ErrInvalidRequest)
	}
	u1, u2 := OrderedPair(from, to)
	return &Connection{
		ID:            primitive.NewObjectID(),
		User1:         u1,
		User2:         u2,
		Status:        ConnectionPending,
		RequestSentBy: from,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (c Connection) Involves(userID uuid.UUID) bool {
	return c.User1 == userID || c.User2 == userID
}

// Other returns the user on the far side of the connection from userID.
func (c Connection) Other(userID uuid.UUID) uuid.UUID {
	if c.User1 == userID {
		return c.User2
	}
	return c.User1
}

// Respond accepts or rejects a pending request. Only the recipient may answer.
func (c Connection) Respond(responder uuid.UUID, accept bool, now time.Time) (Connection, error) {
	if !c.Involves(responder) || c.RequestSentBy == responder {
		return c, fmt.Errorf("%w: only the recipient can respond to this request", ErrForbidden)
	}
	if c.Status != ConnectionPending {
		return c, fmt.Errorf("%w: request was already %s", ErrAlreadyDone, c.Status)
	}
	c.Status = ConnectionRejected
	if accept {
		c.Status = ConnectionAccepted
	}
	c.UpdatedAt = now
	return c, nil
}
