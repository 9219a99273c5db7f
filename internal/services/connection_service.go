package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConnectionService struct {
	connections models.ConnectionRepo
	events      models.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewConnectionService(connections models.ConnectionRepo, events models.EventPublisher, logger *slog.Logger) *ConnectionService {
	if events == nil {
		events = models.NopPublisher{}
	}
	return &ConnectionService{
		connections: connections,
		events:      events,
		logger:      logger,
		now:         utcNow,
	}
}

func (cs *ConnectionService) Request(ctx context.Context, actor models.Actor, target uuid.UUID) (*models.Connection, error) {
	now := cs.now()
	conn, err := models.NewConnection(actor.UserID, target, now)
	if err != nil {
		return nil, err
	}
	if err := cs.connections.InsertConnection(ctx, conn); err != nil {
		return nil, err
	}

	cs.logger.Info("connection requested", "connection_id", conn.ID.Hex(), "from", actor.UserID, "to", target)
	publishEvent(ctx, cs.events, cs.logger, models.ReservationEvent{
		Type:       models.EventConnectionRequested,
		Recipients: []uuid.UUID{target},
		Status:     string(conn.Status),
	}, now)
	return conn, nil
}

func (cs *ConnectionService) Respond(ctx context.Context, actor models.Actor, id primitive.ObjectID, accept bool) (*models.Connection, error) {
	conn, err := cs.connections.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	now := cs.now()
	next, err := conn.Respond(actor.UserID, accept, now)
	if err != nil {
		return nil, err
	}
	if err := cs.connections.UpdateConnectionStatus(ctx, id, conn.Status, next.Status, now); err != nil {
		return nil, err
	}
	return &next, nil
}

func (cs *ConnectionService) List(ctx context.Context, actor models.Actor, status string) ([]*models.Connection, error) {
	var filter models.ConnectionStatus
	switch models.ConnectionStatus(status) {
	case "":
	case models.ConnectionPending, models.ConnectionAccepted, models.ConnectionRejected:
		filter = models.ConnectionStatus(status)
	default:
		return nil, fmt.Errorf("%w: invalid connection status %q", models.ErrInvalidRequest, status)
	}
	return cs.connections.ListConnections(ctx, actor.UserID, filter)
}

// Remove deletes a connection. Either side may remove it.
func (cs *ConnectionService) Remove(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	conn, err := cs.connections.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	if !conn.Involves(actor.UserID) && !actor.IsAdmin {
		return fmt.Errorf("%w: you are not part of this connection", models.ErrForbidden)
	}
	return cs.connections.DeleteConnection(ctx, id)
}
