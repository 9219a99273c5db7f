package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) InsertConnection(ctx context.Context, c *Connection) error {
	col, err := mdb.GetCollection(ctx, ConnectionsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	if _, err := col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: connection already exists", ErrConflict)
		}
		return fmt.Errorf("error inserting connection: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetConnection(ctx context.Context, id primitive.ObjectID) (*Connection, error) {
	col, err := mdb.GetCollection(ctx, ConnectionsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var c Connection
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("error finding connection: %w", err)
	}
	return &c, nil
}

func (mdb *MongodbRepo) UpdateConnectionStatus(ctx context.Context, id primitive.ObjectID, from, to ConnectionStatus, now time.Time) error {
	col, err := mdb.GetCollection(ctx, ConnectionsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	update := bson.M{"$set": bson.M{"status": to, "updated_at": now}}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		return fmt.Errorf("error updating connection: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := mdb.GetConnection(ctx, id); err != nil {
			return err
		}
		return ErrStaleWrite
	}
	return nil
}

// ListConnections returns the user's connections, optionally filtered by status.
func (mdb *MongodbRepo) ListConnections(ctx context.Context, userID uuid.UUID, status ConnectionStatus) ([]*Connection, error) {
	col, err := mdb.GetCollection(ctx, ConnectionsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"$or": bson.A{bson.M{"user1": userID}, bson.M{"user2": userID}}}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding connections: %w", err)
	}
	defer cursor.Close(ctx)

	list := []*Connection{}
	for cursor.Next(ctx) {
		var c Connection
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("error decoding connection: %w", err)
		}
		list = append(list, &c)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return list, nil
}

func (mdb *MongodbRepo) DeleteConnection(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, ConnectionsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting connection: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

func (mdb *MongodbRepo) HasAcceptedConnection(ctx context.Context, a, b uuid.UUID) (bool, error) {
	col, err := mdb.GetCollection(ctx, ConnectionsColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %w", err)
	}

	// rows written before pairs were ordered may hold either orientation
	filter := bson.M{
		"status": ConnectionAccepted,
		"$or": bson.A{
			bson.M{"user1": a, "user2": b},
			bson.M{"user1": b, "user2": a},
		},
	}
	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking connection: %w", err)
	}
	return n > 0, nil
}
