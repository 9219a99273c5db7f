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

var activeShareStatuses = []ShareStatus{SharePending, SharePartiallyPaid}

func (mdb *MongodbRepo) InsertShare(ctx context.Context, s *SharedReservation) error {
	col, err := mdb.GetCollection(ctx, SharedReservationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	if _, err := col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyShared
		}
		return fmt.Errorf("error inserting shared reservation: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) findShare(ctx context.Context, filter bson.M) (*SharedReservation, error) {
	col, err := mdb.GetCollection(ctx, SharedReservationsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var s SharedReservation
	if err := col.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("error finding shared reservation: %w", err)
	}
	return &s, nil
}

func (mdb *MongodbRepo) GetShare(ctx context.Context, id primitive.ObjectID) (*SharedReservation, error) {
	return mdb.findShare(ctx, bson.M{"_id": id})
}

func (mdb *MongodbRepo) GetShareByReservation(ctx context.Context, reservationID primitive.ObjectID) (*SharedReservation, error) {
	return mdb.findShare(ctx, bson.M{"reservation_id": reservationID})
}

func (mdb *MongodbRepo) ReplaceShare(ctx context.Context, s *SharedReservation, prevVersion int64) error {
	col, err := mdb.GetCollection(ctx, SharedReservationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.ReplaceOne(ctx, bson.M{"_id": s.ID, "version": prevVersion}, s)
	if err != nil {
		return fmt.Errorf("error updating shared reservation: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := mdb.GetShare(ctx, s.ID); err != nil {
		return err
	}
	return ErrStaleWrite
}

func (mdb *MongodbRepo) listShares(ctx context.Context, filter bson.M) ([]*SharedReservation, error) {
	col, err := mdb.GetCollection(ctx, SharedReservationsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding shared reservations: %w", err)
	}
	defer cursor.Close(ctx)

	shares := []*SharedReservation{}
	for cursor.Next(ctx) {
		var s SharedReservation
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("error decoding shared reservation: %w", err)
		}
		shares = append(shares, &s)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return shares, nil
}

func (mdb *MongodbRepo) ListSharesForUser(ctx context.Context, userID uuid.UUID) ([]*SharedReservation, error) {
	return mdb.listShares(ctx, bson.M{"$or": bson.A{
		bson.M{"created_by": userID},
		bson.M{"participants.user_id": userID},
	}})
}

func (mdb *MongodbRepo) ListUnpaidShares(ctx context.Context, userID uuid.UUID) ([]*SharedReservation, error) {
	return mdb.listShares(ctx, bson.M{
		"participants": bson.M{"$elemMatch": bson.M{"user_id": userID, "has_paid": false}},
		"status":       bson.M{"$in": activeShareStatuses},
	})
}

func (mdb *MongodbRepo) CancelShareForReservation(ctx context.Context, reservationID primitive.ObjectID, now time.Time) error {
	col, err := mdb.GetCollection(ctx, SharedReservationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{
		"reservation_id": reservationID,
		"status":         bson.M{"$in": activeShareStatuses},
	}
	update := bson.M{
		"$set": bson.M{"status": ShareCancelled, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}
	if _, err := col.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("error cancelling shared reservation: %w", err)
	}
	return nil
}

// ExpireOverdueShares marks every unsettled share past its deadline as expired.
func (mdb *MongodbRepo) ExpireOverdueShares(ctx context.Context, now time.Time) (int64, error) {
	col, err := mdb.GetCollection(ctx, SharedReservationsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{
		"status":     bson.M{"$in": activeShareStatuses},
		"expires_at": bson.M{"$lte": now},
	}
	update := bson.M{
		"$set": bson.M{"status": ShareExpired, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}
	res, err := col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("error expiring shared reservations: %w", err)
	}
	return res.ModifiedCount, nil
}
