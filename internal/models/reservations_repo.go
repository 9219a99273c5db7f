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

func (mdb *MongodbRepo) InsertReservation(ctx context.Context, r *Reservation) error {
	col, err := mdb.GetCollection(ctx, ReservationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("error inserting reservation: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetReservation(ctx context.Context, id primitive.ObjectID) (*Reservation, error) {
	col, err := mdb.GetCollection(ctx, ReservationsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var r Reservation
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("error finding reservation: %w", err)
	}
	return &r, nil
}

func (mdb *MongodbRepo) ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]*Reservation, error) {
	col, err := mdb.GetCollection(ctx, ReservationsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding reservations: %w", err)
	}
	return decodeReservations(ctx, cursor)
}

func (mdb *MongodbRepo) ListReservations(ctx context.Context, offset, limit int) ([]*Reservation, int64, error) {
	col, err := mdb.GetCollection(ctx, ReservationsColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	total, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("error counting reservations: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding reservations: %w", err)
	}
	list, err := decodeReservations(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func decodeReservations(ctx context.Context, cursor *mongo.Cursor) ([]*Reservation, error) {
	defer cursor.Close(ctx)

	list := []*Reservation{}
	for cursor.Next(ctx) {
		var r Reservation
		if err := cursor.Decode(&r); err != nil {
			return nil, fmt.Errorf("error decoding reservation: %w", err)
		}
		list = append(list, &r)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return list, nil
}

func (mdb *MongodbRepo) TransitionReservation(ctx context.Context, id primitive.ObjectID, from, to ReservationState, now time.Time) error {
	col, err := mdb.GetCollection(ctx, ReservationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{
		"_id":            id,
		"payment_status": from.Payment,
		"status":         from.Status,
	}
	update := bson.M{"$set": bson.M{
		"payment_status": to.Payment,
		"status":         to.Status,
		"updated_at":     now,
	}}

	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating reservation status: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	if _, err := mdb.GetReservation(ctx, id); err != nil {
		return err
	}
	return ErrStaleWrite
}

func (mdb *MongodbRepo) DeleteReservation(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, ReservationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting reservation: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// AddUserReservation appends the reservation id to the user's list,
// creating the list document on first use.
func (mdb *MongodbRepo) AddUserReservation(ctx context.Context, userID uuid.UUID, reservationID primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now().UTC()
	update := bson.M{
		"$addToSet":    bson.M{"reservations": reservationID},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err = col.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error adding reservation to user: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) RemoveUserReservation(ctx context.Context, userID uuid.UUID, reservationID primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	update := bson.M{
		"$pull": bson.M{"reservations": reservationID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := col.UpdateOne(ctx, bson.M{"user_id": userID}, update); err != nil {
		return fmt.Errorf("error removing reservation from user: %w", err)
	}
	return nil
}
