package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the stores rely on for uniqueness and lookups.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	plan := map[string][]mongo.IndexModel{
		RoomsColName: {
			{
				Keys:    bson.D{{Key: "room_numbers._id", Value: 1}},
				Options: options.Index().SetName("room_number_id_idx"),
			},
			{
				Keys:    bson.D{{Key: "hotel_id", Value: 1}},
				Options: options.Index().SetName("hotel_id_idx"),
			},
		},
		ReservationsColName: {
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("user_created_idx"),
			},
		},
		// one share per reservation
		SharedReservationsColName: {
			{
				Keys:    bson.D{{Key: "reservation_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("reservation_unique"),
			},
			{
				Keys:    bson.D{{Key: "participants.user_id", Value: 1}},
				Options: options.Index().SetName("participant_idx"),
			},
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "expires_at", Value: 1},
				},
				Options: options.Index().SetName("status_expires_idx"),
			},
		},
		UsersColName: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("user_id_unique"),
			},
		},
		ConnectionsColName: {
			{
				Keys: bson.D{
					{Key: "user1", Value: 1},
					{Key: "user2", Value: 1},
				},
				Options: options.Index().SetUnique(true).SetName("pair_unique"),
			},
			{
				Keys:    bson.D{{Key: "user2", Value: 1}},
				Options: options.Index().SetName("user2_idx"),
			},
		},
	}

	for name, indexes := range plan {
		col, err := mdb.GetCollection(ctx, name)
		if err != nil {
			return fmt.Errorf("error getting collection: %w", err)
		}
		if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("error creating %s indexes: %w", name, err)
		}
	}
	return nil
}
