package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateRoomType(ctx context.Context, room *RoomType) (*RoomType, error) {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	if _, err := col.InsertOne(ctx, room); err != nil {
		return nil, fmt.Errorf("error inserting room type: %w", err)
	}
	return room, nil
}

func (mdb *MongodbRepo) GetRoomType(ctx context.Context, id primitive.ObjectID) (*RoomType, error) {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var room RoomType
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("error finding room type: %w", err)
	}
	return &room, nil
}

func (mdb *MongodbRepo) ListRoomTypesByHotel(ctx context.Context, hotelID primitive.ObjectID) ([]*RoomType, error) {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "price_per_night", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{"hotel_id": hotelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding room types: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []*RoomType{}
	for cursor.Next(ctx) {
		var room RoomType
		if err := cursor.Decode(&room); err != nil {
			return nil, fmt.Errorf("error decoding room type: %w", err)
		}
		rooms = append(rooms, &room)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return rooms, nil
}

func (mdb *MongodbRepo) UpdateRoomType(ctx context.Context, id primitive.ObjectID, update RoomTypeUpdate) (*RoomType, error) {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.PricePerNight != nil {
		set["price_per_night"] = *update.PricePerNight
	}
	if update.MaxOccupants != nil {
		set["max_occupants"] = *update.MaxOccupants
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room RoomType
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("error updating room type: %w", err)
	}
	return &room, nil
}

func (mdb *MongodbRepo) DeleteRoomType(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting room type: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// HasBookableRoom reports whether the hotel owns a room type with at least one room number.
func (mdb *MongodbRepo) HasBookableRoom(ctx context.Context, hotelID primitive.ObjectID) (bool, error) {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{
		"hotel_id":       hotelID,
		"room_numbers.0": bson.M{"$exists": true},
	}
	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error counting room types: %w", err)
	}
	return n > 0, nil
}

func (mdb *MongodbRepo) FindRoomNumber(ctx context.Context, roomNumberID primitive.ObjectID) (*RoomType, *RoomNumber, error) {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting collection: %w", err)
	}

	var room RoomType
	if err := col.FindOne(ctx, bson.M{"room_numbers._id": roomNumberID}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, fmt.Errorf("error finding room number: %w", err)
	}

	rn := room.RoomNumberByID(roomNumberID)
	if rn == nil {
		return nil, nil, ErrRoomNotFound
	}
	return &room, rn, nil
}

func (mdb *MongodbRepo) ReplaceUnavailableDates(ctx context.Context, roomNumberID primitive.ObjectID, days []time.Time) (*RoomNumber, error) {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"room_numbers.$.unavailable_dates": DaySet(days),
			"updated_at":                       time.Now().UTC(),
		},
		"$inc": bson.M{"room_numbers.$.version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room RoomType
	err = col.FindOneAndUpdate(ctx, bson.M{"room_numbers._id": roomNumberID}, update, opts).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("error replacing unavailable dates: %w", err)
	}
	return room.RoomNumberByID(roomNumberID), nil
}

const holdAttempts = 3

// holdFilter matches the room type only while the room number holds none of
// days. $elemMatch keeps both conditions on the same array element, so the
// positional $ in holdUpdate points at that room number.
func holdFilter(roomNumberID primitive.ObjectID, days []time.Time) bson.M {
	return bson.M{
		"room_numbers": bson.M{
			"$elemMatch": bson.M{
				"_id":               roomNumberID,
				"unavailable_dates": bson.M{"$nin": days},
			},
		},
	}
}

func holdUpdate(days []time.Time, now time.Time) bson.M {
	return bson.M{
		"$addToSet": bson.M{"room_numbers.$.unavailable_dates": bson.M{"$each": days}},
		"$inc":      bson.M{"room_numbers.$.version": 1},
		"$set":      bson.M{"updated_at": now},
	}
}

func releaseUpdate(days []time.Time, now time.Time) bson.M {
	return bson.M{
		"$pullAll": bson.M{"room_numbers.$.unavailable_dates": days},
		"$inc":     bson.M{"room_numbers.$.version": 1},
		"$set":     bson.M{"updated_at": now},
	}
}

// HoldDates adds days to the room number's calendar only if none of them is
// already held. The check and the write are one document update.
func (mdb *MongodbRepo) HoldDates(ctx context.Context, roomNumberID primitive.ObjectID, days []time.Time) error {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	days = DaySet(days)
	filter := holdFilter(roomNumberID, days)
	update := holdUpdate(days, time.Now().UTC())

	for attempt := 0; attempt < holdAttempts; attempt++ {
		res, err := col.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("error holding dates: %w", err)
		}
		if res.MatchedCount == 1 {
			return nil
		}

		// Nothing matched: either the room number is gone or a day is taken.
		_, rn, err := mdb.FindRoomNumber(ctx, roomNumberID)
		if err != nil {
			return err
		}
		if conflicts := rn.Conflicts(days); len(conflicts) > 0 {
			return &ConflictError{RoomID: roomNumberID.Hex(), Dates: conflicts}
		}
		// released between the update and the read, try again
	}
	return fmt.Errorf("%w: room %s calendar kept changing", ErrConflict, roomNumberID.Hex())
}

func (mdb *MongodbRepo) ReleaseDates(ctx context.Context, roomNumberID primitive.ObjectID, days []time.Time) error {
	col, err := mdb.GetCollection(ctx, RoomsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	update := releaseUpdate(DaySet(days), time.Now().UTC())
	res, err := col.UpdateOne(ctx, bson.M{"room_numbers._id": roomNumberID}, update)
	if err != nil {
		return fmt.Errorf("error releasing dates: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}
