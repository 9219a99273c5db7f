package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHoldFilter(t *testing.T) {
	id := primitive.NewObjectID()
	days := DaySet([]time.Time{day("2025-07-02"), day("2025-07-01")})

	filter := holdFilter(id, days)

	// both conditions sit inside one $elemMatch so they bind to the same room number
	assert.Equal(t, bson.M{
		"room_numbers": bson.M{
			"$elemMatch": bson.M{
				"_id":               id,
				"unavailable_dates": bson.M{"$nin": []time.Time{day("2025-07-01"), day("2025-07-02")}},
			},
		},
	}, filter)
	assert.NotContains(t, filter, "room_numbers._id")

	raw, err := bson.Marshal(filter)
	require.NoError(t, err)
	nin, err := bson.Raw(raw).LookupErr("room_numbers", "$elemMatch", "unavailable_dates", "$nin")
	require.NoError(t, err)
	values, err := nin.Array().Values()
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestHoldUpdate(t *testing.T) {
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	days := []time.Time{day("2025-07-01")}

	update := holdUpdate(days, now)

	assert.Equal(t, bson.M{"room_numbers.$.unavailable_dates": bson.M{"$each": days}}, update["$addToSet"])
	assert.Equal(t, bson.M{"room_numbers.$.version": 1}, update["$inc"])
	assert.Equal(t, bson.M{"updated_at": now}, update["$set"])
	assert.Len(t, update, 3)
}

func TestReleaseUpdate(t *testing.T) {
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	days := []time.Time{day("2025-07-01"), day("2025-07-02")}

	update := releaseUpdate(days, now)

	assert.Equal(t, bson.M{"room_numbers.$.unavailable_dates": days}, update["$pullAll"])
	assert.Equal(t, bson.M{"room_numbers.$.version": 1}, update["$inc"])
	assert.Equal(t, bson.M{"updated_at": now}, update["$set"])
}
