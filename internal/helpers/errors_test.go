package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrReservationNotFound, http.StatusNotFound},
		{fmt.Errorf("get: %w", models.ErrForbidden), http.StatusForbidden},
		{models.ErrAlreadyShared, http.StatusConflict},
		{&models.ConflictError{RoomID: "r"}, http.StatusConflict},
		{models.ErrInvalidTransition, http.StatusBadRequest},
		{models.ErrAlreadyPaid, http.StatusBadRequest},
		{models.ErrUpstream, http.StatusBadGateway},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestErrorBody_HidesInternalErrors(t *testing.T) {
	body := ErrorBody(errors.New("mongo: connection refused on 10.0.0.3"))

	assert.False(t, body.Success)
	assert.Equal(t, "internal server error", body.Error)
	assert.Equal(t, "internal", body.Kind)
	assert.Nil(t, body.Data)
}

func TestErrorBody_Conflict(t *testing.T) {
	err := fmt.Errorf("hold: %w", &models.ConflictError{
		RoomID: "room-1",
		Dates: []time.Time{
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		},
	})

	body := ErrorBody(err)

	assert.Equal(t, "conflict", body.Kind)
	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "room-1", data["room_id"])
	assert.Equal(t, []string{"2025-07-01", "2025-07-02"}, data["conflicting_dates"])
}

func TestErrorBody_KindOnly(t *testing.T) {
	body := ErrorBody(models.ErrShareClosed)

	assert.Equal(t, "invalid_request", body.Kind)
	assert.Equal(t, models.ErrShareClosed.Error(), body.Error)
	assert.Nil(t, body.Data)
}
