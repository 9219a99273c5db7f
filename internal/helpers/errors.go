package helpers

import (
	"errors"
	"net/http"

	"github.com/joshua-takyi/staybook/internal/models"
)

// StatusFor maps an error to the HTTP status its kind stands for.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrAlreadyDone):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody builds the response envelope for err. Internal errors are not
// echoed back to the client.
func ErrorBody(err error) models.ApiResponse {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return models.KindErrorResponse("internal server error", "internal")
	}
	body := models.KindErrorResponse(err.Error(), models.ErrorKind(err))
	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		days := make([]string, 0, len(conflict.Dates))
		for _, d := range conflict.Dates {
			days = append(days, d.Format(models.DayLayout))
		}
		body.Data = map[string]interface{}{
			"room_id":           conflict.RoomID,
			"conflicting_dates": days,
		}
	}
	return body
}
