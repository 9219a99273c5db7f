package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/services"
)

func CreateReservation(rs *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var req services.CreateReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		reservation, err := rs.Create(c.Request.Context(), actor, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(reservation, "Reservation created successfully"))
	}
}

func GetReservation(rs *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "reservation")
		if !ok {
			return
		}

		reservation, err := rs.Get(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(reservation, ""))
	}
}

func ListUserReservations(rs *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		userID, err := uuid.Parse(helpers.StringTrim(c.Param("userId")))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid user ID format"))
			return
		}

		reservations, err := rs.ListForUser(c.Request.Context(), actor, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(reservations, ""))
	}
}

func CancelReservation(rs *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "reservation")
		if !ok {
			return
		}

		if err := rs.Cancel(c.Request.Context(), actor, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Reservation cancelled successfully"))
	}
}

func PayReservation(rs *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "reservation")
		if !ok {
			return
		}

		reservation, err := rs.Pay(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(reservation, "Payment recorded"))
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func UpdateReservationStatus(rs *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireAdmin(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "reservation")
		if !ok {
			return
		}
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		reservation, err := rs.UpdateStatus(c.Request.Context(), actor, id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(reservation, "Reservation status updated"))
	}
}

func ListAllReservations(rs *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireAdmin(c)
		if !ok {
			return
		}
		offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid offset parameter"))
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid limit parameter"))
			return
		}

		reservations, total, err := rs.ListAll(c.Request.Context(), actor, offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		if limit == 0 || limit > 100 {
			limit = 20
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(reservations, offset/limit+1, limit, int(total)))
	}
}

// CreateReservationIntent starts a card payment for what the caller owes on
// a reservation.
func CreateReservationIntent(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "reservation")
		if !ok {
			return
		}

		intent, err := ps.CreateReservationIntent(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(intent, ""))
	}
}
