package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ShareReservation(ss *services.SharedReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var req services.ShareReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		reservationID, err := primitive.ObjectIDFromHex(helpers.StringTrim(req.ReservationID))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid reservation ID format"))
			return
		}
		participants := make([]uuid.UUID, 0, len(req.ParticipantIDs))
		for _, raw := range req.ParticipantIDs {
			id, err := uuid.Parse(helpers.StringTrim(raw))
			if err != nil {
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid participant ID: "+raw))
				return
			}
			participants = append(participants, id)
		}

		share, err := ss.Create(c.Request.Context(), actor, reservationID, participants)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(share, "Reservation shared successfully"))
	}
}

func ListSharedReservations(ss *services.SharedReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		shares, err := ss.List(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(shares, ""))
	}
}

func ListUnpaidShares(ss *services.SharedReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		shares, err := ss.ListUnpaid(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(shares, ""))
	}
}

func GetSharedReservation(ss *services.SharedReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "shared reservation")
		if !ok {
			return
		}
		share, err := ss.Get(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(share, ""))
	}
}

// RecordSharePayment marks the caller's portion of a split payment as paid.
func RecordSharePayment(ss *services.SharedReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "sharedReservationId", "shared reservation")
		if !ok {
			return
		}
		share, err := ss.RecordPayment(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(share, "Payment recorded"))
	}
}
