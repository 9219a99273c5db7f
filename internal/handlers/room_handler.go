package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/joshua-takyi/staybook/internal/services"
)

func CreateRoomType(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		var req services.CreateRoomTypeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		room, err := rs.CreateRoomType(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(room, "Room type created successfully"))
	}
}

func GetRoomType(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id", "room")
		if !ok {
			return
		}
		room, err := rs.GetRoomType(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(room, ""))
	}
}

func UpdateRoomType(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "room")
		if !ok {
			return
		}
		var update models.RoomTypeUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		room, err := rs.UpdateRoomType(c.Request.Context(), id, update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(room, "Room type updated successfully"))
	}
}

func DeleteRoomType(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "room")
		if !ok {
			return
		}
		if err := rs.DeleteRoomType(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Room type deleted successfully"))
	}
}

type availabilityRequest struct {
	UnavailableDates []string `json:"unavailable_dates" binding:"required"`
}

// SetRoomAvailability replaces a room number's unavailable dates.
func SetRoomAvailability(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		id, ok := objectIDParam(c, "roomNumberId", "room number")
		if !ok {
			return
		}
		var req availabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		rn, err := rs.SetUnavailableDates(c.Request.Context(), id, req.UnavailableDates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(rn, "Room availability updated"))
	}
}

func GetRoomCalendar(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "roomNumberId", "room number")
		if !ok {
			return
		}
		now := time.Now().UTC()
		year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid year parameter"))
			return
		}
		month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid month parameter"))
			return
		}

		cal, err := rs.Calendar(c.Request.Context(), id, year, time.Month(month))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(cal, ""))
	}
}

func ListHotelRooms(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		hotelID, ok := objectIDParam(c, "hotelId", "hotel")
		if !ok {
			return
		}
		rooms, err := rs.ListByHotel(c.Request.Context(), hotelID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(rooms, ""))
	}
}

func HotelBookable(rs *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		hotelID, ok := objectIDParam(c, "hotelId", "hotel")
		if !ok {
			return
		}
		bookable, err := rs.HasBookableRoom(c.Request.Context(), hotelID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"bookable": bookable}, ""))
	}
}
