package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/services"
)

type connectionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type respondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

func RequestConnection(cs *services.ConnectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var req connectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		target, err := uuid.Parse(helpers.StringTrim(req.UserID))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid user ID format"))
			return
		}

		conn, err := cs.Request(c.Request.Context(), actor, target)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(conn, "Connection request sent"))
	}
}

func RespondConnection(cs *services.ConnectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "connection")
		if !ok {
			return
		}
		var req respondRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		conn, err := cs.Respond(c.Request.Context(), actor, id, *req.Accept)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(conn, ""))
	}
}

func ListConnections(cs *services.ConnectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		conns, err := cs.List(c.Request.Context(), actor, c.Query("status"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(conns, ""))
	}
}

func RemoveConnection(cs *services.ConnectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id", "connection")
		if !ok {
			return
		}
		if err := cs.Remove(c.Request.Context(), actor, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Connection removed"))
	}
}
