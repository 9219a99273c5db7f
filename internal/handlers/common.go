package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentActor reads the caller set by the auth middleware. It writes the
// error response itself and returns false when there is none.
func currentActor(c *gin.Context) (models.Actor, bool) {
	userClaims, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return models.Actor{}, false
	}
	claims, ok := userClaims.(*helpers.EnhancedClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("invalid user claims"))
		return models.Actor{}, false
	}
	actor, err := claims.Actor()
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid user ID in token"))
		return models.Actor{}, false
	}
	return actor, true
}

func requireAdmin(c *gin.Context) (models.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		return actor, false
	}
	if !actor.IsAdmin {
		c.JSON(http.StatusForbidden, models.KindErrorResponse("admin access required", "forbidden"))
		return actor, false
	}
	return actor, true
}

func objectIDParam(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	raw := helpers.StringTrim(c.Param(name))
	if raw == "" {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(label+" ID is required"))
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid "+label+" ID format"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondError writes the envelope for err. Unexpected errors are also
// attached to the context so the error middleware logs them.
func respondError(c *gin.Context, err error) {
	status := helpers.StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, helpers.ErrorBody(err))
}
