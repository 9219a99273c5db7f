package helpers

import (
	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/models"
)

type EnhancedClaims struct {
	*CustomClaims
	Role     string `json:"role"`
	UserID   string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Fullname string `json:"fullname,omitempty"`
}

// Helper methods for role checking
func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Role == "admin"
}

func (ec *EnhancedClaims) HasRole(role string) bool {
	return ec.Role == role
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}

func (ec *EnhancedClaims) GetSafeRole() string {
	if ec.Role == "" {
		return "guest"
	}
	return ec.Role
}

// Actor converts the claims into the caller identity services work with.
func (ec *EnhancedClaims) Actor() (models.Actor, error) {
	id, err := uuid.Parse(ec.UserID)
	if err != nil {
		return models.Actor{}, err
	}
	return models.Actor{UserID: id, IsAdmin: ec.IsAdmin()}, nil
}
