package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

// Profile is the identity provider's view of a user. Only the fields the
// booking flows read are selected.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullname"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Profile) DisplayName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Username != "":
		return p.Username
	default:
		return p.Email
	}
}

type ProfileRepo interface {
	GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*Profile, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}
