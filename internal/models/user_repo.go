package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

const ProfileTable = "profiles"

func (su *SupabaseRepo) GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrInvalidRequest)
	}

	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated client: %w", err)
		}
		client = authClient
	}
	if client == nil {
		return nil, fmt.Errorf("%w: supabase client is not initialized", ErrUpstream)
	}

	raw, status, err := client.From(ProfileTable).
		Select("id,email,username,fullname,role,created_at", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("%w: postgrest status=%d body=%s: %v", ErrUpstream, status, string(raw), err)
		}
		return nil, fmt.Errorf("%w: failed to get profile: %v", ErrUpstream, err)
	}

	// Supabase returns an array even for single results
	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile rows: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}
	return &profiles[0], nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if su.supabaseClient == nil {
		return nil, fmt.Errorf("%w: supabase client is not initialized", ErrUpstream)
	}
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to refresh token: %v", ErrUpstream, err)
	}
	return resp, nil
}
