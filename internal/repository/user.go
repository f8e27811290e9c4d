package repository

import (
	"context"

	"github.com/osse101/opitemdb/internal/domain"
)

// User defines the interface for user persistence
type User interface {
	// UpsertDiscordUser creates or updates the user with u.DiscordID and returns the stored record
	UpsertDiscordUser(ctx context.Context, u domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}
