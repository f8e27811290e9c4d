package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/opitemdb/internal/domain"
)

// UserRepository implements the user repository for PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertDiscordUser inserts a user or refreshes the profile of an existing one
func (r *UserRepository) UpsertDiscordUser(ctx context.Context, u domain.User) (*domain.User, error) {
	if u.DiscordID == "" {
		return nil, fmt.Errorf("%w: discord id is required", domain.ErrInvalidInput)
	}
	if u.Role == "" {
		u.Role = domain.RoleMember
	}

	query := `
		INSERT INTO users (discord_id, username, avatar_url, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (discord_id) DO UPDATE
		SET username = EXCLUDED.username,
		    avatar_url = EXCLUDED.avatar_url,
		    role = EXCLUDED.role,
		    updated_at = NOW()
		RETURNING id::text, discord_id, username, avatar_url, role
	`
	var out domain.User
	err := r.db.QueryRow(ctx, query, u.DiscordID, u.Username, u.AvatarURL, u.Role).
		Scan(&out.ID, &out.DiscordID, &out.Username, &out.AvatarURL, &out.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &out, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	id, err := parseUserUUID(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	query := `
		SELECT id::text, discord_id, username, avatar_url, role
		FROM users
		WHERE id = $1
	`
	var u domain.User
	err = r.db.QueryRow(ctx, query, id.String()).Scan(&u.ID, &u.DiscordID, &u.Username, &u.AvatarURL, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
