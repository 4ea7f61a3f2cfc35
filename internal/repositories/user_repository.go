package repositories

import (
	"context"

	"bundlehub/internal/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	// Create inserts the user together with an empty wallet
	Create(ctx context.Context, user *models.User, currency string) error

	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id uint) (*models.User, error)

	// GetByEmail retrieves a user by their email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByAPIKey retrieves an active user owning the API key
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)

	// SetAPIKey stores or clears (nil) the user's API key
	SetAPIKey(ctx context.Context, userID uint, apiKey *string) error
}
