package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User, currency string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Wallet").Create(user).Error; err != nil {
			if isDuplicateKey(err) {
				return apperrors.ErrEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		wallet := &models.Wallet{UserID: user.ID, Currency: currency}
		if err := tx.Create(wallet).Error; err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		user.Wallet = wallet
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *userRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	user, err := r.findOne(r.db.WithContext(ctx).Where("api_key = ? AND is_active = ?", apiKey, true))
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, apperrors.ErrInvalidAPIKey
	}
	return user, err
}

func (r *userRepository) SetAPIKey(ctx context.Context, userID uint, apiKey *string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("api_key", apiKey)
	if result.Error != nil {
		return fmt.Errorf("failed to update api key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) findOne(q *gorm.DB) (*models.User, error) {
	var user models.User
	if err := q.Preload("Wallet").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
