package repositories

import (
	"context"
	"fmt"

	"bundlehub/internal/models"

	"gorm.io/gorm"
)

type APILogRepository interface {
	Create(ctx context.Context, entry *models.APILog) error
}

type apiLogRepository struct {
	db *gorm.DB
}

func NewAPILogRepository(db *gorm.DB) APILogRepository {
	return &apiLogRepository{db: db}
}

func (r *apiLogRepository) Create(ctx context.Context, entry *models.APILog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write api log: %w", err)
	}
	return nil
}
