package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"

	"gorm.io/gorm"
)

// BundleRepository is the bundle catalog. Prices are only ever read from here.
type BundleRepository interface {
	FindActive(ctx context.Context, bundleType models.BundleType, capacity int) (*models.Bundle, error)
	GetByID(ctx context.Context, id uint) (*models.Bundle, error)
	List(ctx context.Context, bundleType models.BundleType, activeOnly bool) ([]models.Bundle, error)
	Create(ctx context.Context, bundle *models.Bundle) error
	Update(ctx context.Context, bundle *models.Bundle) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type bundleRepository struct {
	db *gorm.DB
}

func NewBundleRepository(db *gorm.DB) BundleRepository {
	return &bundleRepository{db: db}
}

func (r *bundleRepository) FindActive(ctx context.Context, bundleType models.BundleType, capacity int) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Where("type = ? AND capacity = ? AND is_active = ?", bundleType, capacity, true).
		First(&bundle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to find bundle: %w", err)
	}
	return &bundle, nil
}

func (r *bundleRepository) GetByID(ctx context.Context, id uint) (*models.Bundle, error) {
	var bundle models.Bundle
	if err := r.db.WithContext(ctx).First(&bundle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to get bundle: %w", err)
	}
	return &bundle, nil
}

func (r *bundleRepository) List(ctx context.Context, bundleType models.BundleType, activeOnly bool) ([]models.Bundle, error) {
	q := r.db.WithContext(ctx).Model(&models.Bundle{})
	if bundleType != "" {
		q = q.Where("type = ?", bundleType)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var bundles []models.Bundle
	if err := q.Order("type ASC").Order("capacity ASC").Find(&bundles).Error; err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	return bundles, nil
}

func (r *bundleRepository) Create(ctx context.Context, bundle *models.Bundle) error {
	if err := r.db.WithContext(ctx).Create(bundle).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.WithMessage(apperrors.ErrDuplicateReference,
				"bundle %s %dMB already exists", bundle.Type, bundle.Capacity)
		}
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	return nil
}

func (r *bundleRepository) Update(ctx context.Context, bundle *models.Bundle) error {
	result := r.db.WithContext(ctx).Model(bundle).Select("price", "name", "is_active", "updated_at").Updates(bundle)
	if result.Error != nil {
		return fmt.Errorf("failed to update bundle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBundleNotFound
	}
	return nil
}

func (r *bundleRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Bundle{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update bundle status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBundleNotFound
	}
	return nil
}
