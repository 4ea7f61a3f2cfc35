// Command seed creates the admin account and the default bundle catalog.
// It is safe to run repeatedly: existing rows are left untouched.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"bundlehub/internal/config"
	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/logger"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type catalogEntry struct {
	Type     models.BundleType `json:"type"`
	Capacity int               `json:"capacity"`
	Price    decimal.Decimal   `json:"price"`
	Name     string            `json:"name"`
}

var defaultCatalog = []catalogEntry{
	{models.BundleMTNUp2U, 1000, decimal.RequireFromString("4.50"), "MTN 1GB"},
	{models.BundleMTNUp2U, 2000, decimal.RequireFromString("9.00"), "MTN 2GB"},
	{models.BundleMTNUp2U, 5000, decimal.RequireFromString("22.00"), "MTN 5GB"},
	{models.BundleMTNUp2U, 10000, decimal.RequireFromString("42.00"), "MTN 10GB"},
	{models.BundleATIShare, 1000, decimal.RequireFromString("4.00"), "AT iShare 1GB"},
	{models.BundleATIShare, 2000, decimal.RequireFromString("8.00"), "AT iShare 2GB"},
	{models.BundleATIShare, 5000, decimal.RequireFromString("19.50"), "AT iShare 5GB"},
	{models.BundleTelecel5959, 5000, decimal.RequireFromString("21.00"), "Telecel 5GB"},
	{models.BundleTelecel5959, 10000, decimal.RequireFromString("40.00"), "Telecel 10GB"},
	{models.BundleAfARegistration, 0, decimal.RequireFromString("15.00"), "AfA registration"},
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(config.GetEnv("APP_ENV", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := repositories.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = repositories.Close(db) }()

	if err := repositories.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	ctx := context.Background()
	if err := seedAdmin(ctx, db, cfg.Wallet.Currency, log); err != nil {
		return err
	}

	catalog, err := loadCatalog(config.GetEnv("BUNDLE_CATALOG", ""))
	if err != nil {
		return err
	}
	return seedBundles(ctx, repositories.NewBundleRepository(db), catalog, log)
}

func seedAdmin(ctx context.Context, db *gorm.DB, currency string, log *zap.Logger) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	phone := os.Getenv("ADMIN_PHONE")
	if email == "" || password == "" || phone == "" {
		return errors.New("ADMIN_EMAIL, ADMIN_PASSWORD, and ADMIN_PHONE must be set in environment")
	}

	users := repositories.NewUserRepository(db)
	if _, err := users.GetByEmail(ctx, email); err == nil {
		log.Info("admin user already exists", zap.String("email", email))
		return nil
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Name:     config.GetEnv("ADMIN_NAME", "Administrator"),
		Email:    email,
		Phone:    phone,
		Password: string(hashed),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := users.Create(ctx, admin, currency); err != nil {
		return err
	}
	log.Info("admin account created", zap.Uint("user_id", admin.ID))
	return nil
}

// loadCatalog reads a JSON array of bundles from path, or returns the
// built-in catalog when path is empty.
func loadCatalog(path string) ([]catalogEntry, error) {
	if path == "" {
		return defaultCatalog, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var entries []catalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for _, e := range entries {
		if !e.Type.Valid() || e.Capacity < 0 || !e.Price.IsPositive() {
			return nil, fmt.Errorf("invalid catalog entry %s %dMB", e.Type, e.Capacity)
		}
	}
	return entries, nil
}

func seedBundles(ctx context.Context, bundles repositories.BundleRepository, catalog []catalogEntry, log *zap.Logger) error {
	created := 0
	for _, e := range catalog {
		err := bundles.Create(ctx, &models.Bundle{
			Type:     e.Type,
			Capacity: e.Capacity,
			Price:    e.Price,
			Name:     e.Name,
			IsActive: true,
		})
		if errors.Is(err, apperrors.ErrDuplicateReference) {
			continue
		}
		if err != nil {
			return err
		}
		created++
	}
	log.Info("bundle catalog seeded", zap.Int("created", created), zap.Int("total", len(catalog)))
	return nil
}
