// Package auth registers and logs in users and manages developer API keys.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"
	"bundlehub/internal/repositories"
	"bundlehub/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyPrefix = "bh_"

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GenerateAPIKey(ctx context.Context, userID uint) (string, error)
	RevokeAPIKey(ctx context.Context, userID uint) error
	MaskedAPIKey(ctx context.Context, userID uint) (string, error)
	ResolveAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	Currency  string
}

type service struct {
	users repositories.UserRepository
	cfg   Config
	log   *zap.Logger
}

func NewService(users repositories.UserRepository, cfg Config, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Currency == "" {
		cfg.Currency = models.DefaultCurrency
	}
	return &service{users: users, cfg: cfg, log: log}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.New("failed to hash password")
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:    strings.TrimSpace(input.Phone),
		Password: string(hashed),
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user, s.cfg.Currency); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, s.cfg.TokenTTL, user)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID))
	return user, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.log.Info("login failed: unknown email")
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.Info("login failed: incorrect password", zap.Uint("user_id", user.ID))
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidCredentials, "account is disabled")
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, s.cfg.TokenTTL, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GenerateAPIKey issues a new key, replacing any previous one.
func (s *service) GenerateAPIKey(ctx context.Context, userID uint) (string, error) {
	key := apiKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.users.SetAPIKey(ctx, userID, &key); err != nil {
		return "", err
	}
	s.log.Info("api key generated", zap.Uint("user_id", userID))
	return key, nil
}

func (s *service) RevokeAPIKey(ctx context.Context, userID uint) error {
	if err := s.users.SetAPIKey(ctx, userID, nil); err != nil {
		return err
	}
	s.log.Info("api key revoked", zap.Uint("user_id", userID))
	return nil
}

func (s *service) MaskedAPIKey(ctx context.Context, userID uint) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.APIKey == nil || *user.APIKey == "" {
		return "", apperrors.ErrAPIKeyNotFound
	}
	return utils.MaskSecret(*user.APIKey), nil
}

func (s *service) ResolveAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	if !strings.HasPrefix(apiKey, apiKeyPrefix) {
		return nil, apperrors.ErrInvalidAPIKey
	}
	return s.users.GetByAPIKey(ctx, apiKey)
}
