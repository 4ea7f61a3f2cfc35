package handlers

import (
	"bundlehub/internal/services/auth"
	"bundlehub/internal/utils/response"
	"bundlehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService   auth.Service
	walletService WalletService
	validate      *validation.Validator
}

func NewAuthHandler(authService auth.Service, walletService WalletService, validate *validation.Validator) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		walletService: walletService,
		validate:      validate,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,msisdn"`
	Password string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Register(c.UserContext(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return response.Created(c, "Registration successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return response.Success(c, "Login successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Me returns the caller's profile with the current wallet balance.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.authService.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	balance, err := h.walletService.GetBalance(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}

	return response.Success(c, "", fiber.Map{
		"user":    user,
		"balance": balance,
	})
}
