package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-service/internal/api/dto"
	"github.com/spec-kit/restaurant-service/internal/auth"
	"github.com/spec-kit/restaurant-service/internal/service"
	"github.com/spec-kit/restaurant-service/internal/validation"
)

// AuthHandler exposes login and refresh endpoints for staff.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	staff, pair, err := h.auth.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": fiber.Map{
				"id":    staff.ID,
				"name":  staff.Name,
				"email": staff.Email,
				"role":  staff.Role,
			},
			"auth": dto.TokenPairResponse{
				AccessToken:      pair.AccessToken,
				AccessExpiresAt:  pair.AccessExpiresAt,
				RefreshToken:     pair.RefreshToken,
				RefreshExpiresAt: pair.RefreshExpiresAt,
			},
		},
	})
}

// RefreshToken handles GET /auth/refresh-token with a refresh bearer token.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}

	accessToken, expiresAt, err := h.auth.Refresh(c.Context(), token, auth.AudienceStaffRefresh)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AccessTokenResponse{AccessToken: accessToken, ExpiresAt: expiresAt},
	})
}

// Me handles GET /auth/me for the authenticated staff member.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	staff := principal.Staff
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id":            staff.ID,
			"name":          staff.Name,
			"email":         staff.Email,
			"role":          staff.Role,
			"restaurant_id": staff.RestaurantID,
			"status":        staff.Status,
		},
	})
}
