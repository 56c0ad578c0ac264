package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-service/internal/api/dto"
	"github.com/spec-kit/restaurant-service/internal/auth"
	"github.com/spec-kit/restaurant-service/internal/service"
	"github.com/spec-kit/restaurant-service/internal/validation"
)

// CustomerAuthHandler exposes phone-based login endpoints for customers.
type CustomerAuthHandler struct {
	auth *service.AuthService
}

// NewCustomerAuthHandler constructs handler.
func NewCustomerAuthHandler(authService *service.AuthService) *CustomerAuthHandler {
	return &CustomerAuthHandler{auth: authService}
}

// Login handles POST /auth/customer/login. The code travels out of band;
// the response only acknowledges the request.
func (h *CustomerAuthHandler) Login(c *fiber.Ctx) error {
	var req dto.CustomerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	phone, err := h.auth.RequestCustomerCode(c.Context(), req.Phone)
	if err != nil {
		return err
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{
			"phone":  phone,
			"status": "code_sent",
		},
	})
}

// VerifyOtp handles POST /auth/customer/verify-otp.
func (h *CustomerAuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req dto.CustomerVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	customer, pair, err := h.auth.VerifyCustomerCode(c.Context(), req.Phone, req.Otp)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"customer": fiber.Map{
				"id":    customer.ID,
				"phone": customer.Phone,
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

// RefreshToken handles GET /auth/customer/refresh-token.
func (h *CustomerAuthHandler) RefreshToken(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}

	accessToken, expiresAt, err := h.auth.Refresh(c.Context(), token, auth.AudienceCustomerRefresh)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AccessTokenResponse{AccessToken: accessToken, ExpiresAt: expiresAt},
	})
}

// Me handles GET /auth/customer/me for the authenticated customer.
func (h *CustomerAuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	customer := principal.Customer
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id":     customer.ID,
			"phone":  customer.Phone,
			"name":   customer.Name,
			"status": customer.Status,
		},
	})
}
