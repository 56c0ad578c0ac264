package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/restaurant-service/internal/domain"
	"github.com/spec-kit/restaurant-service/internal/repository"
	apperrors "github.com/spec-kit/restaurant-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Type     domain.PrincipalType
	Staff    *domain.StaffMember
	Customer *domain.Customer
}

// AuthMiddleware validates bearer tokens and loads principals. A single
// instance serves every audience; Handle binds one audience per route group.
type AuthMiddleware struct {
	tokens    *TokenManager
	staff     repository.StaffRepository
	customers repository.CustomerRepository
}

// NewAuthMiddleware constructs the middleware.
func NewAuthMiddleware(tokens *TokenManager, staff repository.StaffRepository, customers repository.CustomerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, staff: staff, customers: customers}
}

// Handle enforces authentication for routes protected under the audience.
// Principal status is re-checked on every request: a session held by a
// blocked or deleted principal dies here regardless of token validity.
func (m *AuthMiddleware) Handle(aud Audience) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}

		claims, err := m.tokens.Verify(token, aud)
		if err != nil {
			if err == ErrTokenExpired {
				return apperrors.NewUnauthorized("token expired")
			}
			return apperrors.NewUnauthorized("invalid token")
		}

		principal := &Principal{Type: claims.PrincipalType}

		switch claims.PrincipalType {
		case domain.PrincipalTypeStaff:
			staff, err := m.staff.GetByID(c.Context(), claims.SubjectID)
			if err != nil {
				if err == pgx.ErrNoRows {
					return apperrors.NewUnauthorized("staff not found")
				}
				return apperrors.MapError(err)
			}
			if err := checkStatus(staff.Status); err != nil {
				return err
			}
			principal.Staff = staff
		case domain.PrincipalTypeCustomer:
			customer, err := m.customers.GetByID(c.Context(), claims.SubjectID)
			if err != nil {
				if err == pgx.ErrNoRows {
					return apperrors.NewUnauthorized("customer not found")
				}
				return apperrors.MapError(err)
			}
			if err := checkStatus(customer.Status); err != nil {
				return err
			}
			principal.Customer = customer
		default:
			return apperrors.NewUnauthorized("unknown principal type")
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

func checkStatus(status domain.EntityStatus) error {
	switch status {
	case domain.EntityStatusBlocked:
		return apperrors.NewForbidden("blocked")
	case domain.EntityStatusDeleted:
		return apperrors.NewForbidden("deleted")
	}
	return nil
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
