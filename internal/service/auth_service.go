package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-service/internal/auth"
	"github.com/spec-kit/restaurant-service/internal/domain"
	"github.com/spec-kit/restaurant-service/internal/events"
	"github.com/spec-kit/restaurant-service/internal/otp"
	"github.com/spec-kit/restaurant-service/internal/repository"
	apperrors "github.com/spec-kit/restaurant-service/pkg/util"
)

// AuthService orchestrates staff and customer login, token issuance and
// refresh-token exchange.
type AuthService struct {
	staff      repository.StaffRepository
	customers  repository.CustomerRepository
	otp        *otp.Service
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	StaffRepo    repository.StaffRepository
	CustomerRepo repository.CustomerRepository
	Otp          *otp.Service
	Tokens       *auth.TokenManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		staff:      deps.StaffRepo,
		customers:  deps.CustomerRepo,
		otp:        deps.Otp,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// LoginStaff authenticates a staff member by email and password and issues
// an access/refresh token pair.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, *domain.TokenPair, error) {
	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("staff", nil)
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !staff.Status.CanAuthenticate() {
		return nil, nil, statusError(staff.Status)
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	pair, err := s.issuePair(staff.ID, domain.PrincipalTypeStaff, auth.AudienceStaff, auth.AudienceStaffRefresh)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventStaffLoggedIn, domain.PrincipalTypeStaff, staff.ID,
		events.StaffLoggedInPayload{Role: staff.Role})

	return staff, pair, nil
}

// RequestCustomerCode normalizes the phone and triggers one-time code
// issuance. No token is issued until the code verifies.
func (s *AuthService) RequestCustomerCode(ctx context.Context, phone string) (string, error) {
	normalized, err := auth.NormalizePhone(phone)
	if err != nil {
		return "", apperrors.NewValidationError("invalid phone number", nil)
	}

	record, err := s.otp.RequestCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			return "", apperrors.NewRateLimited("code already requested, retry later")
		}
		return "", apperrors.MapError(err)
	}

	s.publish(ctx, events.EventOtpRequested, domain.PrincipalTypeCustomer, "",
		events.OtpRequestedPayload{Phone: normalized, Counter: record.Counter})

	return normalized, nil
}

// VerifyCustomerCode validates the submitted code, resolves or creates the
// customer for the phone and issues an access/refresh token pair.
func (s *AuthService) VerifyCustomerCode(ctx context.Context, phone, code string) (*domain.Customer, *domain.TokenPair, error) {
	normalized, err := auth.NormalizePhone(phone)
	if err != nil {
		return nil, nil, apperrors.NewValidationError("invalid phone number", nil)
	}

	if err := s.otp.VerifyCode(ctx, normalized, code); err != nil {
		return nil, nil, mapOtpError(err)
	}

	customer, err := s.customers.FindOrCreateByPhone(ctx, normalized)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !customer.Status.CanAuthenticate() {
		return nil, nil, statusError(customer.Status)
	}

	pair, err := s.issuePair(customer.ID, domain.PrincipalTypeCustomer, auth.AudienceCustomer, auth.AudienceCustomerRefresh)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventCustomerVerified, domain.PrincipalTypeCustomer, customer.ID,
		events.CustomerVerifiedPayload{Phone: normalized})

	return customer, pair, nil
}

// Refresh exchanges a refresh token for a new access token. The principal's
// current status decides the outcome, not its status at issuance time.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, aud auth.Audience) (string, time.Time, error) {
	claims, err := s.tokens.Verify(refreshToken, aud)
	if err != nil {
		if err == auth.ErrTokenExpired {
			return "", time.Time{}, apperrors.NewUnauthorized("token expired")
		}
		return "", time.Time{}, apperrors.NewUnauthorized("invalid token")
	}

	var accessAud auth.Audience
	switch aud {
	case auth.AudienceStaffRefresh:
		accessAud = auth.AudienceStaff
		staff, err := s.staff.GetByID(ctx, claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return "", time.Time{}, apperrors.NewUnauthorized("staff not found")
			}
			return "", time.Time{}, apperrors.MapError(err)
		}
		if !staff.Status.CanAuthenticate() {
			return "", time.Time{}, statusError(staff.Status)
		}
	case auth.AudienceCustomerRefresh:
		accessAud = auth.AudienceCustomer
		customer, err := s.customers.GetByID(ctx, claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return "", time.Time{}, apperrors.NewUnauthorized("customer not found")
			}
			return "", time.Time{}, apperrors.MapError(err)
		}
		if !customer.Status.CanAuthenticate() {
			return "", time.Time{}, statusError(customer.Status)
		}
	default:
		return "", time.Time{}, apperrors.NewUnauthorized("invalid token")
	}

	token, expiresAt, err := s.tokens.Issue(claims.SubjectID, claims.PrincipalType, accessAud)
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventSessionRefreshed, claims.PrincipalType, claims.SubjectID,
		events.SessionRefreshedPayload{Audience: string(accessAud)})

	return token, expiresAt, nil
}

func (s *AuthService) issuePair(subjectID string, principalType domain.PrincipalType, accessAud, refreshAud auth.Audience) (*domain.TokenPair, error) {
	access, accessExp, err := s.tokens.Issue(subjectID, principalType, accessAud)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.Issue(subjectID, principalType, refreshAud)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, principalType domain.PrincipalType, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		PrincipalType: principalType,
		SubjectID:     subjectID,
		Timestamp:     time.Now(),
		Payload:       payload,
	})
}

func statusError(status domain.EntityStatus) error {
	switch status {
	case domain.EntityStatusBlocked:
		return apperrors.NewForbidden("blocked")
	case domain.EntityStatusDeleted:
		return apperrors.NewForbidden("deleted")
	}
	return apperrors.NewForbidden("account disabled")
}

func mapOtpError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalid):
		return apperrors.NewDomainError("OTP_INVALID", "incorrect code", http.StatusUnauthorized, nil)
	case errors.Is(err, otp.ErrExpired):
		return apperrors.NewDomainError("OTP_EXPIRED", "code expired", http.StatusUnauthorized, nil)
	case errors.Is(err, otp.ErrExhausted):
		return apperrors.NewDomainError("OTP_EXHAUSTED", "too many attempts", http.StatusUnauthorized, nil)
	case errors.Is(err, otp.ErrNotFound):
		return apperrors.NewDomainError("OTP_NOT_FOUND", "no active code", http.StatusUnauthorized, nil)
	default:
		return apperrors.MapError(err)
	}
}
