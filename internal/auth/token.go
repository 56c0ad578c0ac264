package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/restaurant-service/internal/config"
	"github.com/spec-kit/restaurant-service/internal/domain"
)

// Audience scopes a token to one principal type and token use. Each audience
// verifies under its own secret, so a token minted for one audience can never
// be accepted by a guard expecting another.
type Audience string

const (
	AudienceStaff           Audience = "staff"
	AudienceStaffRefresh    Audience = "staff-refresh"
	AudienceCustomer        Audience = "customer"
	AudienceCustomerRefresh Audience = "customer-refresh"
)

var (
	// ErrTokenExpired is returned for structurally valid tokens past expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens and wrong-audience signatures
	// alike; callers must not be able to tell the two apart.
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenManager issues and validates audience-scoped JWTs.
type TokenManager struct {
	secrets    map[Audience][]byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a manager from the auth configuration. Customer
// access and refresh audiences share CUSTOMER_TOKEN_SECRET and are kept apart
// by the registered aud claim, which Verify enforces.
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	accessTTL := time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	refreshTTL := time.Duration(cfg.RefreshTokenTTLMinutes) * time.Minute
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secrets: map[Audience][]byte{
			AudienceStaff:           []byte(cfg.TokenSecret),
			AudienceStaffRefresh:    []byte(cfg.RefreshTokenSecret),
			AudienceCustomer:        []byte(cfg.CustomerTokenSecret),
			AudienceCustomerRefresh: []byte(cfg.CustomerTokenSecret),
		},
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Claims describes the JWT payload.
type Claims struct {
	SubjectID     string               `json:"sub_id"`
	PrincipalType domain.PrincipalType `json:"principal_type"`
	jwt.RegisteredClaims
}

// TTL returns the lifetime applied to tokens of the given audience.
func (tm *TokenManager) TTL(aud Audience) time.Duration {
	switch aud {
	case AudienceStaffRefresh, AudienceCustomerRefresh:
		return tm.refreshTTL
	default:
		return tm.accessTTL
	}
}

// Issue builds and signs a JWT for the subject under the audience secret.
func (tm *TokenManager) Issue(subjectID string, principalType domain.PrincipalType, aud Audience) (string, time.Time, error) {
	secret, ok := tm.secrets[aud]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unknown audience %q", aud)
	}

	now := time.Now()
	expiresAt := now.Add(tm.TTL(aud))
	claims := &Claims{
		SubjectID:     subjectID,
		PrincipalType: principalType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{string(aud)},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates the token under the expected audience and returns its
// claims. Expiry is checked against the server clock with zero leeway; a
// token expiring exactly now is rejected.
func (tm *TokenManager) Verify(tokenStr string, aud Audience) (*Claims, error) {
	secret, ok := tm.secrets[aud]
	if !ok {
		return nil, ErrTokenInvalid
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithAudience(string(aud)), jwt.WithExpirationRequired())
	if err != nil {
		// Audience mismatch is checked before expiry: the two customer
		// audiences share a secret, and a cross-audience token must not be
		// distinguishable from a malformed one.
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return nil, ErrTokenInvalid
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		// Bad signature and garbage input collapse into the same error so
		// the verifier cannot be used as a signature oracle.
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
