// Package auth validates session tokens issued by the identity service and
// turns them into request actors.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
)

// TokenTypeAccess is the only token type accepted for API calls.
const TokenTypeAccess = "access"

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret string
	// Issuer, when set, is required to match the iss claim
	Issuer string
	// AccessTokenTTL is used when minting development tokens
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		AccessTokenTTL: 12 * time.Hour,
	}
}

// Claims represents JWT claims. The username is carried in sub or, for
// older tokens, in username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Type     string `json:"type,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Actor returns the username named by the claims.
func (c *Claims) Actor() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Username
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken mints an access token for username. Used by the seed
// tool and tests; production tokens come from the identity service.
func (s *JWTService) GenerateAccessToken(username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type: TokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates an HS256 access token and returns the actor
// without a role.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.NewUnauthorized("token expired").WithCause(err)
		}
		return nil, apperror.NewUnauthorized("invalid token").WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.NewUnauthorized("invalid token claims")
	}
	if claims.Type != "" && claims.Type != TokenTypeAccess {
		return nil, apperror.NewUnauthorized("invalid token type").WithDetail("type", claims.Type)
	}
	username := claims.Actor()
	if username == "" {
		return nil, apperror.NewForbidden("invalid token: no username")
	}

	return &appctx.UserContext{
		Username:    username,
		DisplayName: claims.Name,
		Email:       claims.Email,
	}, nil
}
