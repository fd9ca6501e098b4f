package auth

import (
	"context"
	"strings"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/security"
	"stockflow/internal/domain/access"
	"stockflow/pkg/logger"
)

// Service authenticates requests: token validation plus role resolution.
type Service struct {
	jwtService *JWTService
	roles      access.RoleResolver
}

// NewService creates a new auth service.
func NewService(jwtService *JWTService, roles access.RoleResolver) *Service {
	return &Service{jwtService: jwtService, roles: roles}
}

// Authenticate validates the token and resolves the actor's role. When the
// identity service cannot answer, the actor gets the least privileged role.
func (s *Service) Authenticate(ctx context.Context, token string) (*appctx.UserContext, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.NewUnauthorized("access token required")
	}
	user, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.ResolveRole(ctx, user.Username)
	if _, known := security.ParseRole(string(role)); err != nil || !known {
		logger.Warn(ctx, "role lookup failed, using default role",
			"username", user.Username, "default_role", security.RoleSupervisor, "error", err)
		role = security.RoleSupervisor
	}
	user.Role = string(role)
	return user, nil
}

// Me describes the authenticated actor.
type Me struct {
	Username    string        `json:"username"`
	Role        security.Role `json:"role"`
	DisplayName string        `json:"displayName,omitempty"`
	Email       string        `json:"email,omitempty"`
}

// CurrentUser returns the actor attached to ctx.
func (s *Service) CurrentUser(ctx context.Context) (*Me, error) {
	user := appctx.GetUser(ctx)
	if user == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return &Me{
		Username:    user.Username,
		Role:        security.Role(user.Role),
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}, nil
}

// Verify authenticates an arbitrary token, for clients checking a session.
func (s *Service) Verify(ctx context.Context, token string) (*Me, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.CurrentUser(appctx.WithUser(ctx, user))
}
