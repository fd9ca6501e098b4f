package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/domain/audit"
	"stockflow/pkg/logger"
)

// Service provides business logic for the Location catalog.
type Service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService creates a new Location service.
func NewService(repo Repository, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{repo: repo, audit: recorder}
}

// List returns locations ordered by name.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Location, error) {
	return s.repo.List(ctx, filter)
}

// GetByID returns one location.
func (s *Service) GetByID(ctx context.Context, locationID id.ID) (*Location, error) {
	return s.repo.GetByID(ctx, locationID)
}

// Create adds a location. ADMIN only.
func (s *Service) Create(ctx context.Context, loc *Location) error {
	scope := security.GetScope(ctx)
	if err := scope.RequireRole(security.RoleAdmin); err != nil {
		return err
	}
	if err := loc.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, loc); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	s.record(ctx, loc.ID, audit.ActionCreated, map[string]any{"name": loc.Name, "type": loc.Type})
	logger.Info(ctx, "location created", "location_id", loc.ID, "type", loc.Type)
	return nil
}

// Update applies a patch. ADMIN only.
func (s *Service) Update(ctx context.Context, locationID id.ID, patch Patch) (*Location, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	loc, err := s.repo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	patch.Apply(loc)
	if err := loc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, loc); err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	s.record(ctx, loc.ID, audit.ActionUpdated, map[string]any{"name": loc.Name, "isActive": loc.IsActive})
	return loc, nil
}

// Supervisors lists the supervisors bound to a location. ADMIN only.
func (s *Service) Supervisors(ctx context.Context, locationID id.ID) ([]Assignment, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.Assignments(ctx, locationID)
}

// AssignSupervisor binds username to a location. ADMIN only.
func (s *Service) AssignSupervisor(ctx context.Context, locationID id.ID, username string) (*Assignment, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if _, err := s.repo.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	assigned, err := s.repo.IsAssigned(ctx, username, locationID)
	if err != nil {
		return nil, err
	}
	if assigned {
		return nil, apperror.NewConflict("supervisor already assigned to this location").
			WithDetail("username", username)
	}

	a := Assignment{Username: username, LocationID: locationID, AssignedAt: time.Now().UTC()}
	if err := s.repo.Assign(ctx, a); err != nil {
		return nil, fmt.Errorf("assign supervisor: %w", err)
	}
	s.record(ctx, locationID, audit.ActionAssigned, map[string]any{"username": username})
	logger.Info(ctx, "supervisor assigned", "username", username, "location_id", locationID)
	return &a, nil
}

// UnassignSupervisor removes a binding. ADMIN only.
func (s *Service) UnassignSupervisor(ctx context.Context, locationID id.ID, username string) error {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return err
	}
	assigned, err := s.repo.IsAssigned(ctx, username, locationID)
	if err != nil {
		return err
	}
	if !assigned {
		return apperror.NewNotFound("assignment", username)
	}
	if err := s.repo.Unassign(ctx, username, locationID); err != nil {
		return fmt.Errorf("unassign supervisor: %w", err)
	}
	s.record(ctx, locationID, audit.ActionUnassigned, map[string]any{"username": username})
	return nil
}

// MyLocations returns the locations bound to the current supervisor.
func (s *Service) MyLocations(ctx context.Context) ([]*Location, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireRole(security.RoleSupervisor); err != nil {
		return nil, err
	}
	ids, err := s.repo.LocationsOf(ctx, scope.Username)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*Location{}, nil
	}
	return s.repo.List(ctx, ListFilter{IDs: ids})
}

func (s *Service) record(ctx context.Context, locationID id.ID, action audit.Action, changes map[string]any) {
	if err := s.audit.Record(ctx, audit.Record{
		EntityType: "location",
		EntityID:   locationID,
		Action:     action,
		Changes:    changes,
	}); err != nil {
		logger.Warn(ctx, "audit record failed", "location_id", locationID, "error", err)
	}
}
