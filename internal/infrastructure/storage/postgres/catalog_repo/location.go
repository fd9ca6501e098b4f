package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/infrastructure/storage/postgres"
)

var locationColumns = postgres.ExtractDBColumns[location.Location]()

// LocationRepo implements location.Repository and the supervisor bindings.
type LocationRepo struct {
	*BaseCatalogRepo[*location.Location]
}

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*location.Location](txManager, "locations", "location", locationColumns),
	}
}

var _ location.Repository = (*LocationRepo)(nil)

// GetByID retrieves a location by ID.
func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*location.Location, error) {
	loc := &location.Location{}
	q := r.Builder().Select(locationColumns...).From("locations").Where(squirrel.Eq{"id": locationID})
	if err := r.get(ctx, loc, q, locationID.String()); err != nil {
		return nil, err
	}
	return loc, nil
}

// List returns locations ordered by type then name.
func (r *LocationRepo) List(ctx context.Context, filter location.ListFilter) ([]*location.Location, error) {
	q := r.Builder().Select(locationColumns...).From("locations")
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.IDs != nil {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	var items []*location.Location
	if err := r.selectAll(ctx, &items, q.OrderBy("type", "name")); err != nil {
		return nil, err
	}
	return items, nil
}

// Assign binds a supervisor to a location.
func (r *LocationRepo) Assign(ctx context.Context, a location.Assignment) error {
	_, err := r.querier(ctx).Exec(ctx, `
		INSERT INTO supervisor_locations (username, location_id, assigned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username, location_id) DO NOTHING`,
		a.Username, a.LocationID, a.AssignedAt)
	if err != nil {
		return fmt.Errorf("insert supervisor binding: %w", err)
	}
	return nil
}

// Unassign removes a binding.
func (r *LocationRepo) Unassign(ctx context.Context, username string, locationID id.ID) error {
	_, err := r.querier(ctx).Exec(ctx,
		`DELETE FROM supervisor_locations WHERE username = $1 AND location_id = $2`,
		username, locationID)
	if err != nil {
		return fmt.Errorf("delete supervisor binding: %w", err)
	}
	return nil
}

// Assignments lists a location's supervisors.
func (r *LocationRepo) Assignments(ctx context.Context, locationID id.ID) ([]location.Assignment, error) {
	q := r.Builder().
		Select("username", "location_id", "assigned_at").
		From("supervisor_locations").
		Where(squirrel.Eq{"location_id": locationID}).
		OrderBy("username")

	var items []location.Assignment
	if err := r.selectAll(ctx, &items, q); err != nil {
		return nil, err
	}
	return items, nil
}

// IsAssigned reports whether the supervisor is bound to the location.
func (r *LocationRepo) IsAssigned(ctx context.Context, username string, locationID id.ID) (bool, error) {
	var exists bool
	err := r.querier(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM supervisor_locations WHERE username = $1 AND location_id = $2
		)`, username, locationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check supervisor binding: %w", err)
	}
	return exists, nil
}

// LocationsOf lists the locations a supervisor is bound to.
func (r *LocationRepo) LocationsOf(ctx context.Context, username string) ([]id.ID, error) {
	rows, err := r.querier(ctx).Query(ctx,
		`SELECT location_id FROM supervisor_locations WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("list supervisor bindings: %w", err)
	}
	defer rows.Close()

	var ids []id.ID
	for rows.Next() {
		var locID id.ID
		if err := rows.Scan(&locID); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		ids = append(ids, locID)
	}
	return ids, rows.Err()
}
