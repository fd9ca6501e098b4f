// Package catalog_repo provides PostgreSQL implementations for master data repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/infrastructure/storage/postgres"
)

const pgUniqueViolation = "23505"

type versioned interface {
	SetVersion(v int)
}

// BaseCatalogRepo provides the writes shared by master data tables.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T versioned] struct {
	txManager *postgres.TxManager
	tableName string
	entity    string
	// columns are the writable table columns
	columns []string
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T versioned](txManager *postgres.TxManager, tableName, entity string, columns []string) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager: txManager,
		tableName: tableName,
		entity:    entity,
		columns:   columns,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// values picks the writable columns out of the entity's db tags.
func (r *BaseCatalogRepo[T]) values(entity T, skip ...string) map[string]any {
	data := postgres.StructToMap(entity)
	out := make(map[string]any, len(r.columns))
	for _, col := range r.columns {
		if slices.Contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := r.values(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, fmt.Errorf("insert %s: %w", r.tableName, err))
	}
	return nil
}

// Update modifies an existing entity with optimistic locking and bumps its version.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(r.values(entity, "id", "version", "created_at")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	var newVersion int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewConcurrentModification(r.entity, entityID)
		}
		return r.mapWriteError(err, fmt.Errorf("update %s: %w", r.tableName, err))
	}
	entity.SetVersion(newVersion)
	return nil
}

// Delete removes the row.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": entityID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entity, entityID.String())
	}
	return nil
}

// get scans one row, mapping no rows to NOT_FOUND.
func (r *BaseCatalogRepo[T]) get(ctx context.Context, dest any, q squirrel.SelectBuilder, key string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), dest, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(r.entity, key)
		}
		return fmt.Errorf("get %s: %w", r.entity, err)
	}
	return nil
}

// selectAll scans every row of q into dest.
func (r *BaseCatalogRepo[T]) selectAll(ctx context.Context, dest any, q squirrel.SelectBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) mapWriteError(err, wrapped error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperror.NewConflict(r.entity+" already exists").WithCause(err)
	}
	return wrapped
}
