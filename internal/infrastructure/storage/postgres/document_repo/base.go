// Package document_repo provides PostgreSQL implementations for workflow document repositories.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/domain"
	"stockflow/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides the helpers shared by document repositories:
// header lookups, versioned header updates and paginated lists.
type BaseDocumentRepo struct {
	txManager *postgres.TxManager
	tableName string
	entity    string
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo(txManager *postgres.TxManager, tableName, entity string) *BaseDocumentRepo {
	return &BaseDocumentRepo{txManager: txManager, tableName: tableName, entity: entity}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// getOne scans a single header row, mapping no rows to NOT_FOUND.
func (r *BaseDocumentRepo) getOne(ctx context.Context, dest any, q squirrel.SelectBuilder, key string) error {
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
func (r *BaseDocumentRepo) selectAll(ctx context.Context, dest any, q squirrel.SelectBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("select %s rows: %w", r.entity, err)
	}
	return nil
}

// exec runs a write statement and returns the affected row count.
func (r *BaseDocumentRepo) exec(ctx context.Context, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", r.tableName, err)
	}
	return tag.RowsAffected(), nil
}

// updateHeader applies set to the header row when its version still matches
// and returns the new version.
func (r *BaseDocumentRepo) updateHeader(ctx context.Context, docID any, version int, set map[string]any) (int, error) {
	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID, "version": version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var newVersion int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewConcurrentModification(r.entity, docID)
		}
		return 0, fmt.Errorf("update %s: %w", r.tableName, err)
	}
	return newVersion, nil
}

// sortColumns maps public sort keys to SQL columns.
type sortColumns map[string]string

// page counts q, then applies order and pagination and scans into items.
func page[T any](ctx context.Context, r *BaseDocumentRepo, q squirrel.SelectBuilder, filter domain.ListFilter, sorts sortColumns) (domain.ListResult[T], error) {
	filter = filter.Normalize()
	var items []T

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return domain.ListResult[T]{}, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return domain.ListResult[T]{}, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy, sorts)
	if err != nil {
		return domain.ListResult[T]{}, err
	}
	q = q.OrderBy(orderBy).Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))

	if err := r.selectAll(ctx, &items, q); err != nil {
		return domain.ListResult[T]{}, err
	}
	return domain.NewListResult(items, total, filter), nil
}

// parseOrderBy turns "-created_at" into "<column> DESC". The default is newest first.
func parseOrderBy(orderBy string, sorts sortColumns) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		orderBy = "-created_at"
	}
	dir := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		orderBy = orderBy[1:]
	}
	col, ok := sorts[orderBy]
	if !ok {
		return "", apperror.NewValidation("unsupported sort field").WithDetail("orderBy", orderBy)
	}
	return col + " " + dir, nil
}
