// Package numerator implements core/numerator.Generator on the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "stockflow/internal/core/numerator"
	"stockflow/internal/infrastructure/storage/postgres"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service provides document numbering backed by PostgreSQL.
// Numbers are drawn through the transaction carried by ctx.
type Service struct {
	querier func(ctx context.Context) Querier
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator bound to the transaction manager.
func New(txManager *postgres.TxManager) *Service {
	return &Service{
		querier: func(ctx context.Context) Querier { return txManager.GetQuerier(ctx) },
	}
}

// NewWithQuerier creates a numerator over a fixed querier.
func NewWithQuerier(q Querier) *Service {
	return &Service{
		querier: func(context.Context) Querier { return q },
	}
}

const (
	nextSequenceSQL = `
	INSERT INTO sys_sequences (sequence_type, year, current_val)
	VALUES ($1, $2, 1)
	ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
	RETURNING current_val`

	setSequenceSQL = `
	INSERT INTO sys_sequences (sequence_type, year, current_val)
	VALUES ($1, $2, $3)
	ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = $3
	RETURNING current_val`
)

// GetNextNumber generates the next number, e.g. PO-2026-0001.
//
// The sequence row is incremented inside the caller's transaction: it stays
// locked until commit and a rollback returns the value.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	var num int64
	if err := s.querier(ctx).QueryRow(ctx, nextSequenceSQL, cfg.Prefix, cfg.SequenceYear(period)).Scan(&num); err != nil {
		return "", fmt.Errorf("next %s sequence value: %w", cfg.Prefix, err)
	}
	return cfg.Format(period, num), nil
}

// SetNextNumber moves the sequence so the next number is value.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	if value < 1 {
		return fmt.Errorf("next %s number must be positive, got %d", cfg.Prefix, value)
	}

	var current int64
	err := s.querier(ctx).QueryRow(ctx, setSequenceSQL, cfg.Prefix, cfg.SequenceYear(period), value-1).Scan(&current)
	if err != nil {
		return fmt.Errorf("set %s sequence: %w", cfg.Prefix, err)
	}
	return nil
}
