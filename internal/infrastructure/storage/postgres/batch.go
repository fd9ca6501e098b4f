package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"stockflow/internal/core/types"
)

// BatchInserter bulk-loads rows with the COPY protocol. Used for count-sheet
// snapshots and bulk stock loads, where a location may hold thousands of rows.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows into table. It must run inside a transaction.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t := b.txManager.GetTx(ctx)
	if t == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// BatchQuery represents a query in a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// ExecuteBatch runs queries in one round trip inside the current transaction
// and returns the affected row count of each.
func (b *BatchInserter) ExecuteBatch(ctx context.Context, queries []BatchQuery) ([]int64, error) {
	t := b.txManager.GetTx(ctx)
	if t == nil {
		return nil, fmt.Errorf("ExecuteBatch requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := t.SendBatch(ctx, batch)
	defer results.Close()

	affected := make([]int64, 0, len(queries))
	for i := range queries {
		tag, err := results.Exec()
		if err != nil {
			return nil, fmt.Errorf("batch query %d failed: %w", i, err)
		}
		affected = append(affected, tag.RowsAffected())
	}
	return affected, nil
}

// NumericQuantity converts q into a NUMERIC value. COPY uses the binary
// protocol, where the text form of Quantity is not accepted.
func NumericQuantity(q types.Quantity) pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(int64(q)), Exp: -4, Valid: true}
}

// NullableNumericQuantity is NumericQuantity for optional quantities.
func NullableNumericQuantity(q *types.Quantity) pgtype.Numeric {
	if q == nil {
		return pgtype.Numeric{}
	}
	return NumericQuantity(*q)
}
