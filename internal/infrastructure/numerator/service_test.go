package numerator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "stockflow/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates sys_sequences keyed by (sequence_type, year).
type mockQuerier struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
	err   error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{vals: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	key := fmt.Sprintf("%v/%v", args[0], args[1])
	switch sql {
	case setSequenceSQL:
		m.vals[key] = args[2].(int64)
	default:
		m.vals[key]++
	}
	return &mockRow{val: m.vals[key]}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := NewWithQuerier(q)
	ctx := context.Background()
	cfg := corenumerator.PurchaseOrderConfig()
	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	first, err := svc.GetNextNumber(ctx, cfg, march)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(ctx, cfg, march)
	require.NoError(t, err)

	assert.Equal(t, "PO-2026-0001", first)
	assert.Equal(t, "PO-2026-0002", second)
	assert.Equal(t, 2, q.calls)

	nextYear, err := svc.GetNextNumber(ctx, cfg, march.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "PO-2027-0001", nextYear)
}

func TestSetNextNumber(t *testing.T) {
	q := newMockQuerier()
	svc := NewWithQuerier(q)
	ctx := context.Background()
	cfg := corenumerator.PurchaseOrderConfig()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.GetNextNumber(ctx, cfg, now)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, now, 120))
	n, err := svc.GetNextNumber(ctx, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-0120", n)

	other, err := svc.GetNextNumber(ctx, cfg, now.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-0001", other, "other years keep their own sequence")

	assert.Error(t, svc.SetNextNumber(ctx, cfg, now, 0))
}

func TestGetNextNumber_Concurrent(t *testing.T) {
	svc := NewWithQuerier(newMockQuerier())
	cfg := corenumerator.PurchaseOrderConfig()
	now := time.Now()

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := svc.GetNextNumber(context.Background(), cfg, now)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 20)
}

func TestGetNextNumber_Error(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := NewWithQuerier(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.PurchaseOrderConfig(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
