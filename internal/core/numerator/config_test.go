package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseOrderConfig_FormatAndParse(t *testing.T) {
	cfg := PurchaseOrderConfig()
	period := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	number := cfg.Format(period, 7)
	assert.Equal(t, "PO-2026-0007", number)

	year, value, err := cfg.Parse(number)
	require.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, int64(7), value)

	assert.Equal(t, "PO-2026-12345", cfg.Format(period, 12345))

	_, _, err = cfg.Parse("INV-2026-0001")
	assert.Error(t, err)
}

func TestMemoryGenerator_RestartsEachYear(t *testing.T) {
	gen := NewMemoryGenerator()
	cfg := PurchaseOrderConfig()
	ctx := context.Background()
	y2025 := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	y2026 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, _ := gen.GetNextNumber(ctx, cfg, y2025)
	second, _ := gen.GetNextNumber(ctx, cfg, y2025)
	fresh, _ := gen.GetNextNumber(ctx, cfg, y2026)

	assert.Equal(t, "PO-2025-0001", first)
	assert.Equal(t, "PO-2025-0002", second)
	assert.Equal(t, "PO-2026-0001", fresh)

	require.NoError(t, gen.SetNextNumber(ctx, cfg, y2026, 40))
	next, _ := gen.GetNextNumber(ctx, cfg, y2026)
	assert.Equal(t, "PO-2026-0040", next)
}
