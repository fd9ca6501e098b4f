package numerator

import (
	"context"
	"sync"
	"time"
)

// MemoryGenerator is an in-process Generator for unit tests.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryGenerator creates an empty generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

func memoryKey(cfg Config, period time.Time) string {
	return cfg.Prefix + "/" + time.Date(cfg.SequenceYear(period), 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}

// GetNextNumber implements Generator.
func (m *MemoryGenerator) GetNextNumber(_ context.Context, cfg Config, period time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey(cfg, period)
	m.counters[key]++
	return cfg.Format(period, m.counters[key]), nil
}

// SetNextNumber implements Generator.
func (m *MemoryGenerator) SetNextNumber(_ context.Context, cfg Config, period time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[memoryKey(cfg, period)] = value - 1
	return nil
}

var _ Generator = (*MemoryGenerator)(nil)
