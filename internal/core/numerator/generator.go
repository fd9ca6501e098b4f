package numerator

import (
	"context"
	"time"
)

// Generator hands out sequential document numbers.
// Implementations must take part in the transaction carried by ctx so that a
// rolled back document also rolls back its number.
type Generator interface {
	// GetNextNumber returns the next formatted number for the period.
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetNextNumber moves the sequence so the next call yields value (data migration).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
