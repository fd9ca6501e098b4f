// Package types holds the numeric value types shared by every domain package.
package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact monetary amount (prices, order totals).
type Money = decimal.Decimal

// MustMoney parses s and panics on error. Seed data and tests only.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Zero() Money { return decimal.Zero }

// Quantity is a fixed-point stock quantity with 4 decimal places (scale = 1e4).
// Every ledger, request, order and count quantity uses it; JSON stays a number.
type Quantity int64

const QuantityScale int64 = 10_000

func NewQuantityFromFloat64(v float64) Quantity {
	return Quantity(math.Round(v * float64(QuantityScale)))
}

// NewQuantity creates a quantity from a whole number of units.
func NewQuantity(units int64) Quantity { return Quantity(units * QuantityScale) }

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Quantity as JSON number (not string), preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	parsed, err := ParseQuantity(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity parses a decimal string such as "12.5". Digits beyond the
// fourth fractional place are truncated.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if s == "" {
		return 0, errors.New("empty quantity")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	return QuantityFromDecimal(d)
}

// maxQuantity is the largest magnitude a NUMERIC(15,4) column holds.
var maxQuantity = decimal.RequireFromString("99999999999.9999")

// ErrQuantityOutOfRange is returned for values a stock column cannot hold.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

// QuantityFromDecimal truncates d to four fractional digits. Values beyond
// ±99999999999.9999 are rejected.
func QuantityFromDecimal(d decimal.Decimal) (Quantity, error) {
	d = d.Truncate(4)
	if d.Abs().GreaterThan(maxQuantity) {
		return 0, fmt.Errorf("%w: %s", ErrQuantityOutOfRange, d.String())
	}
	return Quantity(d.Shift(4).IntPart()), nil
}

// Decimal converts the quantity to a decimal for money arithmetic.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -4)
}

// Mul returns quantity × unit price.
func (q Quantity) Mul(price Money) Money {
	return q.Decimal().Mul(price)
}

// Value implements driver.Valuer. Quantities are stored as NUMERIC(15,4).
func (q Quantity) Value() (driver.Value, error) {
	return q.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (q *Quantity) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*q = 0
		return nil
	case string:
		parsed, err := ParseQuantity(v)
		*q = parsed
		return err
	case []byte:
		parsed, err := ParseQuantity(string(v))
		*q = parsed
		return err
	case int64:
		*q = Quantity(v * QuantityScale)
		return nil
	case float64:
		*q = NewQuantityFromFloat64(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Quantity", src)
	}
}
