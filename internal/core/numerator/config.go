// Package numerator provides domain contracts for human-readable document numbers.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "PO")
	Prefix string

	// IncludeYear adds the period year to the number
	IncludeYear bool

	// PadWidth is the minimum width of the counter part
	PadWidth int

	// ResetPeriod: "year" or "never"
	ResetPeriod string
}

// PurchaseOrderConfig yields PO-<year>-<4-digit-seq> numbers restarting every year.
func PurchaseOrderConfig() Config {
	return Config{
		Prefix:      "PO",
		IncludeYear: true,
		PadWidth:    4,
		ResetPeriod: "year",
	}
}

// SequenceYear returns the year component of the sequence key.
// Sequences that never reset share year 0.
func (c Config) SequenceYear(period time.Time) int {
	if c.ResetPeriod == "year" {
		return period.Year()
	}
	return 0
}

// Format renders the counter value with the configured prefix, year and padding.
func (c Config) Format(period time.Time, value int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	var b strings.Builder
	if c.Prefix != "" {
		b.WriteString(c.Prefix)
		b.WriteByte('-')
	}
	if c.IncludeYear {
		b.WriteString(strconv.Itoa(period.Year()))
		b.WriteByte('-')
	}
	fmt.Fprintf(&b, "%0*d", width, value)
	return b.String()
}

// Parse extracts the year (0 when absent) and counter value from a formatted number.
func (c Config) Parse(number string) (year int, value int64, err error) {
	rest := number
	if c.Prefix != "" {
		if !strings.HasPrefix(rest, c.Prefix+"-") {
			return 0, 0, fmt.Errorf("number %q has no prefix %q", number, c.Prefix)
		}
		rest = strings.TrimPrefix(rest, c.Prefix+"-")
	}
	if c.IncludeYear {
		yearPart, counter, ok := strings.Cut(rest, "-")
		if !ok {
			return 0, 0, fmt.Errorf("number %q has no year part", number)
		}
		if year, err = strconv.Atoi(yearPart); err != nil {
			return 0, 0, fmt.Errorf("parse year of %q: %w", number, err)
		}
		rest = counter
	}
	value, err = strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse counter of %q: %w", number, err)
	}
	return year, value, nil
}
