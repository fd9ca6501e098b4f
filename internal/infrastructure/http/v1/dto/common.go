// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain"
)

// --- Pagination ---

// ListQuery carries the common list query parameters.
type ListQuery struct {
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a domain filter with defaults applied.
func (q ListQuery) ToFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	f.Search = strings.TrimSpace(q.Search)
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	return f.Normalize()
}

// --- Dates ---

// Date accepts "2006-01-02" or RFC 3339 and marshals as a calendar date.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// Ptr returns the wrapped time or nil.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// ParseDate parses a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date").WithDetail("value", s)
	}
	return t.UTC(), nil
}

// PeriodQuery is a startDate/endDate pair. A calendar endDate covers the whole day.
type PeriodQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// Bounds parses both ends. Empty ends stay nil.
func (q PeriodQuery) Bounds() (from, to *time.Time, err error) {
	if q.StartDate != "" {
		t, err := ParseDate(q.StartDate)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if q.EndDate != "" {
		t, err := ParseDate(q.EndDate)
		if err != nil {
			return nil, nil, err
		}
		if len(strings.TrimSpace(q.EndDate)) == len(time.DateOnly) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}
	return from, to, nil
}

// OptionalID parses an optional id query value.
func OptionalID(field, raw string) (*id.ID, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := id.ParseField(field, raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// OptionalBool parses "true"/"false"; anything else is nil.
func OptionalBool(raw string) *bool {
	switch raw {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// --- Status changes ---

// StatusRequest changes a document status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
