package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "stockflow/internal/core/numerator"
)

func TestParseSequenceArgs(t *testing.T) {
	cfg := corenumerator.PurchaseOrderConfig()

	tests := []struct {
		name    string
		args    []string
		want    sequenceArgs
		wantErr bool
	}{
		{name: "year and next", args: []string{"set", "2026", "120"}, want: sequenceArgs{year: 2026, next: 120}},
		{name: "last issued number", args: []string{"set", "PO-2025-0119"}, want: sequenceArgs{year: 2025, next: 120}},
		{name: "missing verb", args: []string{"2026", "120"}, wantErr: true},
		{name: "no args", wantErr: true},
		{name: "zero next", args: []string{"set", "2026", "0"}, wantErr: true},
		{name: "bad year", args: []string{"set", "twenty", "5"}, wantErr: true},
		{name: "foreign prefix", args: []string{"set", "INV-2026-0001"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSequenceArgs(cfg, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
