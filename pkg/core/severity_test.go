package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/pgsyntax/pkg/core"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want core.Severity
		ok   bool
	}{
		{"error", core.SeverityError, true},
		{"WARNING", core.SeverityWarning, true},
		{"info", core.SeverityInfo, true},
		{"hint", core.SeverityHint, true},
		{"fatal", core.SeverityWarning, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := core.ParseSeverity(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityMarshalText(t *testing.T) {
	b, err := core.SeverityError.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "error", string(b))
	assert.Equal(t, "unknown", core.Severity(42).String())
}
