package auth

import (
	"testing"

	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+14155550100", "+14155550100"},
		{"+1 (415) 555-0100", "+14155550100"},
		{"9812345678", "+919812345678"},
		{"98123 45678", "+919812345678"},
		{"0044 20 7946 0958", "+442079460958"},
		{"+91.98123.45678", "+919812345678"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhone_Rejects(t *testing.T) {
	for _, in := range []string{"", "12345", "+1234567890123456", "98123x45678", "1+4155550100", "0123456789012"} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizePhone(in)
			assert.ErrorIs(t, err, backend.ErrInvalidInput)
		})
	}
}
