package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/vaultcore/pkg/session"
)

func TestParseExpiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"15m", 15 * time.Minute, false},
		{"1h", time.Hour, false},
		{"8h", 8 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"7D", 7 * 24 * time.Hour, false},
		{" 30d ", 30 * 24 * time.Hour, false},
		{"never", 0, false},
		{"", 0, false},
		{"90m", 90 * time.Minute, false},
		{"-1h", 0, true},
		{"0s", 0, true},
		{"500us", 0, true},
		{"1ms", time.Millisecond, false},
		{"forever", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := session.ParseExpiry(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, session.ErrInvalidExpiry)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpiryPresets(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"15m", "1h", "8h", "1d", "7d", "30d", "never"}, session.ExpiryPresets())
}
