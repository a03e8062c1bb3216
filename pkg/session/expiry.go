package session

import (
	"fmt"
	"strings"
	"time"
)

// ExpiryNever is the preset for a remembered session without a deadline.
const ExpiryNever = "never"

var expiryPresets = []struct {
	name string
	d    time.Duration
}{
	{"15m", 15 * time.Minute},
	{"1h", time.Hour},
	{"8h", 8 * time.Hour},
	{"1d", 24 * time.Hour},
	{"7d", 7 * 24 * time.Hour},
	{"30d", 30 * 24 * time.Hour},
	{ExpiryNever, 0},
}

// ExpiryPresets lists the accepted preset names, shortest first.
func ExpiryPresets() []string {
	names := make([]string, 0, len(expiryPresets))
	for _, p := range expiryPresets {
		names = append(names, p.name)
	}
	return names
}

// ParseExpiry maps a preset name to a duration. "never" and "" return 0.
// Any Go duration string of at least one millisecond is accepted as well.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	for _, p := range expiryPresets {
		if p.name == s {
			return p.d, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < time.Millisecond {
		return 0, fmt.Errorf("%w: %q, want one of %s", ErrInvalidExpiry, s, strings.Join(ExpiryPresets(), ", "))
	}
	return d, nil
}
