package util

import (
	"strings"
	"time"
)

// DefaultString returns the fallback value if v is empty or consists entirely
// of whitespace; otherwise it returns v unchanged.
//
// Examples:
//
//	DefaultString("hello", "world")  → "hello"
//	DefaultString("",      "world")  → "world"
//	DefaultString("  ",    "world")  → "world"
func DefaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// EmptyDash returns "-" if s is empty or consists entirely of whitespace;
// otherwise it returns s unchanged. It is used for optional fields such as an
// instance's public IP, which is absent while the instance is stopped.
func EmptyDash(s string) string {
	return DefaultString(s, "-")
}

// Clock formats t the way progress messages print it, e.g. "14:07:03".
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}
