package util

import (
	"testing"
	"time"
)

func TestEmptyDash(t *testing.T) {
	cases := map[string]string{
		"":           "-",
		"   ":        "-",
		"3.90.1.2":   "3.90.1.2",
		" build-box": " build-box",
	}
	for in, want := range cases {
		if got := EmptyDash(in); got != want {
			t.Fatalf("EmptyDash(%q)=%q want %q", in, got, want)
		}
	}
}

func TestClock(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 7, 3, 999, time.UTC)
	if got := Clock(ts); got != "14:07:03" {
		t.Fatalf("unexpected clock: %s", got)
	}
}
