package bot

import (
	"testing"
	"time"
)

func TestParseExpiryInput(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.Local)

	got, err := parseExpiryInput("30", now)
	if err != nil || got != "2026-08-31" {
		t.Fatalf("days: got %q, %v", got, err)
	}

	for _, in := range []string{"2026-12-31", "31.12.2026"} {
		got, err := parseExpiryInput(in, now)
		if err != nil || got != "2026-12-31" {
			t.Fatalf("date %q: got %q, %v", in, got, err)
		}
	}

	got, err = parseExpiryInput(" - ", now)
	if err != nil || got != "" {
		t.Fatalf("dash: got %q, %v", got, err)
	}

	if _, err := parseExpiryInput("2020-01-01", now); err == nil {
		t.Fatal("past date accepted")
	}
	if _, err := parseExpiryInput("soon", now); err == nil {
		t.Fatal("garbage accepted")
	}
	if _, err := parseExpiryInput("0", now); err == nil {
		t.Fatal("zero days accepted")
	}
}

func TestExpiryFromCanonical(t *testing.T) {
	if got := expiryFromCanonical(""); got != nil {
		t.Fatalf("empty canonical = %v", got)
	}
	got := expiryFromCanonical("2026-12-31")
	if got == nil || got.Format(time.DateOnly) != "2026-12-31" {
		t.Fatalf("round trip = %v", got)
	}
}
