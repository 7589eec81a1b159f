package logger

import (
	"testing"
	"time"
)

func TestBuildRID(t *testing.T) {
	rid := BuildRID(42, 9, 7)
	if rid != "42:9:7" {
		t.Fatalf("rid = %s, expected 42:9:7", rid)
	}
}

func TestUpdateMetaRoundTrip(t *testing.T) {
	ctx := WithUpdateMeta(Background(), 42, 7, 9)
	if got := UpdateIDFrom(ctx); got != 42 {
		t.Fatalf("update id = %d", got)
	}
	if got := UserIDFrom(ctx); got != 7 {
		t.Fatalf("user id = %d", got)
	}
	if got := ChatIDFrom(ctx); got != 9 {
		t.Fatalf("chat id = %d", got)
	}
}

func TestSanitizeStripsControlRunes(t *testing.T) {
	in := "key\x00value\tok\nline\x7f"
	out := Sanitize(in)
	if out != "keyvalue\tok\nline" {
		t.Fatalf("sanitize = %q", out)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("abcdef", 3); got != "abc" {
		t.Fatalf("limit = %q", got)
	}
	if got := SanitizeLimit("abc", 0); got != "" {
		t.Fatalf("zero limit = %q", got)
	}
}

func TestRoundMS(t *testing.T) {
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("round = %v", got)
	}
	if got := RoundMS(-time.Second); got != 0 {
		t.Fatalf("negative round = %v", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	preview, truncated := SummarizeStrings([]string{"a", "b", "c"}, 2)
	if preview != "a, b" || !truncated {
		t.Fatalf("preview = %q truncated = %v", preview, truncated)
	}
	preview, truncated = SummarizeStrings([]string{"a"}, 2)
	if preview != "a" || truncated {
		t.Fatalf("preview = %q truncated = %v", preview, truncated)
	}
}
