package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("short strings pass through, got %q", got)
	}
	if got := Truncate("hello", 5); got != "hello" {
		t.Errorf("exact length passes through, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}

	t.Run("never splits a multibyte rune", func(t *testing.T) {
		// "é" is two bytes; a cut at 4 lands mid-sequence.
		s := "caféine"
		got := Truncate(s, 4)
		if got != "caf" {
			t.Errorf("expected %q, got %q", "caf", got)
		}
		for n := 0; n <= len(s); n++ {
			if !utf8.ValidString(Truncate(s, n)) {
				t.Errorf("Truncate(%q, %d) produced invalid UTF-8", s, n)
			}
		}
	})

	t.Run("long field stays valid", func(t *testing.T) {
		s := strings.Repeat("beschrijving é ", 40)
		got := Truncate(s, 500)
		if len(got) > 500 {
			t.Errorf("result exceeds cap: %d bytes", len(got))
		}
		if !utf8.ValidString(got) {
			t.Error("result is not valid UTF-8")
		}
	})
}
