package validation

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cash Blast", "Cash Blast"},
		{"  Lucky\n\t 7s  ", "Lucky 7s"},
		{"Bonus\x00Bucks\x7F", "BonusBucks"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeName_Truncates(t *testing.T) {
	got := SanitizeName(strings.Repeat("é", 250))
	if n := utf8.RuneCountInString(got); n != maxNameLength {
		t.Errorf("length = %d, want %d", n, maxNameLength)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
}
