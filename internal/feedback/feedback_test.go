package feedback

import (
	"strings"
	"testing"
)

func TestComment(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"long answer", "I love hiking and camping", Thoughtful},
		{"exactly eleven runes", "abcdefghijk", Thoughtful},
		{"exactly ten runes", "abcdefghij", Generic},
		{"yes", "Yes", Simple},
		{"no", "No", Simple},
		{"case insensitive", "YES", Simple},
		{"short free text", "maybe", Generic},
		{"empty", "", Generic},
		{"scale value", "7", Generic},
		// Length rule wins over the literal rule by policy order; a
		// long answer can't also be a short literal, so "yes" padded
		// past the threshold is thoughtful.
		{"padded literal", "yes, absolutely", Thoughtful},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Comment(tt.value); got != tt.want {
				t.Errorf("Comment(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	got := Summary(4, 6)
	if !strings.Contains(got, "4 of 6") {
		t.Errorf("Summary(4, 6) = %q, want answered counts mentioned", got)
	}

	empty := Summary(0, 6)
	if strings.Contains(empty, "0 of") {
		t.Errorf("Summary(0, 6) = %q, should use the empty-assessment text", empty)
	}
	if Summary(0, 0) != empty {
		t.Error("Summary(0, 0) should match the empty-assessment text")
	}
}
