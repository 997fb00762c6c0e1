package storage

import "testing"

func TestSanitizeSearchTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text", input: "canteen", expected: "canteen"},
		{name: "location id", input: "AB1_303", expected: "AB1\\_303"},
		{name: "percent", input: "100%", expected: "100\\%"},
		{name: "backslash", input: `a\b`, expected: `a\\b`},
		{name: "mixed", input: `%_\`, expected: `\%\_\\`},
		{name: "empty", input: "", expected: ""},
		{name: "injection attempt", input: "'; DROP TABLE locations; --", expected: "'; DROP TABLE locations; --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeSearchTerm(tt.input); got != tt.expected {
				t.Errorf("sanitizeSearchTerm(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
