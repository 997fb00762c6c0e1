package stringutil

import (
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Upper case", "AB1-303", "ab1-303"},
		{"Full-width", "ＡＢ１", "ab1"},
		{"Already folded", "canteen", "canteen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEqualFold(t *testing.T) {
	if !EqualFold("  Bob Smith ", "bob smith") {
		t.Error("expected case and whitespace insensitive match")
	}
	if EqualFold("Bob", "Bobby") {
		t.Error("expected mismatch")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Punctuation becomes space", "How do I get to AB2-112?!", "how do i get to ab2-112"},
		{"Collapses whitespace", "  from \t ab1_303   to  canteen ", "from ab1_303 to canteen"},
		{"Keeps apostrophe", "I'm here.", "i'm here"},
		{"Empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Take me to the Library, please!")
	want := []string{"take", "me", "to", "the", "library", "please"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
	for _, blank := range []string{"", "   ", "?!"} {
		if got := Tokens(blank); got != nil {
			t.Errorf("Tokens(%q) = %#v, want nil", blank, got)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title("bob smith"); got != "Bob Smith" {
		t.Errorf("Title() = %q", got)
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Valid digits", "12", true},
		{"Empty string", "", false},
		{"Hash prefix", "#2", false},
		{"Contains space", "1 2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNumeric(tt.input); got != tt.want {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 6, "abc..."},
		{"abcdef", 2, "ab"},
		{"anything", 0, ""},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.input, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}
