package catalog

import "testing"

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"How do I pay?", "how do i pay"},
		{"  HOW   do I   pay?! ", "how do i pay"},
		{"vergi borcu sorgulama", "vergi borcu sorgulama"},
		{"What's a 'semantic' match?", "what s a semantic match"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range tests {
		if got := normalizeQuestion(tc.in); got != tc.want {
			t.Fatalf("normalizeQuestion(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"pay my bill", 3},
		{"  spaced   out  words ", 3},
	}
	for _, tc := range tests {
		if got := tokenCount(tc.in); got != tc.want {
			t.Fatalf("tokenCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
