package cli

import "testing"

func TestSuggest(t *testing.T) {
	commands := []string{"log", "checkout", "commit", "branch", "push", "pull"}

	tests := []struct {
		input string
		want  string
	}{
		{"lgo", "log"},         // transposition
		{"logg", "log"},        // extra char
		{"chekout", "checkout"}, // missing char
		{"comit", "commit"},    // missing char
		{"xxxxxxxxxx", ""},     // no match
		{"", ""},               // empty input
		{"push", "push"},       // exact match
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Suggest(tt.input, commands)
			if got != tt.want {
				t.Errorf("Suggest(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
