package slug

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"leverage-points", "leverage-points"},
		{"Leverage Points", "leverage-points"},
		{"  Systems   Thinking!! ", "systems-thinking"},
		{"--already--dashed--", "already-dashed"},
		{"C++ & Go 101", "c-go-101"},
		{"Café au lait", "caf-au-lait"},
		{"", ""},
		{"!!!", ""},
		{"   ", ""},
		{"folder/Sub Note", "folder-sub-note"},
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "a", "A-B", "a--b", "-x-", "Hello, World", "über straße", "x_y.z", "[[note]]", "123 ABC def",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPrettify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"leverage-points", "Leverage Points"},
		{"leverage-points-restaurant", "Leverage Points Restaurant"},
		{"Note A", "Note A"},
		{"iPhone-notes", "IPhone Notes"},
		{"a--b", "A B"},
		{"-lead-", "Lead"},
		{"", ""},
		{"éclair", "Éclair"},
	}
	for _, tt := range tests {
		if got := Prettify(tt.in); got != tt.want {
			t.Errorf("Prettify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
