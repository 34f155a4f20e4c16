package service

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer 2026", "summer-2026"},
		{"Côte d'Azur", "c-te-d-azur"},
		{"  Trailing  Spaces  ", "trailing-spaces"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER", "upper"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
