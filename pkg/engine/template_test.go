package engine

import (
	"slices"
	"testing"
)

func TestExpand(t *testing.T) {
	vars := NewVars()
	vars.Set("NAME", "world")
	vars.Set("PORT", int64(8080))
	vars.Set("RAW", "%NAME%")
	vars.Set("FLAG", true)
	vars.Set("NEG", int64(-3))

	tests := []struct {
		name       string
		text       string
		want       string
		wantMisses []string
	}{
		{name: "no placeholders", text: "plain text", want: "plain text"},
		{name: "string variable", text: "hello %NAME%", want: "hello world"},
		{name: "repeated", text: "%NAME%-%NAME%", want: "world-world"},
		{name: "integer variable", text: "port=%PORT%", want: "port=8080"},
		{name: "values are not rescanned", text: "%RAW%", want: "%NAME%"},
		{name: "unknown stays literal", text: "x%MISSING%y", want: "x%MISSING%y", wantMisses: []string{"MISSING"}},
		{name: "bool is not expandable", text: "%FLAG%", want: "%FLAG%", wantMisses: []string{"FLAG"}},
		{name: "negative integer is not expandable", text: "%NEG%", want: "%NEG%", wantMisses: []string{"NEG"}},
		{name: "lazy match", text: "%NAME%B%", want: "worldB%"},
		{name: "single percent", text: "100% done", want: "100% done"},
		{name: "empty name", text: "%%", want: "%%", wantMisses: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, misses := Expand(vars, tt.text)
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if !slices.Equal(misses, tt.wantMisses) {
				t.Errorf("Expand(%q) misses = %v, want %v", tt.text, misses, tt.wantMisses)
			}
		})
	}
}

func TestSessionExpandLeavesMissesInPlace(t *testing.T) {
	s, _ := newTestSession(t)
	s.Vars.Set("A", "1")

	if got := s.Expand("%A% %B%"); got != "1 %B%" {
		t.Errorf("Expand() = %q, want %q", got, "1 %B%")
	}
}
