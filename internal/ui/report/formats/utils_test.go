package formats

import (
	"testing"

	"usagelens/internal/engine/aggregate"
)

func TestRelPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		root     string
		path     string
		expected string
	}{
		{name: "inside root", root: "/repo", path: "/repo/src/App.tsx", expected: "src/App.tsx"},
		{name: "outside root", root: "/repo", path: "/other/App.tsx", expected: "/other/App.tsx"},
		{name: "no root", root: "", path: "src/App.tsx", expected: "src/App.tsx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := relPath(tc.root, tc.path); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestEscapeCell(t *testing.T) {
	t.Parallel()

	got := escapeCell("parse failed | line 3\n  unexpected token")
	expected := "parse failed \\| line 3 unexpected token"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestSortedByCount(t *testing.T) {
	t.Parallel()

	in := []aggregate.ComponentUsage{
		{Name: "Card", Count: 2},
		{Name: "Button", Count: 5},
		{Name: "Alert", Count: 2},
	}
	got := sortedByCount(in)
	want := []string{"Button", "Alert", "Card"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("expected order %v, got %+v", want, got)
		}
	}
	if in[0].Name != "Card" {
		t.Fatal("input slice should not be reordered")
	}
}
