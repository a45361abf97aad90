package strings

import "testing"

func TestSQLNull(t *testing.T) {
	t.Parallel()

	if SQLNull("") != nil || SQLNull("  \t") != nil {
		t.Fatalf("blank strings should map to nil")
	}
	if got := SQLNull("boom"); got != "boom" {
		t.Fatalf("SQLNull(boom) = %v", got)
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"abcdef", 3, "abc"},
		{"abc", 10, "abc"},
		{"abc", 0, ""},
		{"héllo", 2, "h"}, // é is two bytes, never split
		{"héllo", 3, "hé"},
	}
	for _, c := range cases {
		if got := Clip(c.in, c.n); got != c.want {
			t.Fatalf("Clip(%q,%d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}
