package time

import (
	"testing"
	"time"
)

func TestHuman(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0.0s"},
		{-time.Second, "0.0s"},
		{12300 * time.Millisecond, "12.3s"},
		{4*time.Minute + 5*time.Second, "4m 5.0s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 2m 3.0s"},
		{26 * time.Hour, "26h 0m 0.0s"},
	}
	for _, c := range cases {
		if got := Human(c.in); got != c.want {
			t.Fatalf("Human(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

