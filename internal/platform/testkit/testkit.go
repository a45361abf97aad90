// Package testkit provides testing helpers: assertions, hook swapping and
// PDBQT fixtures on afero filesystems
package testkit

import (
	"fmt"
	"strings"
	"testing"
)

// MustPanic asserts that fn panics and returns the recovered value
func MustPanic(t *testing.T, fn func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
	return nil
}

// MustNotPanic asserts that fn returns normally
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// maxShown bounds how much of a haystack a failed MustContain prints
const maxShown = 4 << 10

// MustContain asserts that haystack contains needle. Long haystacks, such as
// captured logs, are shown by their tail
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		return
	}
	shown := haystack
	if len(shown) > maxShown {
		shown = fmt.Sprintf("... (%d bytes cut)\n%s", len(shown)-maxShown, shown[len(shown)-maxShown:])
	}
	t.Fatalf("expected output to contain %q\n\n%s", needle, shown)
}
