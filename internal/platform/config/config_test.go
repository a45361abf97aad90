package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	kit "ligprep/internal/platform/testkit"
)

type mapSource map[string]string

func (m mapSource) Lookup(k string) (string, bool) {
	v, ok := m[k]
	return v, ok
}

func TestPrefixAndKey(t *testing.T) {
	root := New()
	app := root.Prefix("LIGPREP_")
	if got := app.key("MANIFEST"); got != "LIGPREP_MANIFEST" {
		t.Fatalf("key() = %q, want %q", got, "LIGPREP_MANIFEST")
	}
	pg := app.Prefix("PGSQL_")
	if got := pg.key("DBURL"); got != "LIGPREP_PGSQL_DBURL" {
		t.Fatalf("nested key() = %q, want %q", got, "LIGPREP_PGSQL_DBURL")
	}
}

// Must* panics

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  ligprep ")
	if got := c.MustString("NAME"); got != "ligprep" {
		t.Fatalf("MustString = %q, want %q", got, "ligprep")
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("SVC_")
	t.Setenv("SVC_WORKERS", "  8 ")
	if got := c.MustInt("WORKERS"); got != 8 {
		t.Fatalf("MustInt = %d, want %d", got, 8)
	}
	kit.MustPanic(t, func() { _ = c.MustInt("MISSING") })
	t.Setenv("SVC_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestMustDuration(t *testing.T) {
	c := New().Prefix("D_")
	t.Setenv("D_TIMEOUT", " 250ms ")
	if got := c.MustDuration("TIMEOUT"); got != 250*time.Millisecond {
		t.Fatalf("MustDuration = %v, want %v", got, 250*time.Millisecond)
	}
	t.Setenv("D_BAD", "nope")
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
}

func TestRequire(t *testing.T) {
	c := New().Prefix("REQ_")
	t.Setenv("REQ_A", "x")
	t.Setenv("REQ_B", "y")
	c.Require("A", "B")
	kit.MustPanic(t, func() { c.Require("A", "C") })

	t.Setenv("REQ_WS", "   ")
	kit.MustPanic(t, func() { c.Require("WS") })
}

// May* fallbacks

func TestMayString(t *testing.T) {
	c := New().Prefix("S_")
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q, want %q", got, "def")
	}
	t.Setenv("S_NAME", " ligprep ")
	if got := c.MayString("NAME", "x"); got != "ligprep" {
		t.Fatalf("MayString value = %q, want %q", got, "ligprep")
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("I_")
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d, want %d", got, 9)
	}
	t.Setenv("I_OK", " 7 ")
	if got := c.MayInt("OK", 0); got != 7 {
		t.Fatalf("MayInt ok = %d, want %d", got, 7)
	}
	t.Setenv("I_BAD", "x")
	if got := c.MayInt("BAD", 3); got != 3 {
		t.Fatalf("MayInt bad -> default = %d, want %d", got, 3)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	if got := c.MayBool("MISSING", true); got != true {
		t.Fatalf("MayBool default true expected")
	}
	t.Setenv("B_T", "true")
	if got := c.MayBool("T", false); got != true {
		t.Fatalf("MayBool true expected")
	}
	t.Setenv("B_BAD", "nope")
	if got := c.MayBool("BAD", false); got != false {
		t.Fatalf("MayBool bad -> default false expected")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("DUR_")
	if got := c.MayDuration("MISS", 5*time.Second); got != 5*time.Second {
		t.Fatalf("MayDuration default expected")
	}
	t.Setenv("DUR_OK", "150ms")
	if got := c.MayDuration("OK", time.Second); got != 150*time.Millisecond {
		t.Fatalf("MayDuration ok = %v, want %v", got, 150*time.Millisecond)
	}
	t.Setenv("DUR_BAD", "nope")
	if got := c.MayDuration("BAD", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration bad -> default expected")
	}
}

func TestMayURL(t *testing.T) {
	c := New().Prefix("U_")
	if got := c.MayURL("MISS", "http://files.docking.org/"); got != "http://files.docking.org/" {
		t.Fatalf("MayURL default = %q", got)
	}
	t.Setenv("U_BASE", "https://example.com/3D/")
	if got := c.MayURL("BASE", ""); got != "https://example.com/3D/" {
		t.Fatalf("MayURL value = %q", got)
	}
	t.Setenv("U_REL", "/relative")
	if got := c.MayURL("REL", "http://d/"); got != "http://d/" {
		t.Fatalf("MayURL relative -> default expected, got %q", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	if got := c.MayEnum("MISS", "all", "all", "fetch"); got != "all" {
		t.Fatalf("MayEnum default = %q, want %q", got, "all")
	}
	t.Setenv("E_STAGE", "Fetch")
	if got := c.MayEnum("STAGE", "all", "all", "fetch"); got != "fetch" {
		t.Fatalf("MayEnum allowed value = %q, want %q", got, "fetch")
	}
	t.Setenv("E_BAD", "dock")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "all", "all", "fetch") })
	if got := c.MayEnum("MISSING", "", "all"); got != "" {
		t.Fatalf("MayEnum with empty def and missing env = %q, want empty", got)
	}
}

func TestFallbackSource(t *testing.T) {
	c := New().Prefix("LP_").WithFallback(mapSource{
		"FETCH_WORKERS": "12",
		"PGSQL_DBURL":   "postgres://x",
	})

	if got := c.MayInt("FETCH_WORKERS", 1); got != 12 {
		t.Fatalf("fallback MayInt = %d, want 12", got)
	}
	// env wins over the fallback
	t.Setenv("LP_FETCH_WORKERS", "3")
	if got := c.MayInt("FETCH_WORKERS", 1); got != 3 {
		t.Fatalf("env MayInt = %d, want 3", got)
	}
	// nested prefixes are relative to the attach point
	if got := c.Prefix("PGSQL_").MayString("DBURL", ""); got != "postgres://x" {
		t.Fatalf("nested fallback = %q", got)
	}
	if !c.Has("FETCH_WORKERS") || c.Has("NOPE") {
		t.Fatalf("Has mismatch")
	}
}

func TestParseIni(t *testing.T) {
	t.Setenv("LIGPREP_TEST_ROOT", "/scratch")
	in := strings.NewReader("[pipeline]\nfetch-workers = 16\nsplit-dir = $LIGPREP_TEST_ROOT/split\n")
	src, err := ParseIni(in, "pipeline", "FETCH_WORKERS", "SPLIT_DIR", "RAW_DIR")
	if err != nil {
		t.Fatalf("ParseIni: %v", err)
	}
	if v, ok := src.Lookup("FETCH_WORKERS"); !ok || v != "16" {
		t.Fatalf("FETCH_WORKERS = %q,%v", v, ok)
	}
	if v, _ := src.Lookup("SPLIT_DIR"); v != "/scratch/split" {
		t.Fatalf("SPLIT_DIR = %q, want env-expanded path", v)
	}
	if _, ok := src.Lookup("RAW_DIR"); ok {
		t.Fatalf("RAW_DIR should be absent")
	}
	if src.Len() != 2 {
		t.Fatalf("Len = %d, want 2", src.Len())
	}
}

func TestLoadIni_MissingFileIsEmpty(t *testing.T) {
	src, err := LoadIni(filepath.Join(t.TempDir(), "nope.ini"), "pipeline", "RAW_DIR")
	if err != nil {
		t.Fatalf("LoadIni: %v", err)
	}
	if src.Len() != 0 {
		t.Fatalf("expected empty source")
	}
}

func TestPrefixedSource(t *testing.T) {
	c := New().WithFallback(Prefixed("LIGPREP_", mapSource{"RAW_DIR": "/scratch/raw"}))
	if got := c.Prefix("LIGPREP_").MayString("RAW_DIR", ""); got != "/scratch/raw" {
		t.Fatalf("mounted lookup = %q", got)
	}
	if got := c.MayString("RAW_DIR", "def"); got != "def" {
		t.Fatalf("unprefixed lookup should miss, got %q", got)
	}
}
