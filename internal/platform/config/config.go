// Package config handles application configuration via environment variables
// with an optional lower-priority fallback source (an INI file)
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"ligprep/internal/platform/logger"
)

// Source supplies fallback values when the environment has none.
// Keys are relative to the Conf the source was attached to, e.g. "FETCH_WORKERS"
type Source interface {
	Lookup(key string) (string, bool)
}

// Conf is a namespaced view over environment variables (e.g., "LIGPREP_", "LIGPREP_PGSQL_")
// Use New() for global access, or Prefix("LIGPREP_") for module scopes.
type Conf struct {
	prefix string
	rel    string // prefix added since the fallback was attached
	fb     Source
}

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("PGSQL_")
func (c Conf) Prefix(p string) Conf {
	return Conf{prefix: c.prefix + p, rel: c.rel + p, fb: c.fb}
}

// WithFallback attaches a fallback source consulted after the environment.
// Keys passed to the source are relative to this Conf
func (c Conf) WithFallback(s Source) Conf {
	return Conf{prefix: c.prefix, fb: s}
}

// key composes the fully-qualified env var name
func (c Conf) key(k string) string { return c.prefix + k }

// get returns the trimmed env value, then the fallback value, then ""
func (c Conf) get(k string) string {
	if v := strings.TrimSpace(os.Getenv(c.key(k))); v != "" {
		return v
	}
	if c.fb != nil {
		if v, ok := c.fb.Lookup(c.rel + k); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Has reports whether key resolves to a non-empty value
func (c Conf) Has(key string) bool { return c.get(key) != "" }

// MustString panics if the given key is missing or empty
func (c Conf) MustString(key string) string {
	v := c.get(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MustInt panics if the given key is missing, empty, or not an int
func (c Conf) MustInt(key string) int {
	s := c.get(key)
	if s == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid int value")
	}
	return v
}

// MustDuration panics if the given key is missing, empty, or not a valid duration
func (c Conf) MustDuration(key string) time.Duration {
	s := c.MustString(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid duration (e.g., 250ms, 2s, 1h)")
	}
	return d
}

// Require ensures that all given keys are present (non-empty). Panics otherwise.
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.get(k) == "" {
			logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.get(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayURL returns the parsed absolute URL or def when missing; logs and returns def if invalid
func (c Conf) MayURL(key, def string) string {
	s := c.get(key)
	if s == "" {
		return def
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Str("default", def).Msg("invalid absolute URL; using default")
		return def
	}
	return s
}

// MayEnum ensures value is one of allowed; returns def if empty; panics if invalid.
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(v)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

type prefixedSource struct {
	prefix string
	src    Source
}

func (p prefixedSource) Lookup(key string) (string, bool) {
	if !strings.HasPrefix(key, p.prefix) {
		return "", false
	}
	return p.src.Lookup(strings.TrimPrefix(key, p.prefix))
}

// Prefixed mounts s under prefix, so a root Conf with this fallback resolves
// Prefix("LIGPREP_").MayInt("FETCH_WORKERS") against s's "FETCH_WORKERS"
func Prefixed(prefix string, s Source) Source {
	return prefixedSource{prefix: prefix, src: s}
}
