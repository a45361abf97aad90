package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	ini "github.com/lars-t-hansen/ini"
)

// IniSource is a Source backed by one section of an INI file.
// INI keys are lower-case with dashes ("fetch-workers") and are looked up
// with env-style names ("FETCH_WORKERS")
type IniSource struct {
	values map[string]string
}

// Lookup implements Source
func (s *IniSource) Lookup(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Len returns the number of keys that had a value in the file
func (s *IniSource) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// ParseIni reads section from r, declaring the given env-style keys.
// Keys missing from the file are simply absent from the source
func ParseIni(r io.Reader, section string, keys ...string) (*IniSource, error) {
	p := ini.NewParser()
	sec := p.AddSection(section)
	fields := make(map[string]*ini.Field, len(keys))
	for _, k := range keys {
		fields[k] = sec.AddString(iniName(k))
	}
	store, err := p.Parse(r)
	if err != nil {
		return nil, err
	}
	out := &IniSource{values: map[string]string{}}
	for k, f := range fields {
		if f.Present(store) {
			out.values[k] = os.ExpandEnv(f.StringVal(store))
		}
	}
	return out, nil
}

// LoadIni opens path and parses it with ParseIni.
// A missing file is not an error and yields an empty source
func LoadIni(path, section string, keys ...string) (*IniSource, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &IniSource{values: map[string]string{}}, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseIni(f, section, keys...)
}

// iniName maps FETCH_WORKERS to fetch-workers
func iniName(envKey string) string {
	return strings.ReplaceAll(strings.ToLower(envKey), "_", "-")
}
