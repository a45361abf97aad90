// Package listing enumerates directory entries on an afero filesystem
package listing

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one regular file found by List
type Entry struct {
	Name string // base name
	Path string // dir joined with Name
	Size int64
}

// Matcher selects entries by base name
type Matcher func(name string) bool

// Suffix matches names ending in any of the given suffixes
func Suffix(suffixes ...string) Matcher {
	return func(name string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				return true
			}
		}
		return false
	}
}

// Any matches every name
func Any(string) bool { return true }

// List returns the regular files directly under dir accepted by match, sorted by name.
// Names ending in ".part" are in-flight writes and never listed.
// A missing dir yields no entries and no error
func List(fsys afero.Fs, dir string, match Matcher) ([]Entry, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		if !fi.Mode().IsRegular() || strings.HasSuffix(fi.Name(), ".part") {
			continue
		}
		if match != nil && !match(fi.Name()) {
			continue
		}
		out = append(out, Entry{Name: fi.Name(), Path: filepath.Join(dir, fi.Name()), Size: fi.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Dirs returns the names of subdirectories directly under dir, sorted.
// A missing dir yields no names and no error
func Dirs(fsys afero.Fs, dir string) ([]string, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, fi := range infos {
		if fi.IsDir() {
			out = append(out, fi.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// NonEmpty reports whether dir exists and holds at least one entry of any kind
func NonEmpty(fsys afero.Fs, dir string) (bool, error) {
	ok, err := afero.DirExists(fsys, dir)
	if err != nil || !ok {
		return false, err
	}
	empty, err := afero.IsEmpty(fsys, dir)
	if err != nil {
		return false, err
	}
	return !empty, nil
}
