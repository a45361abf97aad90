package zinc

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"

	perr "ligprep/internal/platform/errors"

	"github.com/spf13/afero"
)

// DefaultBaseURL is the public ZINC file server
const DefaultBaseURL = "http://files.docking.org/"

// Entry is one manifest line that names an archive
type Entry struct {
	Ordinal int    // 1-based position among entries
	Line    int    // 1-based line number in the manifest
	Raw     string // trimmed line
}

// ReadManifest returns the entries of the manifest at p. Blank lines and
// lines starting with '#' are skipped. A missing file is a MissingInput error
func ReadManifest(fsys afero.Fs, p string) ([]Entry, error) {
	f, err := fsys.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.WithField(perr.MissingInputf("manifest %s not found", p), "manifest")
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open manifest %s", p)
	}
	defer func() { _ = f.Close() }()

	var out []Entry
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, Entry{Ordinal: len(out) + 1, Line: line, Raw: s})
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "read manifest %s", p)
	}
	return out, nil
}

// Resolve turns a manifest line into an absolute http(s) URL.
// Relative lines are resolved against base
func Resolve(base *url.URL, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse url %q", raw)
	}
	if !u.IsAbs() {
		if base == nil {
			return nil, perr.InvalidArgf("relative url %q without base", raw)
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, perr.InvalidArgf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return nil, perr.InvalidArgf("missing host in %q", raw)
	}
	return u, nil
}

// TargetName is the local file name for the archive at raw: the final path
// segment, or downloaded_ligand_<ordinal>.pdbqt.gz when there is none
func TargetName(raw string, ordinal int) string {
	var p string
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else {
		p = raw
	}
	name := path.Base(p)
	if strings.HasSuffix(p, "/") || name == "." || name == "/" || name == ".." {
		name = ""
	}
	if name == "" {
		return fmt.Sprintf("downloaded_ligand_%d.pdbqt.gz", ordinal)
	}
	return name
}
