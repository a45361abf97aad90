package testkit

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// Record renders one MODEL/ENDMDL framed record. name may be empty
func Record(model int, name string, atoms int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MODEL %8d\n", model)
	if name != "" {
		fmt.Fprintf(&b, "REMARK  Name = %s\n", name)
	}
	b.WriteString("REMARK                            x       y       z     vdW  Elec       q    Type\n")
	for i := 1; i <= atoms; i++ {
		fmt.Fprintf(&b, "ATOM  %5d  C   LIG     1      %6.3f   0.000   0.000  0.00  0.00    +0.000 C\n", i, float64(i))
	}
	b.WriteString("ENDMDL\n")
	return b.String()
}

// Batch renders n named records; names are prefix + a six digit ordinal
func Batch(prefix string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString(Record(i, fmt.Sprintf("%s%06d", prefix, i), 2))
	}
	return b.String()
}

// Gzip compresses s
func Gzip(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// Zstd compresses s
func Zstd(t *testing.T, s string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	defer func() { _ = enc.Close() }()
	return enc.EncodeAll([]byte(s), nil)
}

// WriteFile writes data at path on fsys, creating parents
func WriteFile(t *testing.T, fsys afero.Fs, path string, data []byte) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Tree returns the sorted slash-separated paths of all regular files under root.
// A missing root gives an empty tree
func Tree(t *testing.T, fsys afero.Fs, root string) []string {
	t.Helper()
	var out []string
	if ok, _ := afero.DirExists(fsys, root); !ok {
		return out
	}
	err := afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, rerr := filepath.Rel(root, p)
			if rerr != nil {
				return rerr
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}
