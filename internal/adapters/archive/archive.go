// Package archive decompresses downloaded library archives
package archive

import (
	"io"
	"path/filepath"
	"strings"

	perr "ligprep/internal/platform/errors"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// Codec opens a decompressing reader over r
type Codec interface {
	Ext() string
	NewReader(r io.Reader) (io.ReadCloser, error)
}

type gzipCodec struct{}

func (gzipCodec) Ext() string { return ".gz" }

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) }

type zstdCodec struct{}

func (zstdCodec) Ext() string { return ".zst" }

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

// Gzip and Zstd are the supported codecs
var (
	Gzip Codec = gzipCodec{}
	Zstd Codec = zstdCodec{}
)

var codecs = []Codec{Gzip, Zstd}

// Exts lists the archive extensions handled by this package
func Exts() []string {
	out := make([]string, 0, len(codecs))
	for _, c := range codecs {
		out = append(out, c.Ext())
	}
	return out
}

// For returns the codec for name by extension
func For(name string) (Codec, bool) {
	for _, c := range codecs {
		if strings.HasSuffix(name, c.Ext()) {
			return c, true
		}
	}
	return nil, false
}

// OutputName strips the archive extension from name
func OutputName(name string) string {
	if c, ok := For(name); ok {
		return strings.TrimSuffix(name, c.Ext())
	}
	return name
}

// Decompressor writes decompressed copies of archives
type Decompressor struct {
	FS afero.Fs
}

// NewDecompressor creates a decompressor on fsys
func NewDecompressor(fsys afero.Fs) *Decompressor { return &Decompressor{FS: fsys} }

// Decompress writes the decoded content of src into outDir and returns the
// output path and its size. src is never modified. The output appears only
// once the whole stream decoded cleanly
func (d *Decompressor) Decompress(src, outDir string) (string, int64, error) {
	c, ok := For(src)
	if !ok {
		return "", 0, perr.InvalidArgf("archive: unsupported extension for %s", filepath.Base(src))
	}
	in, err := d.FS.Open(src)
	if err != nil {
		return "", 0, perr.Wrapf(err, perr.ErrorCodeIO, "archive: open %s", src)
	}
	defer func() { _ = in.Close() }()

	zr, err := c.NewReader(in)
	if err != nil {
		return "", 0, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "archive: corrupt header in %s", filepath.Base(src))
	}
	defer func() { _ = zr.Close() }()

	if err := d.FS.MkdirAll(outDir, 0o755); err != nil {
		return "", 0, perr.Wrapf(err, perr.ErrorCodeIO, "archive: mkdir %s", outDir)
	}
	dest := filepath.Join(outDir, OutputName(filepath.Base(src)))
	out, err := afero.TempFile(d.FS, outDir, filepath.Base(dest)+".*.part")
	if err != nil {
		return "", 0, perr.Wrapf(err, perr.ErrorCodeIO, "archive: create temp for %s", dest)
	}
	tmp := out.Name()
	n, werr := io.Copy(out, zr)
	cerr := out.Close()
	if werr != nil {
		_ = d.FS.Remove(tmp)
		return "", 0, perr.Wrapf(werr, perr.ErrorCodeInvalidArgument, "archive: decode %s", filepath.Base(src))
	}
	if cerr != nil {
		_ = d.FS.Remove(tmp)
		return "", 0, perr.Wrapf(cerr, perr.ErrorCodeIO, "archive: close %s", tmp)
	}
	if err := d.FS.Chmod(tmp, 0o644); err != nil {
		_ = d.FS.Remove(tmp)
		return "", 0, perr.Wrapf(err, perr.ErrorCodeIO, "archive: chmod %s", tmp)
	}
	if err := d.FS.Rename(tmp, dest); err != nil {
		_ = d.FS.Remove(tmp)
		return "", 0, perr.Wrapf(err, perr.ErrorCodeIO, "archive: rename %s", tmp)
	}
	return dest, n, nil
}
