package pdbqt

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Ext is the extension of every record file
const Ext = ".pdbqt"

// pool of fresh folding chains; transformers carry state
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,                          // split accents from letters
			runes.Remove(runes.In(unicode.Mn)), // drop the accents
			width.Fold,                         // fullwidth to ASCII
		)
	},
}

var zincID = regexp.MustCompile(`ZINC\d+`)

// Sanitize folds s to ASCII where possible and keeps only [A-Za-z0-9._-]
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	folded, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if safeRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}

// FileName picks the output name for a record: the sanitized id, else the
// first ZINC id on a REMARK or COMPND line, else record_<index>
func FileName(id string, lines []string, index int) string {
	if s := Sanitize(id); s != "" {
		return s + Ext
	}
	if s := RemarkID(lines); s != "" {
		return s + Ext
	}
	return fmt.Sprintf("record_%06d%s", index, Ext)
}

// RemarkID returns the first ZINC id found on a REMARK or COMPND line
func RemarkID(lines []string) string {
	for _, l := range lines {
		s := strings.TrimLeft(l, " \t")
		if !strings.HasPrefix(s, "REMARK") && !strings.HasPrefix(s, "COMPND") {
			continue
		}
		if m := zincID.FindString(s); m != "" {
			return m
		}
	}
	return ""
}
