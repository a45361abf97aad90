package pdbqt

import (
	"path/filepath"
	"strings"
)

// UnknownTranche is used when a batch name carries no tranche
const UnknownTranche = "unknown_tranche"

// knownSuffixes are stripped from a batch name, outermost first
var knownSuffixes = []string{".gz", ".zst", Ext}

// TrancheOf derives the tranche from an archive or batch file name:
// ABCDEF.xaa.pdbqt.gz and ABCDEF.xaa.pdbqt both give ABCDEF.xaa.
// The stem is kept verbatim so distinct batches never share a directory.
// A stem without a '.', or one that cannot name a single directory,
// maps to UnknownTranche
func TrancheOf(name string) string {
	stem := filepath.Base(name)
	for _, suf := range knownSuffixes {
		stem = strings.TrimSuffix(stem, suf)
	}
	switch {
	case stem == ".", stem == "..", !strings.Contains(stem, "."):
		return UnknownTranche
	case strings.ContainsAny(stem, `/\`+"\x00"):
		return UnknownTranche
	}
	return stem
}
