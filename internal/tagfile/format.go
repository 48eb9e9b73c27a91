// Package tagfile renders extracted Ltd tags in the formats editors and
// humans consume: ctags tag files, cross-reference tables and NDJSON.
package tagfile

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

// Format selects the tag file layout
type Format int

const (
	FormatCtags Format = iota
	FormatXref
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatCtags:
		return "ctags"
	case FormatXref:
		return "xref"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat maps a format name to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ctags", "tags", "u-ctags":
		return FormatCtags, nil
	case "xref", "x":
		return FormatXref, nil
	case "json", "ndjson":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unknown tag file format %q (want ctags, xref or json)", s)
	}
}

// Options control how tags are written
type Options struct {
	// Sorted orders entries by name, then file and line
	Sorted bool
	// BaseDir, when set, makes file paths relative to it
	BaseDir string
	// Program is reported in the ctags pseudo tags
	Program string
}

// Write renders syms to w in the given format
func Write(w io.Writer, format Format, syms []*types.Symbol, opts Options) error {
	switch format {
	case FormatCtags:
		return WriteCtags(w, syms, opts)
	case FormatXref:
		return WriteXref(w, syms, opts)
	case FormatJSON:
		return WriteJSON(w, syms, opts)
	default:
		return fmt.Errorf("unsupported format %v", format)
	}
}

// prepare copies, optionally sorts, and resolves display paths
func prepare(syms []*types.Symbol, opts Options) ([]*types.Symbol, []string) {
	out := make([]*types.Symbol, len(syms))
	copy(out, syms)
	if opts.Sorted {
		slices.SortStableFunc(out, types.CompareSymbols)
	}

	paths := make([]string, len(out))
	for i, sym := range out {
		paths[i] = displayPath(sym.FilePath, opts.BaseDir)
	}
	return out, paths
}

func displayPath(path, base string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
