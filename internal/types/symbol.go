package types

import (
	"cmp"
	"strings"
)

// Symbol is one tag extracted from an Ltd declaration
type Symbol struct {
	Name     string // e.g. "noun", "COLOR_RED"
	Kind     TagKind
	FilePath string // absolute
	Line     int    // 1-indexed
	Column   int    // 0-indexed byte offset into the line
	LineText string // the declaring line, used for tag file search patterns
}

// Reference is a whole-name occurrence of a name in a code line
type Reference struct {
	FilePath string
	Line     int // 1-indexed
	Column   int // 0-indexed
	Length   int
	LineText string
}

// CompareSymbols orders symbols by name, then file, line and column
func CompareSymbols(a, b *Symbol) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := strings.Compare(a.FilePath, b.FilePath); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	return cmp.Compare(a.Column, b.Column)
}
