package parser

import (
	"path/filepath"
	"strings"
)

// IsCodeLine reports whether line may hold a declaration.
// Blank lines and lines whose first non-space character is '#' are skipped;
// a "#!" interpreter line is just another comment.
func IsCodeLine(line string) bool {
	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	if i == len(line) {
		return false
	}
	return line[i] != '#'
}

// IsLtdFile checks if a file is an Ltd source file
func IsLtdFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ltd")
}

// isSpace matches the C locale isspace set
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
