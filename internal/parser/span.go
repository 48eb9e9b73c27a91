package parser

import "strings"

// Span is a half-open byte range [Start, End) of a line
type Span struct {
	Start int
	End   int
}

// valid reports whether the span lies inside a line of length n and is non-empty
func (s Span) valid(n int) bool {
	return s.Start >= 0 && s.End <= n && s.Start < s.End
}

// Extract trims whitespace from both ends of the span and returns the
// remaining text together with its starting column.
//
// The two ends are trimmed independently: the start walks forward and the
// end walks backward, each without regard to the other. A span that is all
// whitespace therefore crosses over and yields nothing.
func Extract(line string, span Span) (string, int, bool) {
	if !span.valid(len(line)) {
		return "", 0, false
	}

	start := span.Start
	for start < len(line) && isSpace(line[start]) {
		start++
	}
	end := span.End
	for end > 0 && isSpace(line[end-1]) {
		end--
	}

	if start >= end {
		return "", 0, false
	}
	return line[start:end], start, true
}

// indexFrom finds the first c in line at or after pos
func indexFrom(line string, pos int, c byte) (int, bool) {
	if pos < 0 || pos > len(line) {
		return 0, false
	}
	i := strings.IndexByte(line[pos:], c)
	if i < 0 {
		return 0, false
	}
	return pos + i, true
}

// endOf finds the position just past the first occurrence of literal
func endOf(line, literal string) (int, bool) {
	i := strings.Index(line, literal)
	if i < 0 || literal == "" {
		return 0, false
	}
	return i + len(literal), true
}
