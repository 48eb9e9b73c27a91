package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

// maxLineSize bounds a single line read by ReaderSource
const maxLineSize = 1024 * 1024

// LineSource yields input lines one at a time.
// The returned text has its line terminator stripped.
type LineSource interface {
	NextLine() (string, bool)
}

// TagSink receives each tag as it is found
type TagSink interface {
	EmitTag(sym *types.Symbol)
}

// SinkFunc adapts a function to TagSink
type SinkFunc func(sym *types.Symbol)

func (f SinkFunc) EmitTag(sym *types.Symbol) { f(sym) }

// Collector is a TagSink that keeps every tag in emission order
type Collector struct {
	Symbols []*types.Symbol
}

func (c *Collector) EmitTag(sym *types.Symbol) {
	c.Symbols = append(c.Symbols, sym)
}

// ReaderSource reads lines from an io.Reader. A line longer than
// maxLineSize is returned empty: it yields no tags but still counts toward
// line numbers, and reading carries on with the next line.
type ReaderSource struct {
	r    *bufio.Reader
	err  error
	done bool
}

// NewReaderSource creates a line source over r
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: bufio.NewReaderSize(r, 64*1024)}
}

func (rs *ReaderSource) NextLine() (string, bool) {
	if rs.done {
		return "", false
	}

	var line []byte
	started, tooLong := false, false
	for {
		chunk, more, err := rs.r.ReadLine()
		if err != nil {
			rs.done = true
			if !errors.Is(err, io.EOF) {
				rs.err = err
			}
			if !started {
				return "", false
			}
			break
		}
		started = true

		if !tooLong {
			if len(line)+len(chunk) > maxLineSize {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !more {
			break
		}
	}
	return strings.TrimSuffix(string(line), "\r"), true
}

// Err returns the first read error, if any
func (rs *ReaderSource) Err() error {
	return rs.err
}

// SliceSource serves lines from memory
type SliceSource struct {
	lines []string
	next  int
}

// NewSliceSource creates a line source over the given lines
func NewSliceSource(lines ...string) *SliceSource {
	return &SliceSource{lines: lines}
}

func (ss *SliceSource) NextLine() (string, bool) {
	if ss.next >= len(ss.lines) {
		return "", false
	}
	line := ss.lines[ss.next]
	ss.next++
	return line, true
}

// TraceSource logs every line pulled from the wrapped source
type TraceSource struct {
	Source LineSource
	Logf   func(format string, args ...any)
}

func (ts *TraceSource) NextLine() (string, bool) {
	line, ok := ts.Source.NextLine()
	if ok && ts.Logf != nil {
		ts.Logf("have line %s", line)
	}
	return line, ok
}

func (ts *TraceSource) Err() error {
	if e, ok := ts.Source.(errSource); ok {
		return e.Err()
	}
	return nil
}

// errSource is implemented by sources that can fail mid-stream
type errSource interface {
	Err() error
}
