package parser

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

// Scanner parses Ltd files line by line
type Scanner struct {
	keywords  KeywordTable
	processor *Processor
	kinds     types.KindSet
	trace     func(format string, args ...any)
}

// NewScanner creates a scanner emitting only the kinds in enabled
func NewScanner(keywords KeywordTable, enabled types.KindSet) *Scanner {
	return &Scanner{
		keywords:  keywords,
		processor: NewProcessor(keywords),
		kinds:     enabled,
	}
}

// NewDefaultScanner creates a scanner with the built-in keyword and kind tables
func NewDefaultScanner() *Scanner {
	return NewScanner(DefaultKeywords(), types.DefaultKinds().Defaults())
}

// SetTrace makes Run log every line it reads through logf. logf may be
// called from several goroutines when files are parsed in parallel.
func (s *Scanner) SetTrace(logf func(format string, args ...any)) {
	s.trace = logf
}

// Kinds returns the set of kinds this scanner emits
func (s *Scanner) Kinds() types.KindSet {
	return s.kinds
}

// ScanLine returns the tags declared on a single line.
// No state is carried between calls.
func (s *Scanner) ScanLine(line string) []Extraction {
	if !IsCodeLine(line) {
		return nil
	}
	kw, ok := s.keywords.Match(line)
	if !ok {
		return nil
	}

	found := s.processor.Process(kw, line)
	out := found[:0]
	for _, ex := range found {
		if s.kinds.Has(ex.Kind) {
			out = append(out, ex)
		}
	}
	return out
}

// Run pulls lines from src until it is exhausted and emits every tag to sink.
// Malformed lines yield nothing; only a read error from src is returned.
func (s *Scanner) Run(filePath string, src LineSource, sink TagSink) error {
	if _, traced := src.(*TraceSource); s.trace != nil && !traced {
		src = &TraceSource{Source: src, Logf: s.trace}
	}

	lineNum := 0
	for {
		line, ok := src.NextLine()
		if !ok {
			break
		}
		lineNum++

		for _, ex := range s.ScanLine(line) {
			sink.EmitTag(&types.Symbol{
				Name:     ex.Name,
				Kind:     ex.Kind,
				FilePath: filePath,
				Line:     lineNum,
				Column:   ex.Column,
				LineText: line,
			})
		}
	}

	if e, ok := src.(errSource); ok {
		if err := e.Err(); err != nil {
			return fmt.Errorf("read %s: %w", filePath, err)
		}
	}
	return nil
}

// Parse scans the file content and returns all discovered symbols
func (s *Scanner) Parse(filePath string, content []byte) []*types.Symbol {
	var c Collector
	// bytes.Reader never fails
	_ = s.Run(filePath, NewReaderSource(bytes.NewReader(content)), &c)
	return c.Symbols
}

// ParseFile reads and parses an Ltd file
func (s *Scanner) ParseFile(filePath string) ([]*types.Symbol, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c Collector
	if err := s.Run(filePath, NewReaderSource(f), &c); err != nil {
		return c.Symbols, err
	}
	return c.Symbols, nil
}
