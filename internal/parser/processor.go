package parser

import (
	"strings"

	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

// Extraction is a tag name located in a single line
type Extraction struct {
	Name   string
	Kind   types.TagKind
	Column int // 0-indexed byte offset of Name in the line
}

// Processor applies the per-keyword delimiter rules to a matched line
type Processor struct {
	keywords KeywordTable
}

// NewProcessor creates a processor over the given keyword table
func NewProcessor(keywords KeywordTable) *Processor {
	return &Processor{keywords: keywords}
}

// Process returns the tags declared by line, which has already matched kw.
// Lines missing a required delimiter produce nothing.
func (p *Processor) Process(kw Keyword, line string) []Extraction {
	switch kw {
	case KeywordEnum:
		return p.processEnum(line)
	case KeywordRfx:
		return p.processDecl(kw, types.KindRootFix, line)
	case KeywordVoc:
		return p.processDecl(kw, types.KindVocabulary, line)
	case KeywordVgrp:
		return p.processDecl(kw, types.KindVocabularyGroup, line)
	case KeywordGram:
		return p.processDecl(kw, types.KindGrammar, line)
	case KeywordVs:
		return p.processDecl(kw, types.KindSentence, line)
	case KeywordItem:
		return p.processItem(line)
	case KeywordRfref, KeywordVref, KeywordVgref, KeywordGref:
		// references never declare anything
		return nil
	default:
		return nil
	}
}

// ENUM{A, B, C}: every comma-separated member between the braces.
func (p *Processor) processEnum(line string) []Extraction {
	open, ok := indexFrom(line, 0, '{')
	if !ok {
		return nil
	}
	closing, ok := indexFrom(line, open+1, '}')
	if !ok {
		return nil
	}

	var out []Extraction
	segStart := open + 1
	for pos := open + 1; pos <= closing; pos++ {
		if pos < closing && line[pos] != ',' {
			continue
		}
		if name, col, ok := Extract(line, Span{Start: segStart, End: pos}); ok {
			out = append(out, Extraction{Name: name, Kind: types.KindKeyword, Column: col})
		}
		segStart = pos + 1
	}
	return out
}

// RFX name. / VOC name{ ...: the text between the keyword and the first
// '.' after it, or the first '{' when there is no '.'.
func (p *Processor) processDecl(kw Keyword, kind types.TagKind, line string) []Extraction {
	literal, ok := p.keywords.Literal(kw)
	if !ok {
		return nil
	}
	start, ok := endOf(line, literal)
	if !ok {
		return nil
	}

	end, ok := indexFrom(line, start, '.')
	if !ok {
		if end, ok = indexFrom(line, start, '{'); !ok {
			return nil
		}
	}
	return single(line, Span{Start: start, End: end}, kind)
}

// ITEM name. declares unless the line mentions REF anywhere;
// ITEM name: always declares.
func (p *Processor) processItem(line string) []Extraction {
	literal, ok := p.keywords.Literal(KeywordItem)
	if !ok {
		return nil
	}
	start, ok := endOf(line, literal)
	if !ok {
		return nil
	}

	if end, ok := indexFrom(line, start, '.'); ok {
		if strings.Contains(line, "REF") {
			return nil
		}
		return single(line, Span{Start: start, End: end}, types.KindItem)
	}
	if end, ok := indexFrom(line, start, ':'); ok {
		return single(line, Span{Start: start, End: end}, types.KindItem)
	}
	return nil
}

func single(line string, span Span, kind types.TagKind) []Extraction {
	name, col, ok := Extract(line, span)
	if !ok {
		return nil
	}
	return []Extraction{{Name: name, Kind: kind, Column: col}}
}
