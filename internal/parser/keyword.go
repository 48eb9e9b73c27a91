package parser

import "strings"

// Keyword identifies a declaration keyword of the Ltd language
type Keyword int

const (
	KeywordEnum Keyword = iota
	KeywordRfx
	KeywordVoc
	KeywordVgrp
	KeywordGram
	KeywordVs
	KeywordItem
	KeywordRfref
	KeywordVref
	KeywordVgref
	KeywordGref
)

func (k Keyword) String() string {
	switch k {
	case KeywordEnum:
		return "ENUM"
	case KeywordRfx:
		return "RFX"
	case KeywordVoc:
		return "VOC"
	case KeywordVgrp:
		return "VGRP"
	case KeywordGram:
		return "GRAM"
	case KeywordVs:
		return "VS"
	case KeywordItem:
		return "ITEM"
	case KeywordRfref:
		return "RFREF"
	case KeywordVref:
		return "VREF"
	case KeywordVgref:
		return "VGREF"
	case KeywordGref:
		return "GREF"
	default:
		return "unknown"
	}
}

// KeywordEntry is one row of the keyword table
type KeywordEntry struct {
	Kind    Keyword
	Literal string
	Enabled bool
}

// KeywordTable lists keywords in match priority order.
// The first enabled entry whose literal occurs in a line wins.
type KeywordTable []KeywordEntry

// DefaultKeywords returns the Ltd keyword table.
// Reference keywords and VS are listed but never matched.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		{KeywordEnum, "ENUM", true},
		{KeywordRfx, "RFX", true},
		{KeywordVoc, "VOC", true},
		{KeywordVgrp, "VGRP", true},
		{KeywordGram, "GRAM", true},
		{KeywordVs, "VS", false},
		{KeywordItem, "ITEM", true},
		{KeywordRfref, "RFREF", false},
		{KeywordVref, "VREF", false},
		{KeywordVgref, "VGREF", false},
		{KeywordGref, "GREF", false},
	}
}

// Match returns the first enabled keyword whose literal is a substring of line.
// Containment is not whole-word: "VOCAB" matches VOC.
func (t KeywordTable) Match(line string) (Keyword, bool) {
	for _, entry := range t {
		if entry.Enabled && strings.Contains(line, entry.Literal) {
			return entry.Kind, true
		}
	}
	return 0, false
}

// Literal returns the source text of the keyword
func (t KeywordTable) Literal(k Keyword) (string, bool) {
	for _, entry := range t {
		if entry.Kind == k {
			return entry.Literal, true
		}
	}
	return "", false
}
