package types

import (
	"fmt"
	"strings"
)

// TagKind categorizes Ltd tags
type TagKind int

const (
	KindRootFix         TagKind = iota // RFX declarations
	KindVocabulary                     // VOC declarations
	KindVocabularyGroup                // VGRP declarations
	KindGrammar                        // GRAM declarations
	KindSentence                       // VS declarations
	KindKeyword                        // Members of an ENUM{...} list
	KindItem                           // ITEM declarations
)

func (k TagKind) String() string {
	if def, ok := lookupKind(k); ok {
		return def.Name
	}
	return "unknown"
}

// Letter returns the one-letter code used in kind specs and tag files
func (k TagKind) Letter() byte {
	if def, ok := lookupKind(k); ok {
		return def.Letter
	}
	return '?'
}

// KindDef describes one externally visible tag kind
type KindDef struct {
	Kind             TagKind
	EnabledByDefault bool
	Letter           byte
	Name             string
	Description      string
}

// KindTable is the ordered set of kinds the Ltd scanner can produce
type KindTable []KindDef

var defaultKinds = KindTable{
	{KindRootFix, true, 'r', "rfx", "root_fix"},
	{KindVocabulary, true, 'v', "voc", "vocabulary"},
	{KindVocabularyGroup, true, 'p', "voc_group", "vocabulary_group"},
	{KindGrammar, true, 'g', "gram", "grammar"},
	{KindSentence, false, 's', "sentense", "vocabulary_sentense"},
	{KindKeyword, true, 'k', "keyword", "enumerator"},
	{KindItem, true, 'i', "item", "item"},
}

// DefaultKinds returns a copy of the built-in kind table
func DefaultKinds() KindTable {
	out := make(KindTable, len(defaultKinds))
	copy(out, defaultKinds)
	return out
}

func lookupKind(k TagKind) (KindDef, bool) {
	for _, def := range defaultKinds {
		if def.Kind == k {
			return def, true
		}
	}
	return KindDef{}, false
}

// ByLetter finds the kind registered under the given letter
func (t KindTable) ByLetter(letter byte) (KindDef, bool) {
	for _, def := range t {
		if def.Letter == letter {
			return def, true
		}
	}
	return KindDef{}, false
}

// Defaults returns the set of kinds enabled by default
func (t KindTable) Defaults() KindSet {
	var set KindSet
	for _, def := range t {
		if def.EnabledByDefault {
			set = set.With(def.Kind)
		}
	}
	return set
}

// All returns the set containing every kind in the table
func (t KindTable) All() KindSet {
	var set KindSet
	for _, def := range t {
		set = set.With(def.Kind)
	}
	return set
}

// KindSet is an immutable bit set of enabled tag kinds
type KindSet uint32

// Has reports whether the kind is enabled
func (s KindSet) Has(k TagKind) bool {
	return s&(1<<uint(k)) != 0
}

// With returns a copy of the set with k enabled
func (s KindSet) With(k TagKind) KindSet {
	return s | 1<<uint(k)
}

// Without returns a copy of the set with k disabled
func (s KindSet) Without(k TagKind) KindSet {
	return s &^ (1 << uint(k))
}

// Spec renders the set as an absolute kind spec ("=rvpg...")
func (s KindSet) Spec(table KindTable) string {
	var b strings.Builder
	b.WriteByte('=')
	for _, def := range table {
		if s.Has(def.Kind) {
			b.WriteByte(def.Letter)
		}
	}
	return b.String()
}

// ParseKindSpec applies a ctags-style kind spec to base.
//
// A spec starting with '+' or '-' modifies base; any other spec (including
// one starting with '=') starts from the empty set. Letters following '+'
// are enabled, letters following '-' disabled, and '*' stands for every
// kind in the table.
func ParseKindSpec(table KindTable, base KindSet, spec string) (KindSet, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return base, nil
	}

	set := base
	switch spec[0] {
	case '+', '-':
	case '=':
		set = 0
		spec = spec[1:]
	default:
		set = 0
	}

	enable := true
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		switch c {
		case '+':
			enable = true
		case '-':
			enable = false
		case '*':
			for _, def := range table {
				set = apply(set, def.Kind, enable)
			}
		default:
			def, ok := table.ByLetter(c)
			if !ok {
				return base, fmt.Errorf("unknown kind letter %q in %q", c, spec)
			}
			set = apply(set, def.Kind, enable)
		}
	}
	return set, nil
}

func apply(set KindSet, k TagKind, enable bool) KindSet {
	if enable {
		return set.With(k)
	}
	return set.Without(k)
}
