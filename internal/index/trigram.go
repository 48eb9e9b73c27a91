package index

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jarredhawkins/ltd-lsp/internal/parser"
)

// TrigramIndex finds textual references to names. Trigram postings narrow
// the search to candidate files; each candidate line is then verified with
// a boundary-aware regexp. Comment and blank lines are never searched.
type TrigramIndex struct {
	mu sync.RWMutex

	// trigram -> files containing it on some code line
	postings map[string]map[string]struct{}

	// file -> code lines, with non-code lines blanked to keep numbering
	lines map[string][]string

	// file -> distinct trigrams, so removal needs no rescan
	grams map[string][]string
}

// NewTrigramIndex creates an empty trigram index
func NewTrigramIndex() *TrigramIndex {
	return &TrigramIndex{
		postings: make(map[string]map[string]struct{}),
		lines:    make(map[string][]string),
		grams:    make(map[string][]string),
	}
}

// AddFile indexes a file's content, replacing any earlier version
func (t *TrigramIndex) AddFile(path string, content []byte) {
	lines := codeLines(content)
	grams := trigramsOf(lines)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked(path)
	t.lines[path] = lines
	t.grams[path] = grams
	for _, g := range grams {
		files := t.postings[g]
		if files == nil {
			files = make(map[string]struct{})
			t.postings[g] = files
		}
		files[path] = struct{}{}
	}
}

// RemoveFile drops a file from the index
func (t *TrigramIndex) RemoveFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(path)
}

func (t *TrigramIndex) removeLocked(path string) {
	for _, g := range t.grams[path] {
		if files, ok := t.postings[g]; ok {
			delete(files, path)
			if len(files) == 0 {
				delete(t.postings, g)
			}
		}
	}
	delete(t.grams, path)
	delete(t.lines, path)
}

// Search returns every whole-name occurrence of name, ordered by file,
// line and column
func (t *TrigramIndex) Search(name string) []*Reference {
	if name == "" {
		return nil
	}
	pattern := buildWordBoundaryPattern(name)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var refs []*Reference
	for _, path := range t.candidates(name) {
		for i, line := range t.lines[path] {
			for _, m := range pattern.FindAllStringSubmatchIndex(line, -1) {
				refs = append(refs, &Reference{
					FilePath: path,
					Line:     i + 1,
					Column:   m[2],
					Length:   m[3] - m[2],
					LineText: line,
				})
			}
		}
	}
	return refs
}

// candidates returns, sorted, the files holding every trigram of name.
// Names shorter than a trigram match every file.
func (t *TrigramIndex) candidates(name string) []string {
	var result []string
	if len(name) < 3 {
		for path := range t.lines {
			result = append(result, path)
		}
		sort.Strings(result)
		return result
	}

	needed := make([]map[string]struct{}, 0, len(name)-2)
	for i := 0; i+3 <= len(name); i++ {
		files, ok := t.postings[name[i:i+3]]
		if !ok {
			return nil
		}
		needed = append(needed, files)
	}
	sort.Slice(needed, func(i, j int) bool { return len(needed[i]) < len(needed[j]) })

	for path := range needed[0] {
		inAll := true
		for _, files := range needed[1:] {
			if _, ok := files[path]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			result = append(result, path)
		}
	}
	sort.Strings(result)
	return result
}

// codeLines splits content into lines, blanking any line that cannot
// hold a declaration or reference
func codeLines(content []byte) []string {
	var lines []string
	src := parser.NewReaderSource(bytes.NewReader(content))
	for {
		line, ok := src.NextLine()
		if !ok {
			break
		}
		if !parser.IsCodeLine(line) {
			line = ""
		}
		lines = append(lines, line)
	}
	return lines
}

func trigramsOf(lines []string) []string {
	seen := make(map[string]struct{})
	for _, line := range lines {
		for i := 0; i+3 <= len(line); i++ {
			seen[line[i:i+3]] = struct{}{}
		}
	}
	grams := make([]string, 0, len(seen))
	for g := range seen {
		grams = append(grams, g)
	}
	return grams
}

// buildWordBoundaryPattern matches pattern as a whole word.
// Ltd names may start or end with punctuation or contain spaces, where \b
// does not apply, so each edge only gets a boundary when it is a word char.
func buildWordBoundaryPattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	if isWordChar(pattern[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString("(")
	b.WriteString(regexp.QuoteMeta(pattern))
	b.WriteString(")")
	if isWordChar(pattern[len(pattern)-1]) {
		b.WriteString(`\b`)
	}
	return regexp.MustCompile(b.String())
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}
