package lsp

import (
	"os"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/jarredhawkins/ltd-lsp/internal/index"
	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

// uriToPath returns the filesystem path of a file URI. Other schemes,
// such as untitled: buffers, are returned unchanged so they still key the
// document store.
func uriToPath(u protocol.DocumentURI) string {
	if !strings.HasPrefix(string(u), uri.FileScheme+"://") {
		return string(u)
	}
	return u.Filename()
}

func pathToURI(path string) protocol.DocumentURI {
	return uri.File(path)
}

// symbolKind maps a tag kind to the closest LSP symbol kind
func symbolKind(k types.TagKind) protocol.SymbolKind {
	switch k {
	case types.KindRootFix:
		return protocol.SymbolKindNamespace
	case types.KindVocabulary:
		return protocol.SymbolKindClass
	case types.KindVocabularyGroup:
		return protocol.SymbolKindModule
	case types.KindGrammar:
		return protocol.SymbolKindInterface
	case types.KindKeyword:
		return protocol.SymbolKindEnumMember
	case types.KindItem:
		return protocol.SymbolKindField
	default:
		return protocol.SymbolKindString
	}
}

// span is a single-line range. Lines are 1-indexed on our side.
func span(path string, line, col, length int) protocol.Location {
	l := uint32(line - 1)
	return protocol.Location{
		URI: pathToURI(path),
		Range: protocol.Range{
			Start: protocol.Position{Line: l, Character: uint32(col)},
			End:   protocol.Position{Line: l, Character: uint32(col + length)},
		},
	}
}

func symbolToLocation(sym *index.Symbol) protocol.Location {
	return span(sym.FilePath, sym.Line, sym.Column, len(sym.Name))
}

func referenceToLocation(ref *index.Reference) protocol.Location {
	return span(ref.FilePath, ref.Line, ref.Column, ref.Length)
}

// symbolToInformation reports the tag kind name as the container so
// clients can tell a voc from a voc_group at a glance
func symbolToInformation(sym *index.Symbol) protocol.SymbolInformation {
	return protocol.SymbolInformation{
		Name:          sym.Name,
		Kind:          symbolKind(sym.Kind),
		Location:      symbolToLocation(sym),
		ContainerName: sym.Kind.String(),
	}
}

// extractWordAt returns the Ltd name under the cursor. char is a byte
// offset; a cursor on the terminator right after a name selects the name.
func extractWordAt(content string, line, char int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	text := strings.TrimSuffix(lines[line], "\r")
	if text == "" || char < 0 {
		return ""
	}
	char = min(char, len(text)-1)

	if !isNameChar(text[char]) && char > 0 && isNameChar(text[char-1]) {
		char--
	}

	start, end := char, char
	for start > 0 && isNameChar(text[start-1]) {
		start--
	}
	for end < len(text) && isNameChar(text[end]) {
		end++
	}
	return text[start:end]
}

// isNameChar reports whether c can be part of an Ltd name. Bytes of
// multi-byte UTF-8 sequences count so that non-ASCII names stay whole.
func isNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c >= 0x80
}

func readFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
