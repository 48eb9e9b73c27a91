package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/jarredhawkins/ltd-lsp/internal/index"
	"github.com/jarredhawkins/ltd-lsp/internal/parser"
)

const colorsLtd = `# colors
RFX color.
VOC red{
  ITEM shade: red
}
VGRP palette{ color, red }
ENUM{SMALL, LARGE}
`

// harness drives the request handler without a transport
type harness struct {
	t      *testing.T
	server *Server
	dir    string
	id     int32
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	idx := index.New(dir, parser.NewDefaultScanner(), index.Options{})
	if err := idx.Build(context.Background()); err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	return &harness{t: t, server: NewServer(idx), dir: dir}
}

func (h *harness) uri(name string) protocol.DocumentURI {
	return pathToURI(filepath.Join(h.dir, name))
}

// call sends a request and decodes the reply into out (if non-nil)
func (h *harness) call(method string, params any, out any) error {
	h.t.Helper()
	h.id++
	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(h.id), method, params)
	if err != nil {
		h.t.Fatalf("failed to build %s call: %v", method, err)
	}

	var (
		replied  bool
		result   any
		replyErr error
	)
	reply := func(ctx context.Context, r any, err error) error {
		replied = true
		result, replyErr = r, err
		return nil
	}

	if err := h.server.handler(context.Background(), reply, req); err != nil {
		h.t.Fatalf("%s: handler failed: %v", method, err)
	}
	if !replied {
		h.t.Fatalf("%s: no reply", method)
	}
	if replyErr != nil || out == nil {
		return replyErr
	}

	data, err := json.Marshal(result)
	if err != nil {
		h.t.Fatalf("%s: failed to marshal result: %v", method, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		h.t.Fatalf("%s: failed to decode result %s: %v", method, data, err)
	}
	return nil
}

func (h *harness) position(name string, line, char uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: h.uri(name)},
		Position:     protocol.Position{Line: line, Character: char},
	}
}

func TestInitializeCapabilities(t *testing.T) {
	h := newHarness(t, nil)

	// capabilities are interface{} in protocol, so decode into concrete types
	var result struct {
		Capabilities struct {
			TextDocumentSync        *protocol.TextDocumentSyncOptions `json:"textDocumentSync"`
			DefinitionProvider      bool                              `json:"definitionProvider"`
			ReferencesProvider      bool                              `json:"referencesProvider"`
			DocumentSymbolProvider  bool                              `json:"documentSymbolProvider"`
			WorkspaceSymbolProvider bool                              `json:"workspaceSymbolProvider"`
		} `json:"capabilities"`
		ServerInfo *protocol.ServerInfo `json:"serverInfo"`
	}
	if err := h.call("initialize", map[string]any{}, &result); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	caps := result.Capabilities
	if !caps.DefinitionProvider || !caps.ReferencesProvider || !caps.DocumentSymbolProvider || !caps.WorkspaceSymbolProvider {
		t.Errorf("missing capability: %+v", caps)
	}
	if caps.TextDocumentSync == nil || !caps.TextDocumentSync.OpenClose || caps.TextDocumentSync.Change != protocol.TextDocumentSyncKindFull {
		t.Errorf("expected full text sync, got %+v", caps.TextDocumentSync)
	}
	if result.ServerInfo == nil || result.ServerInfo.Name != serverName {
		t.Errorf("unexpected server info %+v", result.ServerInfo)
	}
}

func TestUnknownMethod(t *testing.T) {
	h := newHarness(t, nil)

	err := h.call("textDocument/hover", map[string]any{}, nil)
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc2.MethodNotFound {
		t.Fatalf("expected MethodNotFound, got %v", err)
	}
}

func TestInvalidParams(t *testing.T) {
	h := newHarness(t, nil)

	err := h.call("textDocument/definition", []int{1, 2}, nil)
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc2.InvalidParams {
		t.Fatalf("expected InvalidParams, got %v", err)
	}
}

func TestDefinition(t *testing.T) {
	h := newHarness(t, map[string]string{"colors.ltd": colorsLtd})

	// cursor on "color" inside the VGRP list, line 5 (0-indexed)
	var loc protocol.Location
	if err := h.call("textDocument/definition", h.position("colors.ltd", 5, 15), &loc); err != nil {
		t.Fatalf("definition failed: %v", err)
	}

	if loc.URI != h.uri("colors.ltd") {
		t.Errorf("expected %s, got %s", h.uri("colors.ltd"), loc.URI)
	}
	want := protocol.Range{Start: protocol.Position{Line: 1, Character: 4}, End: protocol.Position{Line: 1, Character: 9}}
	if loc.Range != want {
		t.Errorf("expected range %+v, got %+v", want, loc.Range)
	}
}

func TestDefinitionOfNameWithPunctuation(t *testing.T) {
	h := newHarness(t, map[string]string{"items.ltd": "ITEM a: b.\n"})

	// cursor on "b", which the word rule alone would isolate
	var loc protocol.Location
	if err := h.call("textDocument/definition", h.position("items.ltd", 0, 8), &loc); err != nil {
		t.Fatalf("definition failed: %v", err)
	}

	want := protocol.Range{Start: protocol.Position{Line: 0, Character: 5}, End: protocol.Position{Line: 0, Character: 9}}
	if loc.Range != want {
		t.Errorf("expected range %+v, got %+v", want, loc.Range)
	}
}

func TestDefinitionNotFound(t *testing.T) {
	h := newHarness(t, map[string]string{"colors.ltd": colorsLtd})

	var loc *protocol.Location
	// cursor on the comment word "colors"
	if err := h.call("textDocument/definition", h.position("colors.ltd", 0, 4), &loc); err != nil {
		t.Fatalf("definition failed: %v", err)
	}
	if loc != nil {
		t.Errorf("expected no definition, got %+v", loc)
	}
}

func TestReferences(t *testing.T) {
	h := newHarness(t, map[string]string{"colors.ltd": colorsLtd})

	tests := []struct {
		name               string
		includeDeclaration bool
		wantLines          []uint32
	}{
		{"without declaration", false, []uint32{3, 5}},
		{"with declaration", true, []uint32{2, 3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := protocol.ReferenceParams{
				TextDocumentPositionParams: h.position("colors.ltd", 2, 5), // on "red"
				Context:                    protocol.ReferenceContext{IncludeDeclaration: tt.includeDeclaration},
			}
			var locs []protocol.Location
			if err := h.call("textDocument/references", params, &locs); err != nil {
				t.Fatalf("references failed: %v", err)
			}

			lines := make(map[uint32]int)
			for _, loc := range locs {
				lines[loc.Range.Start.Line]++
			}
			if len(locs) != len(tt.wantLines) {
				t.Fatalf("expected %d locations, got %d: %+v", len(tt.wantLines), len(locs), locs)
			}
			for _, l := range tt.wantLines {
				if lines[l] != 1 {
					t.Errorf("expected exactly one location on line %d, got %d", l, lines[l])
				}
			}
		})
	}
}

func TestDocumentSymbol(t *testing.T) {
	h := newHarness(t, map[string]string{"colors.ltd": colorsLtd})

	var syms []protocol.SymbolInformation
	params := protocol.DocumentSymbolParams{TextDocument: protocol.TextDocumentIdentifier{URI: h.uri("colors.ltd")}}
	if err := h.call("textDocument/documentSymbol", params, &syms); err != nil {
		t.Fatalf("documentSymbol failed: %v", err)
	}

	want := []struct {
		name string
		kind protocol.SymbolKind
	}{
		{"color", protocol.SymbolKindNamespace},
		{"red", protocol.SymbolKindClass},
		{"shade", protocol.SymbolKindField},
		{"palette", protocol.SymbolKindModule},
		{"SMALL", protocol.SymbolKindEnumMember},
		{"LARGE", protocol.SymbolKindEnumMember},
	}
	if len(syms) != len(want) {
		t.Fatalf("expected %d symbols, got %d: %+v", len(want), len(syms), syms)
	}
	for i, w := range want {
		if syms[i].Name != w.name || syms[i].Kind != w.kind {
			t.Errorf("symbol %d: expected %s/%v, got %s/%v", i, w.name, w.kind, syms[i].Name, syms[i].Kind)
		}
	}
}

func TestWorkspaceSymbol(t *testing.T) {
	h := newHarness(t, map[string]string{
		"colors.ltd": colorsLtd,
		"sizes.ltd":  "GRAM sizing.\n",
	})

	var syms []protocol.SymbolInformation
	if err := h.call("workspace/symbol", protocol.WorkspaceSymbolParams{Query: "SIZ"}, &syms); err != nil {
		t.Fatalf("workspace/symbol failed: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "sizing" || syms[0].Kind != protocol.SymbolKindInterface {
		t.Fatalf("expected sizing grammar, got %+v", syms)
	}
	if syms[0].Location.URI != h.uri("sizes.ltd") {
		t.Errorf("unexpected location %s", syms[0].Location.URI)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	h := newHarness(t, map[string]string{"colors.ltd": colorsLtd})
	uri := h.uri("colors.ltd")

	open := protocol.DidOpenTextDocumentParams{TextDocument: protocol.TextDocumentItem{
		URI: uri, LanguageID: "ltd", Version: 1, Text: "VOC blue.\n",
	}}
	if err := h.call("textDocument/didOpen", open, nil); err != nil {
		t.Fatalf("didOpen failed: %v", err)
	}
	if defs := h.server.index.FindDefinitions("blue"); len(defs) != 1 {
		t.Errorf("expected open buffer to be indexed, got %d definitions", len(defs))
	}
	if defs := h.server.index.FindDefinitions("red"); len(defs) != 0 {
		t.Errorf("expected disk content to be replaced, got %d definitions", len(defs))
	}

	change := protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri}, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "VOC green.\n"}},
	}
	if err := h.call("textDocument/didChange", change, nil); err != nil {
		t.Fatalf("didChange failed: %v", err)
	}
	if defs := h.server.index.FindDefinitions("green"); len(defs) != 1 {
		t.Errorf("expected changed buffer to be indexed, got %d definitions", len(defs))
	}
	if defs := h.server.index.FindDefinitions("blue"); len(defs) != 0 {
		t.Errorf("expected stale buffer symbols to be gone, got %d", len(defs))
	}

	// Definition lookups use the buffer, not the file on disk
	var loc protocol.Location
	if err := h.call("textDocument/definition", h.position("colors.ltd", 0, 5), &loc); err != nil {
		t.Fatalf("definition failed: %v", err)
	}
	if loc.Range.Start.Line != 0 || loc.Range.Start.Character != 4 {
		t.Errorf("unexpected definition %+v", loc)
	}

	closeParams := protocol.DidCloseTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}
	if err := h.call("textDocument/didClose", closeParams, nil); err != nil {
		t.Fatalf("didClose failed: %v", err)
	}
	if defs := h.server.index.FindDefinitions("red"); len(defs) != 1 {
		t.Errorf("expected disk content after close, got %d definitions", len(defs))
	}
	if defs := h.server.index.FindDefinitions("green"); len(defs) != 0 {
		t.Errorf("expected buffer symbols gone after close, got %d", len(defs))
	}
}

func TestDidCloseUnsavedNewFile(t *testing.T) {
	h := newHarness(t, nil)
	uri := h.uri("scratch.ltd")

	open := protocol.DidOpenTextDocumentParams{TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "RFX tmp.\n"}}
	if err := h.call("textDocument/didOpen", open, nil); err != nil {
		t.Fatalf("didOpen failed: %v", err)
	}
	if h.server.index.SymbolCount() != 1 {
		t.Fatalf("expected 1 symbol, got %d", h.server.index.SymbolCount())
	}

	closeParams := protocol.DidCloseTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}
	if err := h.call("textDocument/didClose", closeParams, nil); err != nil {
		t.Fatalf("didClose failed: %v", err)
	}
	if h.server.index.SymbolCount() != 0 {
		t.Errorf("expected unsaved buffer to be dropped, got %d symbols", h.server.index.SymbolCount())
	}
}

func TestNonLtdDocumentNotIndexed(t *testing.T) {
	h := newHarness(t, nil)

	open := protocol.DidOpenTextDocumentParams{TextDocument: protocol.TextDocumentItem{
		URI: h.uri("notes.txt"), LanguageID: "plaintext", Version: 1, Text: "RFX nope.\n",
	}}
	if err := h.call("textDocument/didOpen", open, nil); err != nil {
		t.Fatalf("didOpen failed: %v", err)
	}
	if h.server.index.SymbolCount() != 0 {
		t.Errorf("expected no symbols, got %d", h.server.index.SymbolCount())
	}
}

func TestHandleFileChangesSkipsOpenBuffers(t *testing.T) {
	h := newHarness(t, map[string]string{"a.ltd": "VOC a.\n", "b.ltd": "VOC b.\n"})
	aPath := filepath.Join(h.dir, "a.ltd")
	bPath := filepath.Join(h.dir, "b.ltd")

	open := protocol.DidOpenTextDocumentParams{TextDocument: protocol.TextDocumentItem{URI: h.uri("a.ltd"), Version: 1, Text: "VOC a_buffer.\n"}}
	if err := h.call("textDocument/didOpen", open, nil); err != nil {
		t.Fatalf("didOpen failed: %v", err)
	}

	if err := os.WriteFile(aPath, []byte("VOC a_disk.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bPath, []byte("VOC b_disk.\n"), 0644); err != nil {
		t.Fatal(err)
	}

	h.server.HandleFileChanges([]string{aPath, bPath}, nil)

	if defs := h.server.index.FindDefinitions("a_buffer"); len(defs) != 1 {
		t.Error("expected open buffer to stay authoritative")
	}
	if defs := h.server.index.FindDefinitions("b_disk"); len(defs) != 1 {
		t.Error("expected closed file to be re-read")
	}

	h.server.HandleFileChanges(nil, []string{bPath})
	if defs := h.server.index.FindDefinitions("b_disk"); len(defs) != 0 {
		t.Error("expected removed file to leave the index")
	}
}

func TestExtractWordAt(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		line     int
		char     int
		expected string
	}{
		{"middle of name", "VOC red_apple.", 0, 6, "red_apple"},
		{"on terminator", "VOC red_apple.", 0, 13, "red_apple"},
		{"past end", "VOC red", 0, 40, "red"},
		{"second line with CRLF", "RFX a.\r\nVGRP grp{\r\n", 1, 6, "grp"},
		{"enum member", "ENUM{SMALL, LARGE}", 0, 13, "LARGE"},
		{"non-ASCII name", "VOC 色彩.", 0, 5, "色彩"},
		{"whitespace only", "   ", 0, 1, ""},
		{"line out of range", "VOC a.", 3, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractWordAt(tt.content, tt.line, tt.char)
			if result != tt.expected {
				t.Errorf("extractWordAt(%q, %d, %d) = %q, want %q", tt.content, tt.line, tt.char, result, tt.expected)
			}
		})
	}
}

func TestURIRoundTrip(t *testing.T) {
	paths := []string{"/tmp/a.ltd", "/tmp/with space/b.ltd"}
	for _, p := range paths {
		uri := pathToURI(p)
		if got := uriToPath(uri); got != p {
			t.Errorf("round trip %q -> %q -> %q", p, uri, got)
		}
	}

	if got := pathToURI("/tmp/with space/b.ltd"); got != "file:///tmp/with%20space/b.ltd" {
		t.Errorf("unexpected uri %q", got)
	}
	if got := uriToPath("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Errorf("expected non-file URI to pass through, got %q", got)
	}
}
