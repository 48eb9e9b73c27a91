// Package lsp serves go-to-definition, references and symbol queries for
// Ltd files over JSON-RPC on stdio.
package lsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"strings"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/jarredhawkins/ltd-lsp/internal/index"
	"github.com/jarredhawkins/ltd-lsp/internal/parser"
)

const (
	serverName    = "ltd-lsp"
	serverVersion = "0.1.0"
	languageID    = "ltd"
)

// route handles one method. A *jsonrpc2.Error return is sent to the
// client as is.
type route func(ctx context.Context, params json.RawMessage) (any, error)

// Server answers LSP requests from an index
type Server struct {
	index     *index.Index
	documents *DocumentStore
	routes    map[string]route

	conn     jsonrpc2.Conn
	shutdown bool
	exited   bool
}

func NewServer(idx *index.Index) *Server {
	s := &Server{
		index:     idx,
		documents: NewDocumentStore(),
	}
	s.routes = map[string]route{
		"initialize":                  s.initialize,
		"initialized":                 ignore,
		"shutdown":                    s.shutdownRequest,
		"exit":                        s.exit,
		"textDocument/definition":     s.definition,
		"textDocument/references":     s.references,
		"textDocument/documentSymbol": s.documentSymbol,
		"workspace/symbol":            s.workspaceSymbol,
		"textDocument/didOpen":        s.didOpen,
		"textDocument/didChange":      s.didChange,
		"textDocument/didClose":       s.didClose,
	}
	return s
}

// Serve runs until the client exits, the stream ends or ctx is cancelled
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(&readWriteCloser{in, out}))
	s.conn.Go(ctx, s.handler)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.conn.Done():
	}
	if s.exited {
		return nil
	}
	if err := s.conn.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handler(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	log.Printf("LSP request: %s", req.Method())

	handle, ok := s.routes[req.Method()]
	if !ok {
		return reply(ctx, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.MethodNotFound,
			Message: "method not supported: " + req.Method(),
		})
	}

	result, err := handle(ctx, req.Params())
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

// decode unmarshals params, reporting failures as InvalidParams
func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: err.Error()}
	}
	return v, nil
}

func ignore(context.Context, json.RawMessage) (any, error) {
	return nil, nil
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, error) {
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			DocumentSymbolProvider:  true,
			WorkspaceSymbolProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{Name: serverName, Version: serverVersion},
	}, nil
}

func (s *Server) shutdownRequest(context.Context, json.RawMessage) (any, error) {
	s.shutdown = true
	return nil, nil
}

// exit closes the connection, which ends Serve
func (s *Server) exit(context.Context, json.RawMessage) (any, error) {
	if !s.shutdown {
		log.Printf("exit received before shutdown")
	}
	s.exited = true
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("failed to close connection: %v", err)
		}
	}
	return nil, nil
}

func (s *Server) definition(_ context.Context, raw json.RawMessage) (any, error) {
	params, err := decode[protocol.TextDocumentPositionParams](raw)
	if err != nil {
		return nil, err
	}
	word := s.wordAt(params)
	if word == "" {
		return nil, nil
	}

	path := uriToPath(params.TextDocument.URI)
	syms := s.index.FindDefinitionsInFile(word, path)
	log.Printf("definition of %q from %s:%d: %d found", word, path, params.Position.Line, len(syms))

	switch len(syms) {
	case 0:
		return nil, nil
	case 1:
		return symbolToLocation(syms[0]), nil
	}
	locs := make([]protocol.Location, len(syms))
	for i, sym := range syms {
		locs[i] = symbolToLocation(sym)
	}
	return locs, nil
}

func (s *Server) references(_ context.Context, raw json.RawMessage) (any, error) {
	params, err := decode[protocol.ReferenceParams](raw)
	if err != nil {
		return nil, err
	}
	word := s.wordAt(params.TextDocumentPositionParams)
	if word == "" {
		return nil, nil
	}

	log.Printf("references to %q", word)
	return s.collectReferences(word, params.Context.IncludeDeclaration), nil
}

// collectReferences lists every textual use of word. Declaration sites are
// left out unless includeDeclaration is set, in which case each appears once.
func (s *Server) collectReferences(word string, includeDeclaration bool) []protocol.Location {
	defs := s.index.FindDefinitions(word)
	declared := make(map[string]bool, len(defs))
	for _, sym := range defs {
		declared[locationKey(sym.FilePath, sym.Line, sym.Column)] = true
	}

	seen := make(map[string]bool)
	locs := []protocol.Location{}
	for _, ref := range s.index.FindReferences(word) {
		key := locationKey(ref.FilePath, ref.Line, ref.Column)
		if seen[key] || (declared[key] && !includeDeclaration) {
			continue
		}
		seen[key] = true
		locs = append(locs, referenceToLocation(ref))
	}

	if includeDeclaration {
		for _, sym := range defs {
			key := locationKey(sym.FilePath, sym.Line, sym.Column)
			if !seen[key] {
				seen[key] = true
				locs = append(locs, symbolToLocation(sym))
			}
		}
	}
	return locs
}

func (s *Server) documentSymbol(_ context.Context, raw json.RawMessage) (any, error) {
	params, err := decode[protocol.DocumentSymbolParams](raw)
	if err != nil {
		return nil, err
	}
	return symbolInformation(s.index.SymbolsInFile(uriToPath(params.TextDocument.URI))), nil
}

func (s *Server) workspaceSymbol(_ context.Context, raw json.RawMessage) (any, error) {
	params, err := decode[protocol.WorkspaceSymbolParams](raw)
	if err != nil {
		return nil, err
	}
	syms := s.index.Search(params.Query)
	log.Printf("workspace symbol query %q: %d matches", params.Query, len(syms))
	return symbolInformation(syms), nil
}

func symbolInformation(syms []*index.Symbol) []protocol.SymbolInformation {
	out := make([]protocol.SymbolInformation, len(syms))
	for i, sym := range syms {
		out[i] = symbolToInformation(sym)
	}
	return out
}

func (s *Server) didOpen(_ context.Context, raw json.RawMessage) (any, error) {
	params, err := decode[protocol.DidOpenTextDocumentParams](raw)
	if err != nil {
		return nil, err
	}

	item := params.TextDocument
	doc := Document{
		URI:        item.URI,
		Path:       uriToPath(item.URI),
		LanguageID: string(item.LanguageID),
		Version:    item.Version,
		Content:    item.Text,
	}
	doc.Indexed = parser.IsLtdFile(doc.Path) || strings.EqualFold(doc.LanguageID, languageID)

	s.documents.Open(doc)
	s.indexBuffer(doc)
	return nil, nil
}

func (s *Server) didChange(_ context.Context, raw json.RawMessage) (any, error) {
	params, err := decode[protocol.DidChangeTextDocumentParams](raw)
	if err != nil {
		return nil, err
	}
	n := len(params.ContentChanges)
	if n == 0 {
		return nil, nil
	}

	// full sync: the last change holds the whole text
	doc, ok := s.documents.Update(params.TextDocument.URI, params.TextDocument.Version, params.ContentChanges[n-1].Text)
	if ok {
		s.indexBuffer(doc)
	}
	return nil, nil
}

// didClose hands the path back to the disk copy, or drops it when the
// buffer was never saved
func (s *Server) didClose(_ context.Context, raw json.RawMessage) (any, error) {
	params, err := decode[protocol.DidCloseTextDocumentParams](raw)
	if err != nil {
		return nil, err
	}

	doc, ok := s.documents.Close(params.TextDocument.URI)
	if !ok || !doc.Indexed {
		return nil, nil
	}
	if err := s.index.UpdateFile(doc.Path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("failed to re-read %s: %v", doc.Path, err)
		}
		s.index.RemoveFile(doc.Path)
	}
	return nil, nil
}

func (s *Server) indexBuffer(doc Document) {
	if doc.Indexed {
		s.index.AddContent(doc.Path, []byte(doc.Content))
	}
}

// HandleFileChanges applies a batch of on-disk changes to the index.
// Files open in the editor are skipped: their buffer is authoritative.
func (s *Server) HandleFileChanges(changed, removed []string) {
	open := s.documents.IndexedPaths()

	for _, path := range removed {
		if _, ok := open[path]; !ok {
			s.index.RemoveFile(path)
		}
	}
	for _, path := range changed {
		if _, ok := open[path]; ok {
			continue
		}
		if err := s.index.UpdateFile(path); err != nil {
			log.Printf("failed to update file %s: %v", path, err)
		}
	}
}

// wordAt returns the name under the cursor. A tag declared at the cursor
// wins, so names holding spaces or punctuation resolve whole; otherwise the
// word is read from the open buffer or else from disk.
func (s *Server) wordAt(p protocol.TextDocumentPositionParams) string {
	path := uriToPath(p.TextDocument.URI)
	if sym := s.tagAt(path, int(p.Position.Line)+1, int(p.Position.Character)); sym != nil {
		return sym.Name
	}

	text, ok := s.documents.Text(p.TextDocument.URI)
	if !ok {
		var err error
		if text, err = readFile(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("failed to read file %s: %v", path, err)
			}
			return ""
		}
	}
	return extractWordAt(text, int(p.Position.Line), int(p.Position.Character))
}

// tagAt returns the tag in path whose name spans col on line
func (s *Server) tagAt(path string, line, col int) *index.Symbol {
	for _, sym := range s.index.SymbolsInFile(path) {
		if sym.Line == line && col >= sym.Column && col < sym.Column+len(sym.Name) {
			return sym
		}
	}
	return nil
}

func locationKey(path string, line, col int) string {
	return fmt.Sprintf("%s:%d:%d", path, line, col)
}

// readWriteCloser joins stdin and stdout into the stream jsonrpc2 wants
type readWriteCloser struct {
	io.Reader
	io.Writer
}

// Close closes the reader when it supports it so that a blocked read returns
func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
