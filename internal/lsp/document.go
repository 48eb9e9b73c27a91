package lsp

import (
	"sync"

	"go.lsp.dev/protocol"
)

// Document is an editor buffer the client has opened
type Document struct {
	URI        protocol.DocumentURI
	Path       string
	LanguageID string
	Version    int32
	Content    string
	// Indexed is set when the buffer, not the file on disk, feeds the index
	Indexed bool
}

// DocumentStore tracks open buffers by URI
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[protocol.DocumentURI]*Document)}
}

// Open stores doc, replacing any buffer with the same URI
func (ds *DocumentStore) Open(doc Document) {
	if doc.Path == "" {
		doc.Path = uriToPath(doc.URI)
	}
	ds.mu.Lock()
	ds.docs[doc.URI] = &doc
	ds.mu.Unlock()
}

// Update applies a full-text change. Changes to unknown URIs are dropped.
func (ds *DocumentStore) Update(uri protocol.DocumentURI, version int32, content string) (Document, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	doc := ds.docs[uri]
	if doc == nil {
		return Document{}, false
	}
	doc.Version, doc.Content = version, content
	return *doc, true
}

// Close forgets the buffer and returns its last state
func (ds *DocumentStore) Close(uri protocol.DocumentURI) (Document, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	doc := ds.docs[uri]
	if doc == nil {
		return Document{}, false
	}
	delete(ds.docs, uri)
	return *doc, true
}

// Text returns the buffer content for uri
func (ds *DocumentStore) Text(uri protocol.DocumentURI) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if doc := ds.docs[uri]; doc != nil {
		return doc.Content, true
	}
	return "", false
}

// IndexedPaths returns the file paths whose index entries come from open
// buffers. Disk events for these paths must not overwrite them.
func (ds *DocumentStore) IndexedPaths() map[string]struct{} {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	paths := make(map[string]struct{})
	for _, doc := range ds.docs {
		if doc.Indexed {
			paths[doc.Path] = struct{}{}
		}
	}
	return paths
}
