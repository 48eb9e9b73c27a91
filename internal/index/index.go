// Package index holds every tag found in a workspace, keyed by name and by
// file, together with a trigram index for finding references.
package index

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jarredhawkins/ltd-lsp/internal/parser"
	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

const defaultJobs = 8

// Options tune how the index walks the workspace
type Options struct {
	// Jobs limits how many files are parsed concurrently (default 8)
	Jobs int
	// Exclude lists directory names that are never descended into
	Exclude []string
}

// Index is safe for concurrent use
type Index struct {
	mu     sync.RWMutex
	byName map[string][]*Symbol
	byFile map[string][]*Symbol
	refs   *TrigramIndex

	root    string
	scanner *parser.Scanner
	opts    Options
}

// New returns an empty index over root. Call Build to fill it.
func New(root string, scanner *parser.Scanner, opts Options) *Index {
	if opts.Jobs <= 0 {
		opts.Jobs = defaultJobs
	}
	return &Index{
		byName:  make(map[string][]*Symbol),
		byFile:  make(map[string][]*Symbol),
		refs:    NewTrigramIndex(),
		root:    root,
		scanner: scanner,
		opts:    opts,
	}
}

// Build walks the root and indexes every .ltd file with a pool of
// opts.Jobs parsers. Unreadable files are logged and skipped.
func (idx *Index) Build(ctx context.Context) error {
	log.Printf("building index for %s", idx.root)

	paths := make(chan string)
	var walkErr error
	go func() {
		defer close(paths)
		walkErr = idx.walk(ctx, func(path string) {
			select {
			case paths <- path:
			case <-ctx.Done():
			}
		})
	}()

	var (
		wg      sync.WaitGroup
		indexed atomic.Int64
	)
	for i := 0; i < idx.opts.Jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				if ctx.Err() != nil {
					continue
				}
				if err := idx.AddFile(path); err != nil {
					log.Printf("failed to index %s: %v", path, err)
					continue
				}
				indexed.Add(1)
			}
		}()
	}
	wg.Wait()

	if walkErr != nil {
		return walkErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("indexed %d symbols in %d Ltd files", idx.SymbolCount(), indexed.Load())
	return nil
}

// walk calls fn for each .ltd file under the root, pruning hidden and
// excluded directories
func (idx *Index) walk(ctx context.Context, fn func(path string)) error {
	return filepath.WalkDir(idx.root, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			return nil
		}
		switch {
		case d.IsDir():
			if path != idx.root && SkipDir(d.Name(), idx.opts.Exclude) {
				return filepath.SkipDir
			}
		case parser.IsLtdFile(path):
			fn(path)
		}
		return nil
	})
}

// AddFile reads path from disk and indexes it
func (idx *Index) AddFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	idx.AddContent(path, content)
	return nil
}

// AddContent indexes content under path, replacing whatever was indexed
// for path before. Open editor buffers come through here.
func (idx *Index) AddContent(path string, content []byte) {
	syms := idx.scanner.Parse(path, content)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dropLocked(path)
	idx.refs.AddFile(path, content)
	idx.byFile[path] = syms
	for _, sym := range syms {
		idx.byName[sym.Name] = append(idx.byName[sym.Name], sym)
	}
}

// RemoveFile forgets path. Unknown paths are ignored.
func (idx *Index) RemoveFile(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dropLocked(path)
	idx.refs.RemoveFile(path)
}

func (idx *Index) dropLocked(path string) {
	syms, ok := idx.byFile[path]
	if !ok {
		return
	}
	delete(idx.byFile, path)

	for _, sym := range syms {
		left := slices.DeleteFunc(idx.byName[sym.Name], func(s *Symbol) bool {
			return s.FilePath == path
		})
		if len(left) == 0 {
			delete(idx.byName, sym.Name)
		} else {
			idx.byName[sym.Name] = left
		}
	}
}

// UpdateFile re-reads path from disk. On error the old entry is gone.
func (idx *Index) UpdateFile(path string) error {
	idx.RemoveFile(path)
	return idx.AddFile(path)
}

// FindDefinitions returns every tag named name, sorted
func (idx *Index) FindDefinitions(name string) []*Symbol {
	idx.mu.RLock()
	syms := slices.Clone(idx.byName[name])
	idx.mu.RUnlock()

	slices.SortFunc(syms, types.CompareSymbols)
	return syms
}

// FindDefinitionsInFile is FindDefinitions with tags from path moved first
func (idx *Index) FindDefinitionsInFile(name, path string) []*Symbol {
	syms := idx.FindDefinitions(name)
	slices.SortStableFunc(syms, func(a, b *Symbol) int {
		return boolRank(a.FilePath == path) - boolRank(b.FilePath == path)
	})
	return syms
}

func boolRank(first bool) int {
	if first {
		return 0
	}
	return 1
}

// FindReferences returns whole-name occurrences of name in code lines
func (idx *Index) FindReferences(name string) []*Reference {
	return idx.refs.Search(name)
}

// Search returns tags whose name contains query, ignoring case.
// An empty query matches everything.
func (idx *Index) Search(query string) []*Symbol {
	q := strings.ToLower(query)

	var out []*Symbol
	idx.mu.RLock()
	for name, syms := range idx.byName {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, syms...)
		}
	}
	idx.mu.RUnlock()

	slices.SortFunc(out, types.CompareSymbols)
	return out
}

// SymbolsInFile returns the tags of path in source order
func (idx *Index) SymbolsInFile(path string) []*Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slices.Clone(idx.byFile[path])
}

// All returns every tag ordered by name, file and line
func (idx *Index) All() []*Symbol {
	var out []*Symbol
	idx.mu.RLock()
	for _, syms := range idx.byFile {
		out = append(out, syms...)
	}
	idx.mu.RUnlock()

	slices.SortFunc(out, types.CompareSymbols)
	return out
}

// Files returns the indexed paths, sorted
func (idx *Index) Files() []string {
	idx.mu.RLock()
	files := make([]string, 0, len(idx.byFile))
	for path := range idx.byFile {
		files = append(files, path)
	}
	idx.mu.RUnlock()

	slices.Sort(files)
	return files
}

func (idx *Index) SymbolCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, syms := range idx.byFile {
		n += len(syms)
	}
	return n
}

func (idx *Index) RootPath() string {
	return idx.root
}

// SkipDir reports whether a directory is pruned from walks: hidden
// directories and any name listed in exclude
func SkipDir(name string, exclude []string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	return slices.Contains(exclude, name)
}
