// Command ltdtags writes a tag file for Ltd sources.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/jarredhawkins/ltd-lsp/internal/config"
	"github.com/jarredhawkins/ltd-lsp/internal/index"
	"github.com/jarredhawkins/ltd-lsp/internal/parser"
	"github.com/jarredhawkins/ltd-lsp/internal/tagfile"
	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

type options struct {
	root       string
	output     string
	format     string
	kinds      string
	sort       bool
	configPath string
	listKinds  bool
	debug      bool
}

func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("ltdtags", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.root, "root", "", "Root path used for config discovery and as the default input (defaults to current directory)")
	fs.StringVar(&opts.output, "f", "-", "Output file, - for stdout")
	fs.StringVar(&opts.format, "format", "", "Output format: ctags, xref or json (default xref on a terminal, ctags otherwise)")
	fs.StringVar(&opts.kinds, "kinds-ltd", "", "Tag kinds to emit, e.g. +s or =rvg")
	fs.BoolVar(&opts.sort, "sort", true, "Sort entries by name")
	fs.StringVar(&opts.configPath, "config", "", "Config file (defaults to .ltd-lsp.* discovery)")
	fs.BoolVar(&opts.listKinds, "list-kinds", false, "List tag kinds and exit")
	fs.BoolVar(&opts.debug, "debug", false, "Trace scanned lines to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := generate(fs, opts, stdout, stderr, getenv); err != nil {
		fmt.Fprintf(stderr, "ltdtags: %v\n", err)
		return 1
	}
	return 0
}

func generate(fs *flag.FlagSet, opts options, stdout, stderr io.Writer, getenv func(string) string) error {
	root := opts.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get current directory: %w", err)
		}
		root = wd
	}

	var overrides config.Config
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			overrides.Format = &opts.format
		case "kinds-ltd":
			overrides.Kinds = &opts.kinds
		case "sort":
			overrides.Sort = &opts.sort
		case "debug":
			overrides.Debug = &opts.debug
		}
	})

	resolved, err := config.Resolve(root, opts.configPath, overrides, getenv)
	if err != nil {
		return err
	}
	settings := resolved.Settings

	enabled, err := settings.KindSet()
	if err != nil {
		return err
	}

	if opts.listKinds {
		return listKinds(stdout, types.DefaultKinds(), enabled)
	}

	setupLogging(stderr, settings)

	scanner := parser.NewScanner(parser.DefaultKeywords(), enabled)
	if settings.Debug {
		scanner.SetTrace(log.Printf)
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{root}
	}

	syms, err := collect(scanner, inputs, settings)
	if err != nil {
		return err
	}

	out := stdout
	baseDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get current directory: %w", err)
	}
	var file *os.File
	if opts.output != "-" {
		file, err = os.Create(opts.output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
		if abs, err := filepath.Abs(opts.output); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}

	format, err := chooseFormat(settings.Format, out)
	if err != nil {
		return err
	}

	writeOpts := tagfile.Options{Sorted: settings.Sort, BaseDir: baseDir}
	if err := tagfile.Write(out, format, syms, writeOpts); err != nil {
		return fmt.Errorf("write tags: %w", err)
	}
	if file != nil {
		return file.Close()
	}
	return nil
}

// setupLogging keeps index progress quiet unless debugging or logging to a file
func setupLogging(stderr io.Writer, settings config.Settings) {
	switch {
	case settings.LogFile != "":
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.SetOutput(stderr)
			log.Printf("failed to open log file: %v", err)
			return
		}
		log.SetOutput(f)
	case settings.Debug:
		log.SetOutput(stderr)
	default:
		log.SetOutput(io.Discard)
	}
	if settings.Debug {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}
}

// collect scans every input. Directories go through the index so their
// .ltd files are parsed in parallel; named files are scanned whatever their
// extension.
func collect(scanner *parser.Scanner, inputs []string, settings config.Settings) ([]*types.Symbol, error) {
	seen := make(map[string]struct{})
	var syms []*types.Symbol

	for _, input := range inputs {
		path, err := filepath.Abs(input)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			fileSyms, err := scanner.ParseFile(path)
			if err != nil {
				return nil, err
			}
			syms = append(syms, fileSyms...)
			continue
		}

		idx := index.New(path, scanner, index.Options{Jobs: settings.Jobs, Exclude: settings.Exclude})
		if err := idx.Build(context.Background()); err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
		for _, file := range idx.Files() {
			if _, dup := seen[file]; dup {
				continue
			}
			seen[file] = struct{}{}
			syms = append(syms, idx.SymbolsInFile(file)...)
		}
	}
	return syms, nil
}

// chooseFormat honours an explicit format and otherwise picks a readable
// table for terminals and a ctags file for everything else
func chooseFormat(name string, out io.Writer) (tagfile.Format, error) {
	if name != "" {
		return tagfile.ParseFormat(name)
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return tagfile.FormatXref, nil
	}
	return tagfile.FormatCtags, nil
}

func listKinds(w io.Writer, table types.KindTable, enabled types.KindSet) error {
	nameW := 0
	for _, def := range table {
		nameW = max(nameW, tagfile.VisibleWidth(def.Name))
	}
	for _, def := range table {
		state := "off"
		if enabled.Has(def.Kind) {
			state = "on"
		}
		if _, err := fmt.Fprintf(w, "%c  %s  %s  [%s]\n", def.Letter, tagfile.PadRight(def.Name, nameW), def.Description, state); err != nil {
			return err
		}
	}
	return nil
}
