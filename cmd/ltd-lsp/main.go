// Command ltd-lsp is a language server for Ltd lexicon sources. It speaks
// LSP on stdin and stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jarredhawkins/ltd-lsp/internal/config"
	"github.com/jarredhawkins/ltd-lsp/internal/index"
	"github.com/jarredhawkins/ltd-lsp/internal/lsp"
	"github.com/jarredhawkins/ltd-lsp/internal/parser"
	"github.com/jarredhawkins/ltd-lsp/internal/watcher"
)

type flags struct {
	root       string
	logFile    string
	debug      bool
	configPath string
	kinds      string
	jobs       int
	noWatch    bool
}

func main() {
	var f flags
	flag.StringVar(&f.root, "root", "", "Root path of the Ltd workspace (defaults to current directory)")
	flag.StringVar(&f.logFile, "log", "", "Log file path (defaults to stderr)")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&f.configPath, "config", "", "Config file (defaults to .ltd-lsp.* discovery)")
	flag.StringVar(&f.kinds, "kinds-ltd", "", "Tag kinds to index, e.g. +s or =rvg")
	flag.IntVar(&f.jobs, "jobs", 0, "Files parsed in parallel while indexing")
	flag.BoolVar(&f.noWatch, "no-watch", false, "Do not watch the workspace for changes made outside the editor")
	flag.Parse()

	var overrides config.Config
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "log":
			overrides.LogFile = &f.logFile
		case "debug":
			overrides.Debug = &f.debug
		case "kinds-ltd":
			overrides.Kinds = &f.kinds
		case "jobs":
			overrides.Jobs = &f.jobs
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, overrides); err != nil {
		log.Printf("ltd-lsp: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags, overrides config.Config) error {
	root := f.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get current directory: %w", err)
		}
		root = wd
	}

	resolved, err := config.Resolve(root, f.configPath, overrides, os.Getenv)
	if err != nil {
		return err
	}
	settings := resolved.Settings

	closeLog, err := setupLogging(settings)
	if err != nil {
		return err
	}
	defer closeLog()
	defer log.Println("ltd-lsp shutdown complete")

	log.Printf("ltd-lsp starting, root=%s", root)
	if resolved.Path != "" {
		log.Printf("using config %s (%s)", resolved.Path, resolved.Source)
	}

	enabled, err := settings.KindSet()
	if err != nil {
		return err
	}

	idx := index.New(root, parser.NewScanner(parser.DefaultKeywords(), enabled), index.Options{
		Jobs:    settings.Jobs,
		Exclude: settings.Exclude,
	})
	if err := idx.Build(ctx); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	server := lsp.NewServer(idx)

	if !f.noWatch {
		w, err := watcher.New(root, watcher.Options{
			DebounceMs: settings.DebounceMs,
			Exclude:    settings.Exclude,
		}, server.HandleFileChanges)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer w.Close()

		if err := w.Start(); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// setupLogging sends the standard logger to the configured file. stdout
// carries the protocol, so logs never go there.
func setupLogging(settings config.Settings) (func(), error) {
	closeFn := func() {}
	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		closeFn = func() {
			log.SetOutput(os.Stderr)
			f.Close()
		}
	}
	if settings.Debug {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}
	return closeFn, nil
}
