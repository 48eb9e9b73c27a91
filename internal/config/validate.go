package config

import (
	"errors"
	"fmt"

	"github.com/jarredhawkins/ltd-lsp/internal/tagfile"
	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

// Validate checks ranges and parses the kind spec and format
func (s Settings) Validate() error {
	var errs []error
	if s.Jobs < 1 || s.Jobs > 64 {
		errs = append(errs, fmt.Errorf("jobs must be between 1 and 64, got %d", s.Jobs))
	}
	if s.DebounceMs < 0 || s.DebounceMs > 10000 {
		errs = append(errs, fmt.Errorf("debounce_ms must be between 0 and 10000, got %d", s.DebounceMs))
	}
	if s.Format != "" {
		if _, err := tagfile.ParseFormat(s.Format); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := s.KindSet(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// KindSet resolves the kind spec against the default kind table
func (s Settings) KindSet() (types.KindSet, error) {
	table := types.DefaultKinds()
	set, err := types.ParseKindSpec(table, table.Defaults(), s.Kinds)
	if err != nil {
		return set, fmt.Errorf("kinds: %w", err)
	}
	return set, nil
}
