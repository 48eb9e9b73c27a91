package index

import "github.com/jarredhawkins/ltd-lsp/internal/types"

// Re-export types so callers of the index need not import types
type Symbol = types.Symbol
type TagKind = types.TagKind
type Reference = types.Reference
