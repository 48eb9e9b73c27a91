package tagfile

import (
	"encoding/json"
	"io"

	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

type jsonTag struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// WriteJSON streams tags as newline-delimited JSON objects
func WriteJSON(w io.Writer, syms []*types.Symbol, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	ordered, paths := prepare(syms, opts)
	for i, sym := range ordered {
		tag := jsonTag{
			Name:   sym.Name,
			Kind:   sym.Kind.String(),
			Path:   paths[i],
			Line:   sym.Line,
			Column: sym.Column,
		}
		if err := enc.Encode(tag); err != nil {
			return err
		}
	}
	return nil
}
