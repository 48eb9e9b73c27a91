package tagfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

// WriteXref writes a ctags -x style cross reference: name, kind, line,
// file and the source line, with the first two columns aligned by display width
func WriteXref(w io.Writer, syms []*types.Symbol, opts Options) error {
	bw := bufio.NewWriter(w)
	ordered, paths := prepare(syms, opts)

	nameW, kindW := 0, 0
	for _, sym := range ordered {
		nameW = max(nameW, VisibleWidth(sym.Name))
		kindW = max(kindW, VisibleWidth(sym.Kind.String()))
	}

	for i, sym := range ordered {
		fmt.Fprintf(bw, "%s %s %4d %s %s\n",
			PadRight(sym.Name, nameW),
			PadRight(sym.Kind.String(), kindW),
			sym.Line,
			paths[i],
			strings.TrimSpace(sym.LineText))
	}

	return bw.Flush()
}

// VisibleWidth returns terminal display width, counting each grapheme cluster once
func VisibleWidth(s string) int {
	if s == "" {
		return 0
	}
	g := uniseg.NewGraphemes(s)
	width := 0
	for g.Next() {
		width += runewidth.StringWidth(g.Str())
	}
	return width
}

// PadRight pads s on the right with spaces so that the visible width equals w
func PadRight(s string, w int) string {
	pad := w - VisibleWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
