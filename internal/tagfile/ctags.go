package tagfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jarredhawkins/ltd-lsp/internal/types"
)

const defaultProgram = "ltdtags"

var patternEscaper = strings.NewReplacer(`\`, `\\`, `/`, `\/`, "\t", `\t`)

// WriteCtags writes an extended-format ctags file:
//
//	name<TAB>file<TAB>/^line text$/;"<TAB>kind<TAB>line:N
func WriteCtags(w io.Writer, syms []*types.Symbol, opts Options) error {
	bw := bufio.NewWriter(w)

	program := opts.Program
	if program == "" {
		program = defaultProgram
	}
	sorted := 0
	if opts.Sorted {
		sorted = 1
	}

	fmt.Fprintf(bw, "!_TAG_FILE_FORMAT\t2\t/extended format; --format=1 will not append ;\" to lines/\n")
	fmt.Fprintf(bw, "!_TAG_FILE_SORTED\t%d\t/0=unsorted, 1=sorted, 2=foldcase/\n", sorted)
	fmt.Fprintf(bw, "!_TAG_PROGRAM_NAME\t%s\t//\n", program)

	ordered, paths := prepare(syms, opts)
	for i, sym := range ordered {
		// name and file are tab-delimited fields with no escape syntax
		if strings.ContainsRune(sym.Name, '\t') || strings.ContainsRune(paths[i], '\t') {
			continue
		}
		fmt.Fprintf(bw, "%s\t%s\t/^%s$/;\"\t%c\tline:%d\n",
			sym.Name, paths[i], patternEscaper.Replace(sym.LineText), sym.Kind.Letter(), sym.Line)
	}

	return bw.Flush()
}
