// Package reporting renders the --debug triad (source, parsed statements,
// compiled instructions) plus run summaries. Statement dumping uses
// github.com/kr/pretty,
// counts are humanized with github.com/dustin/go-humanize, and color is
// gated on github.com/mattn/go-isatty so piped output stays plain.
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"gscript/internal/bytecode"
	"gscript/internal/parser"
)

// Reporter writes the --debug triad to w, colorizing section headers only
// when w is a real terminal.
type Reporter struct {
	w      io.Writer
	colorized bool
}

func New(w io.Writer) *Reporter {
	colorized := false
	if f, ok := w.(*os.File); ok {
		colorized = isatty.IsTerminal(f.Fd())
	}
	return &Reporter{w: w, colorized: colorized}
}

func (r *Reporter) header(title string) {
	if r.colorized {
		fmt.Fprintf(r.w, "\x1b[1;36m=== %s ===\x1b[0m\n", title)
		return
	}
	fmt.Fprintf(r.w, "=== %s ===\n", title)
}

// Source prints the raw script text.
func (r *Reporter) Source(source string) {
	r.header("source")
	fmt.Fprintln(r.w, source)
}

// Statements dumps the parsed statement tree with kr/pretty.
func (r *Reporter) Statements(stmts []parser.Statement) {
	r.header("statements")
	for _, s := range stmts {
		fmt.Fprintf(r.w, "%# v\n", pretty.Formatter(s))
	}
}

// Program dumps the compiled instruction stream, with a humanized count
// summary line (e.g. "compiled 1,248 instructions").
func (r *Reporter) Program(prog *bytecode.Program) {
	r.header("instructions")
	fmt.Fprintf(r.w, "compiled %s instructions, %s function(s), %s class(es)\n",
		humanize.Comma(int64(len(prog.Code))),
		humanize.Comma(int64(len(prog.Functions))),
		humanize.Comma(int64(len(prog.Classes))))
	for i, instr := range prog.Code {
		fmt.Fprintf(r.w, "%4d  %s\n", i, instr)
	}
	r.header("output")
}
