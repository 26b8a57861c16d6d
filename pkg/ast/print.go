package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented listing of the instruction sequence, one
// instruction per line, descending into nested bodies.
func Fprint(w io.Writer, code []Instruction) error {
	p := printer{w: w}
	p.seq(code, 0)
	return p.err
}

// Sprint returns the listing produced by Fprint.
func Sprint(code []Instruction) string {
	var sb strings.Builder
	_ = Fprint(&sb, code)
	return sb.String()
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(depth int, s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", depth), s)
}

func (p *printer) seq(code []Instruction, depth int) {
	for _, in := range code {
		p.instr(in, depth)
	}
}

func (p *printer) instr(in Instruction, depth int) {
	switch n := in.(type) {
	case Block:
		p.line(depth, "block"+labelText(n.Label)+resultText(n.Result))
		p.seq(n.Body, depth+1)
		p.line(depth, "end")

	case Loop:
		p.line(depth, "loop"+labelText(n.Label)+resultText(n.Result))
		p.seq(n.Body, depth+1)
		p.line(depth, "end")

	case If:
		p.line(depth, "if"+resultText(n.Result))
		p.seq(n.Test, depth+1)
		p.line(depth, "then")
		p.seq(n.Consequent, depth+1)
		if len(n.Alternate) > 0 {
			p.line(depth, "else")
			p.seq(n.Alternate, depth+1)
		}
		p.line(depth, "end")

	default:
		p.line(depth, in.String())
	}
}
