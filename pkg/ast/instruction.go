package ast

import (
	"fmt"
	"strings"

	"wasmexec/pkg/value"
)

// Instruction is a node of an instruction tree. The set of implementations is
// closed: only the types declared in this package satisfy it.
type Instruction interface {
	Opcode() string
	String() string

	instruction()
}

type BinaryOp string

// List of binary operators
const (
	OpAdd BinaryOp = "add"
	OpSub BinaryOp = "sub"
	OpMul BinaryOp = "mul"
)

// Const pushes a literal. Literal parsing happens before the tree is built.
type Const struct {
	Value value.Value
}

// GetLocal pushes the local at Index.
type GetLocal struct {
	Index int
}

// SetLocal stores into the local at Index. When Init is nil the operand is
// taken from the top of the stack.
type SetLocal struct {
	Index int
	Init  Instruction
}

// Binop applies Op to the two topmost operands of type Type.
type Binop struct {
	Type value.Kind
	Op   BinaryOp
}

type Nop struct{}

type Trap struct{}

// Loop runs Body once per visit. Result, like on Block and If, is the
// declared type as written; it is listed but not enforced at run time.
type Loop struct {
	Label  string     // empty when anonymous
	Result value.Kind // KindInvalid when the loop declares no result
	Body   []Instruction
}

// Block runs Body behind a label barrier on the operand stack.
type Block struct {
	Label  string     // empty when anonymous
	Result value.Kind // KindInvalid when the block declares no result
	Body   []Instruction
}

// If evaluates Test, then Consequent when the result is non-zero and
// Alternate otherwise.
type If struct {
	Result     value.Kind
	Test       []Instruction
	Consequent []Instruction
	Alternate  []Instruction
}

// Instr is an instruction known to the tree builder but not modeled by a
// dedicated node type.
type Instr struct {
	ID   string
	Args []string
}

func (Const) instruction()    {}
func (GetLocal) instruction() {}
func (SetLocal) instruction() {}
func (Binop) instruction()    {}
func (Nop) instruction()      {}
func (Trap) instruction()     {}
func (Loop) instruction()     {}
func (Block) instruction()    {}
func (If) instruction()       {}
func (Instr) instruction()    {}

func (c Const) Opcode() string  { return c.Value.Kind().String() + ".const" }
func (GetLocal) Opcode() string { return "get_local" }
func (SetLocal) Opcode() string { return "set_local" }
func (b Binop) Opcode() string  { return b.Type.String() + "." + string(b.Op) }
func (Nop) Opcode() string      { return "nop" }
func (Trap) Opcode() string     { return "trap" }
func (Loop) Opcode() string     { return "loop" }
func (Block) Opcode() string    { return "block" }
func (If) Opcode() string       { return "if" }
func (i Instr) Opcode() string  { return i.ID }

// String returns a one-line rendering of the instruction. Nested bodies are
// summarized by their length.
func (c Const) String() string {
	s := c.Value.String()
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return fmt.Sprintf("(%s %s)", c.Opcode(), s)
}

func (g GetLocal) String() string {
	return fmt.Sprintf("(get_local %d)", g.Index)
}

func (s SetLocal) String() string {
	if s.Init == nil {
		return fmt.Sprintf("(set_local %d)", s.Index)
	}
	return fmt.Sprintf("(set_local %d %s)", s.Index, s.Init)
}

func (b Binop) String() string { return "(" + b.Opcode() + ")" }
func (Nop) String() string     { return "(nop)" }
func (Trap) String() string    { return "(trap)" }

func (l Loop) String() string {
	return fmt.Sprintf("(loop%s%s [%d])", labelText(l.Label), resultText(l.Result), len(l.Body))
}

func (b Block) String() string {
	return fmt.Sprintf("(block%s%s [%d])", labelText(b.Label), resultText(b.Result), len(b.Body))
}

func (i If) String() string {
	return fmt.Sprintf("(if%s [%d] [%d] [%d])", resultText(i.Result), len(i.Test), len(i.Consequent), len(i.Alternate))
}

func (i Instr) String() string {
	if len(i.Args) == 0 {
		return "(" + i.ID + ")"
	}
	return "(" + i.ID + " " + strings.Join(i.Args, " ") + ")"
}

func labelText(label string) string {
	if label == "" {
		return ""
	}
	return " $" + label
}

func resultText(k value.Kind) string {
	if k == value.KindInvalid {
		return ""
	}
	return " (result " + k.String() + ")"
}

// I32Const creates an i32 constant node.
func I32Const(n int32) Const {
	return Const{Value: value.I32(n)}
}

// I64Const creates an i64 constant node.
func I64Const(n int64) Const {
	return Const{Value: value.I64(n)}
}

// I32Binop creates an i32 binary operator node.
func I32Binop(op BinaryOp) Binop {
	return Binop{Type: value.KindI32, Op: op}
}
