package ast

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"wasmexec/pkg/value"
)

// Func is a function body together with the initial contents of its locals.
// A local left as the zero Value is unset.
type Func struct {
	Name   string
	Locals []value.Value
	Body   []Instruction
}

type funcFile struct {
	Name   string      `yaml:"name"`
	Locals []slotNode  `yaml:"locals"`
	Body   []instrNode `yaml:"body"`
}

type slotNode struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

type instrNode struct {
	Op     string      `yaml:"op"`
	Value  yaml.Node   `yaml:"value"`
	Index  *int        `yaml:"index"`
	Init   *instrNode  `yaml:"init"`
	Label  string      `yaml:"label"`
	Result string      `yaml:"result"`
	Body   []instrNode `yaml:"body"`
	Test   []instrNode `yaml:"test"`
	Then   []instrNode `yaml:"then"`
	Else   []instrNode `yaml:"else"`
	Args   []string    `yaml:"args"`
}

var ErrEmptyOp = errors.New("instruction without op")

// LoadFile reads a YAML function file from disk.
func LoadFile(path string) (*Func, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fn, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return fn, nil
}

// Decode reads a YAML function document. Unknown keys are rejected.
func Decode(r io.Reader) (*Func, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file funcFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode function: %w", err)
	}

	fn := &Func{
		Name:   file.Name,
		Locals: make([]value.Value, len(file.Locals)),
	}

	for i, s := range file.Locals {
		if s.Type == "" {
			continue // unset slot
		}
		kind, err := value.ParseKind(s.Type)
		if err != nil {
			return nil, fmt.Errorf("locals[%d]: %w", i, err)
		}
		v, err := literal(kind, &s.Value)
		if err != nil {
			return nil, fmt.Errorf("locals[%d]: %w", i, err)
		}
		fn.Locals[i] = v
	}

	body, err := convertSeq(file.Body, "body")
	if err != nil {
		return nil, err
	}
	fn.Body = body

	return fn, nil
}

func convertSeq(nodes []instrNode, path string) ([]Instruction, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	out := make([]Instruction, 0, len(nodes))
	for i := range nodes {
		in, err := convert(&nodes[i], fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}

	return out, nil
}

func convert(n *instrNode, path string) (Instruction, error) {
	result, err := resultKind(n.Result)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	switch n.Op {
	case "":
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyOp)

	case "nop":
		return Nop{}, nil

	case "trap", "unreachable":
		return Trap{}, nil

	case "get_local", "local.get":
		if n.Index == nil {
			return nil, fmt.Errorf("%s: %s requires an index", path, n.Op)
		}
		return GetLocal{Index: *n.Index}, nil

	case "set_local", "local.set":
		if n.Index == nil {
			return nil, fmt.Errorf("%s: %s requires an index", path, n.Op)
		}
		set := SetLocal{Index: *n.Index}
		if n.Init != nil {
			init, err := convert(n.Init, path+".init")
			if err != nil {
				return nil, err
			}
			set.Init = init
		}
		return set, nil

	case "block", "loop":
		body, err := convertSeq(n.Body, path+".body")
		if err != nil {
			return nil, err
		}
		if n.Op == "loop" {
			return Loop{Label: n.Label, Result: result, Body: body}, nil
		}
		return Block{Label: n.Label, Result: result, Body: body}, nil

	case "if":
		test, err := convertSeq(n.Test, path+".test")
		if err != nil {
			return nil, err
		}
		then, err := convertSeq(n.Then, path+".then")
		if err != nil {
			return nil, err
		}
		alt, err := convertSeq(n.Else, path+".else")
		if err != nil {
			return nil, err
		}
		return If{Result: result, Test: test, Consequent: then, Alternate: alt}, nil
	}

	// typed numeric instructions: <type>.<name>
	prefix, name, ok := strings.Cut(n.Op, ".")
	if ok {
		if kind, err := value.ParseKind(prefix); err == nil && kind.IsNumeric() {
			switch name {
			case "const":
				v, err := literal(kind, &n.Value)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				return Const{Value: v}, nil
			case string(OpAdd), string(OpSub), string(OpMul):
				return Binop{Type: kind, Op: BinaryOp(name)}, nil
			}
		}
	}

	return Instr{ID: n.Op, Args: n.Args}, nil
}

func resultKind(name string) (value.Kind, error) {
	if name == "" {
		return value.KindInvalid, nil
	}
	k, err := value.ParseKind(name)
	if err != nil {
		return value.KindInvalid, err
	}
	if !k.IsNumeric() {
		return value.KindInvalid, fmt.Errorf("invalid result type: %q", name)
	}
	return k, nil
}

// literal decodes a YAML scalar into a value of the given kind. i32 literals
// accept the signed and unsigned 32-bit ranges.
func literal(kind value.Kind, node *yaml.Node) (value.Value, error) {
	if node.Kind == 0 {
		return value.Value{}, fmt.Errorf("%s literal missing", kind)
	}

	switch kind {
	case value.KindI32:
		var n int64
		if err := node.Decode(&n); err != nil {
			return value.Value{}, fmt.Errorf("i32 literal: %w", err)
		}
		if n < math.MinInt32 || n > math.MaxUint32 {
			return value.Value{}, fmt.Errorf("i32 literal out of range: %d", n)
		}
		return value.I32(int32(uint32(n))), nil

	case value.KindI64:
		var n int64
		if err := node.Decode(&n); err != nil {
			return value.Value{}, fmt.Errorf("i64 literal: %w", err)
		}
		return value.I64(n), nil

	case value.KindF32:
		var f float64
		if err := node.Decode(&f); err != nil {
			return value.Value{}, fmt.Errorf("f32 literal: %w", err)
		}
		return value.F32(float32(f)), nil

	case value.KindF64:
		var f float64
		if err := node.Decode(&f); err != nil {
			return value.Value{}, fmt.Errorf("f64 literal: %w", err)
		}
		return value.F64(f), nil

	default:
		return value.Value{}, fmt.Errorf("no literal form for %s", kind)
	}
}
