package interpreter

import (
	"fmt"

	"wasmexec/pkg/ast"
	"wasmexec/pkg/value"
)

// step executes a single instruction of f. It returns true when the
// instruction trapped.
func (i *Interpreter) step(f *Frame, depth int, in ast.Instruction) (bool, error) {
	switch n := in.(type) {
	case ast.Const:
		if !n.Value.Kind().IsNumeric() {
			return false, fmt.Errorf("%w: %s", ErrUnknownOpcode, n.Opcode())
		}
		f.Values.Push(n.Value)
		return false, nil

	case ast.Nop:
		return false, nil

	case ast.GetLocal:
		v, err := f.Locals.Get(n.Index)
		if err != nil {
			return false, err
		}
		f.Values.Push(v)
		return false, nil

	case ast.SetLocal:
		return i.setLocal(f, depth, n)

	case ast.Binop:
		if !supportsBinop(n) {
			return false, fmt.Errorf("%w: %s", ErrUnknownOpcode, n.Opcode())
		}
		l, r, err := f.Values.Pop2(n.Type, n.Type)
		if err != nil {
			return false, err
		}
		res, err := evalBinop(n, l, r)
		if err != nil {
			return false, err
		}
		f.Values.Push(res)
		return false, nil

	case ast.Trap:
		i.logger.Debug("Trap", "depth", depth, "pc", f.PC)
		return true, nil

	case ast.Loop:
		// without branch instructions a loop body runs exactly once; its
		// value is not kept
		if len(n.Body) == 0 {
			return false, nil
		}
		res, err := i.Execute(f.Child(n.Body), depth+1)
		if err != nil {
			return false, err
		}
		return res.Trapped(), nil

	case ast.Block:
		return i.block(f, depth, n)

	case ast.If:
		return i.ifElse(f, depth, n)

	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownOpcode, in.Opcode())
	}
}

// runBody executes body in a child frame and pushes its value, if any.
func (i *Interpreter) runBody(f *Frame, depth int, body []ast.Instruction) (bool, error) {
	res, err := i.Execute(f.Child(body), depth+1)
	if err != nil {
		return false, err
	}

	if res.Trapped() {
		return true, nil
	}

	if v, ok := res.Value(); ok {
		f.Values.Push(v)
	}

	return false, nil
}

func (i *Interpreter) setLocal(f *Frame, depth int, n ast.SetLocal) (bool, error) {
	var v value.Value

	if n.Init == nil {
		top, err := f.Values.Pop()
		if err != nil {
			return false, err
		}
		v = top
	} else {
		res, err := i.Execute(f.Child([]ast.Instruction{n.Init}), depth+1)
		if err != nil {
			return false, err
		}
		if res.Trapped() {
			return true, nil
		}

		var ok bool
		if v, ok = res.Value(); !ok {
			return false, fmt.Errorf("%w: initializer of local %d produced no value", ErrMissingValue, n.Index)
		}
	}

	if err := f.Locals.Set(n.Index, v); err != nil {
		return false, err
	}

	return false, nil
}

// block runs the body behind a label marker. On exit the produced values are
// lifted off, the marker beneath them is removed and checked, and the values
// are pushed back.
func (i *Interpreter) block(f *Frame, depth int, n ast.Block) (bool, error) {
	f.Values.Push(value.Label(n.Label))

	produced := 0
	if len(n.Body) > 0 {
		before := f.Values.Size()
		trapped, err := i.runBody(f, depth, n.Body)
		if err != nil || trapped {
			return trapped, err
		}
		produced = f.Values.Size() - before
	}

	top, err := f.Values.PopN(produced)
	if err != nil {
		return false, err
	}

	marker, err := f.Values.Pop1(value.KindLabel)
	if err != nil {
		return false, err
	}

	if name, _ := marker.LabelName(); name != n.Label {
		return false, fmt.Errorf("%w: expected label %q, found %q", ErrLabelMismatch, n.Label, name)
	}

	f.Values.PushAll(top)
	return false, nil
}

func (i *Interpreter) ifElse(f *Frame, depth int, n ast.If) (bool, error) {
	res, err := i.Execute(f.Child(n.Test), depth+1)
	if err != nil {
		return false, err
	}
	if res.Trapped() {
		return true, nil
	}

	tv, ok := res.Value()
	if !ok {
		return false, fmt.Errorf("%w: if test produced no value", ErrMissingValue)
	}

	// only an i32 zero is false
	body := n.Consequent
	if cond, ok := tv.AsI32(); ok && cond == 0 {
		body = n.Alternate
	}

	if len(body) == 0 {
		return false, nil
	}

	return i.runBody(f, depth, body)
}
