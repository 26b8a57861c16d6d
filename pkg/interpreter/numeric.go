package interpreter

import (
	"fmt"

	"wasmexec/pkg/ast"
	"wasmexec/pkg/value"
)

// supportsBinop reports whether the operator is implemented for its operand type.
func supportsBinop(b ast.Binop) bool {
	switch b.Type {
	case value.KindI32, value.KindI64:
	default:
		return false
	}

	switch b.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul:
		return true
	default:
		return false
	}
}

// evalBinop computes l op r. Integer arithmetic wraps around modulo 2^N.
func evalBinop(b ast.Binop, l, r value.Value) (value.Value, error) {
	switch b.Type {
	case value.KindI32:
		a, _ := l.AsI32()
		c, _ := r.AsI32()
		n, err := intBinop(b.Op, a, c)
		if err != nil {
			return value.Value{}, err
		}
		return value.I32(n), nil

	case value.KindI64:
		a, _ := l.AsI64()
		c, _ := r.AsI64()
		n, err := intBinop(b.Op, a, c)
		if err != nil {
			return value.Value{}, err
		}
		return value.I64(n), nil
	}

	return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownOpcode, b.Opcode())
}

// intBinop relies on Go's defined two's-complement wraparound for signed
// integer overflow.
func intBinop[T int32 | int64](op ast.BinaryOp, a, b T) (T, error) {
	switch op {
	case ast.OpAdd:
		return a + b, nil
	case ast.OpSub:
		return a - b, nil
	case ast.OpMul:
		return a * b, nil
	default:
		return 0, fmt.Errorf("%w: binary operator %q", ErrUnknownOpcode, op)
	}
}
