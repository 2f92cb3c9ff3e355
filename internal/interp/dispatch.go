// Package interp implements op dispatch (C4), the basic-block walker (C5)
// and the call protocol (C6) of spec §4.4–§4.6.
//
// The opcode switch in execOne is the direct descendant of the teacher's
// ExecuteALU (SupraX.go): a flat switch over an opcode byte that reads two
// operands and produces one result, with division specially guarded
// against zero exactly like the teacher's Divide. Where Bril's instruction
// set needs more than the teacher's arithmetic core — memory ops, calls,
// phi, branches — the same "read operands from the environment, write one
// result" shape is kept and the extra opcodes are added to the switch.
package interp

import (
	"fmt"
	"io"
	"math"

	"github.com/samber/lo"

	"brili/internal/bir"
	"brili/internal/heap"
	"brili/internal/ierr"
	"brili/internal/stack"
	"brili/internal/value"
)

// Machine bundles the state an instruction dispatch touches: the current
// function's environment frame, the shared heap, the output sink, and the
// program (for Call's callee lookup).
type Machine struct {
	Env     *stack.Environment
	Heap    *heap.Heap
	Out     io.Writer
	Program *bir.Program

	// dynInstrs counts instructions across every RunFunction invocation on
	// this machine, so a caller's count includes the calls it makes.
	dynInstrs int
}

// blockState carries the per-block values the walker threads through each
// instruction dispatch: the fall-through/branch target cell, the pending
// return value, and the label bookkeeping phi needs.
type blockState struct {
	exit      []int
	nextBlock *int
	returned  bool
	retVal    value.Value
	hasRetVal bool
	lastLabel string
	haveLast  bool
}

// execOne dispatches a single numified instruction (C4). It mutates m.Env
// and m.Heap in place and updates bs for effect ops that affect control
// flow (Jump, Branch, Return).
func execOne(m *Machine, instr *bir.Instr, bs *blockState) error {
	switch instr.Op {
	case bir.OpConst:
		var v value.Value
		switch instr.LitKind {
		case bir.LitInt:
			v = value.FromLiteralInt(instr.DestType == bir.TypeFloat, instr.IntLit)
		case bir.LitFloat:
			v = value.Float(instr.FloatLit)
		case bir.LitBool:
			if instr.DestType == bir.TypeFloat {
				// A declared-Float constant with a Bool literal is
				// impossible per §4.1 and is a program bug we let fault.
				return &ierr.BadAsmtType{Expected: "float", Actual: "bool"}
			}
			v = value.Bool(instr.BoolLit)
		default:
			return &ierr.BadAsmtType{Expected: "int|bool|float", Actual: string(instr.LitKind)}
		}
		m.Env.Set(instr.Dest, v)
		return nil

	case bir.OpAdd, bir.OpSub, bir.OpMul, bir.OpDiv,
		bir.OpEq, bir.OpLt, bir.OpGt, bir.OpLe, bir.OpGe:
		return execIntOp(m, instr)

	case bir.OpFadd, bir.OpFsub, bir.OpFmul, bir.OpFdiv,
		bir.OpFeq, bir.OpFlt, bir.OpFgt, bir.OpFle, bir.OpFge:
		return execFloatOp(m, instr)

	case bir.OpNot, bir.OpAnd, bir.OpOr:
		return execBoolOp(m, instr)

	case bir.OpID:
		v, err := operand(m, instr.Args[0])
		if err != nil {
			return err
		}
		m.Env.Set(instr.Dest, v)
		return nil

	case bir.OpAlloc:
		n, err := operand(m, instr.Args[0])
		if err != nil {
			return err
		}
		p, err := m.Heap.Alloc(n.I)
		if err != nil {
			return err
		}
		m.Env.Set(instr.Dest, value.Ptr(p))
		return nil

	case bir.OpLoad:
		p, err := operand(m, instr.Args[0])
		if err != nil {
			return err
		}
		if p.Kind != value.KindPointer {
			return &ierr.ExpectedPointerType{Type: p.Kind.TypeName()}
		}
		v, err := m.Heap.Read(p.P)
		if err != nil {
			return err
		}
		m.Env.Set(instr.Dest, v)
		return nil

	case bir.OpStore:
		p, err := operand(m, instr.Args[0])
		if err != nil {
			return err
		}
		if p.Kind != value.KindPointer {
			return &ierr.ExpectedPointerType{Type: p.Kind.TypeName()}
		}
		v, err := operand(m, instr.Args[1])
		if err != nil {
			return err
		}
		return m.Heap.Write(p.P, v)

	case bir.OpFree:
		p, err := operand(m, instr.Args[0])
		if err != nil {
			return err
		}
		if p.Kind != value.KindPointer {
			return &ierr.ExpectedPointerType{Type: p.Kind.TypeName()}
		}
		return m.Heap.Free(p.P)

	case bir.OpPtrAdd:
		p, err := operand(m, instr.Args[0])
		if err != nil {
			return err
		}
		if p.Kind != value.KindPointer {
			return &ierr.ExpectedPointerType{Type: p.Kind.TypeName()}
		}
		delta, err := operand(m, instr.Args[1])
		if err != nil {
			return err
		}
		m.Env.Set(instr.Dest, value.Ptr(value.PtrAdd(p.P, delta.I)))
		return nil

	case bir.OpPhi:
		return execPhi(m, instr, bs)

	case bir.OpCall:
		return execCall(m, instr)

	case bir.OpJump:
		idx := bs.exit[0]
		bs.nextBlock = &idx
		return nil

	case bir.OpBranch:
		cond, err := operand(m, instr.Args[0])
		if err != nil {
			return err
		}
		var idx int
		if cond.B {
			idx = bs.exit[0]
		} else {
			idx = bs.exit[1]
		}
		bs.nextBlock = &idx
		return nil

	case bir.OpReturn:
		bs.returned = true
		if len(instr.Args) > 0 {
			v, err := operand(m, instr.Args[0])
			if err != nil {
				return err
			}
			bs.retVal, bs.hasRetVal = v, true
		}
		return nil

	case bir.OpPrint:
		return execPrint(m, instr)

	case bir.OpNop:
		return nil

	case bir.OpSpeculate, bir.OpCommit, bir.OpGuard:
		return fmt.Errorf("unimplemented speculative opcode %q", instr.Op)

	default:
		return fmt.Errorf("unknown opcode %q", instr.Op)
	}
}

// operand fetches an argument value and checks it was not left
// Uninitialized — "Uninitialized ... must never be consumed as an operand"
// (spec §3 Value).
func operand(m *Machine, k int) (value.Value, error) {
	return m.Env.Get(k)
}

func execIntOp(m *Machine, instr *bir.Instr) error {
	a, err := operand(m, instr.Args[0])
	if err != nil {
		return err
	}
	b, err := operand(m, instr.Args[1])
	if err != nil {
		return err
	}
	switch instr.Op {
	case bir.OpAdd:
		m.Env.Set(instr.Dest, value.Int(a.I+b.I))
	case bir.OpSub:
		m.Env.Set(instr.Dest, value.Int(a.I-b.I))
	case bir.OpMul:
		m.Env.Set(instr.Dest, value.Int(a.I*b.I))
	case bir.OpDiv:
		// Guarded exactly like the teacher's Divide special-cases
		// divisor == 0 rather than letting the machine division fault.
		if b.I == 0 {
			return fmt.Errorf("division by zero")
		}
		m.Env.Set(instr.Dest, value.Int(a.I/b.I))
	case bir.OpEq:
		m.Env.Set(instr.Dest, value.Bool(a.I == b.I))
	case bir.OpLt:
		m.Env.Set(instr.Dest, value.Bool(a.I < b.I))
	case bir.OpGt:
		m.Env.Set(instr.Dest, value.Bool(a.I > b.I))
	case bir.OpLe:
		m.Env.Set(instr.Dest, value.Bool(a.I <= b.I))
	case bir.OpGe:
		m.Env.Set(instr.Dest, value.Bool(a.I >= b.I))
	}
	return nil
}

func execFloatOp(m *Machine, instr *bir.Instr) error {
	a, err := operand(m, instr.Args[0])
	if err != nil {
		return err
	}
	b, err := operand(m, instr.Args[1])
	if err != nil {
		return err
	}
	switch instr.Op {
	case bir.OpFadd:
		m.Env.Set(instr.Dest, value.Float(a.F+b.F))
	case bir.OpFsub:
		m.Env.Set(instr.Dest, value.Float(a.F-b.F))
	case bir.OpFmul:
		m.Env.Set(instr.Dest, value.Float(a.F*b.F))
	case bir.OpFdiv:
		m.Env.Set(instr.Dest, value.Float(a.F/b.F))
	case bir.OpFeq:
		m.Env.Set(instr.Dest, value.Bool(!math.IsNaN(a.F) && !math.IsNaN(b.F) && a.F == b.F))
	case bir.OpFlt:
		m.Env.Set(instr.Dest, value.Bool(a.F < b.F))
	case bir.OpFgt:
		m.Env.Set(instr.Dest, value.Bool(a.F > b.F))
	case bir.OpFle:
		m.Env.Set(instr.Dest, value.Bool(a.F <= b.F))
	case bir.OpFge:
		m.Env.Set(instr.Dest, value.Bool(a.F >= b.F))
	}
	return nil
}

func execBoolOp(m *Machine, instr *bir.Instr) error {
	a, err := operand(m, instr.Args[0])
	if err != nil {
		return err
	}
	if instr.Op == bir.OpNot {
		m.Env.Set(instr.Dest, value.Bool(!a.B))
		return nil
	}
	b, err := operand(m, instr.Args[1])
	if err != nil {
		return err
	}
	// Non-short-circuiting: the numifier has already materialized both
	// arguments by the time they reach dispatch (spec §4.4).
	if instr.Op == bir.OpAnd {
		m.Env.Set(instr.Dest, value.Bool(a.B && b.B))
	} else {
		m.Env.Set(instr.Dest, value.Bool(a.B || b.B))
	}
	return nil
}

func execPhi(m *Machine, instr *bir.Instr, bs *blockState) error {
	if !bs.haveLast {
		return &ierr.NoLastLabel{}
	}
	if len(instr.Labels) != len(instr.Args) {
		return &ierr.UnequalPhiNode{}
	}
	i := lo.IndexOf(instr.Labels, bs.lastLabel)
	if i < 0 {
		return &ierr.PhiMissingLabel{Name: bs.lastLabel}
	}
	v, err := operand(m, instr.Args[i])
	if err != nil {
		return err
	}
	m.Env.Set(instr.Dest, v)
	return nil
}

func execPrint(m *Machine, instr *bir.Instr) error {
	vals := make([]value.Value, len(instr.Args))
	for i, k := range instr.Args {
		v, err := operand(m, k)
		if err != nil {
			return err
		}
		if v.Kind == value.Uninitialized {
			return &ierr.UsingUninitializedMemory{}
		}
		vals[i] = v
	}
	parts := lo.Map(vals, func(v value.Value, _ int) string { return v.String() })
	line := ""
	for i, p := range parts {
		if i > 0 {
			line += " "
		}
		line += p
	}
	line += "\n"
	if _, err := io.WriteString(m.Out, line); err != nil {
		return &ierr.IoError{Cause: err}
	}
	if f, ok := m.Out.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return &ierr.IoError{Cause: err}
		}
	}
	return nil
}
