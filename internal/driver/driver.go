// Package driver implements the entry driver (C7, spec §4.7): locating and
// validating the entry function, parsing typed inputs, running the block
// walker, and enforcing the heap-empty postcondition before emitting an
// optional instruction-count profile line.
package driver

import (
	"fmt"
	"io"

	"brili/internal/bir"
	"brili/internal/heap"
	"brili/internal/ierr"
	"brili/internal/interp"
	"brili/internal/stack"
	"brili/internal/value"
)

// Options bundles execute_main's external inputs (spec §6).
type Options struct {
	Program    *bir.Program
	Out        io.Writer
	Args       []string
	Profile    bool
	ProfileOut io.Writer
}

// ExecuteMain runs the program's entry function end to end (C7).
func ExecuteMain(opts Options) error {
	entry, err := opts.Program.Entry()
	if err != nil {
		return err
	}
	if entry.HasRetType {
		return ierr.WithPos(&ierr.NonEmptyRetForFunc{Name: entry.Name}, entry.Pos.ToIErr())
	}

	env := stack.New(entry.NumVars)
	h := heap.New()

	if err := bindArgs(env, entry, opts.Args); err != nil {
		return ierr.WithPos(err, entry.Pos.ToIErr())
	}

	m := &interp.Machine{Env: env, Heap: h, Out: opts.Out, Program: opts.Program}
	_, count, err := interp.RunFunction(m, entry)
	if err != nil {
		return err
	}

	if !h.IsEmpty() {
		return &ierr.MemLeak{Live: h.Live()}
	}

	if opts.Profile {
		line := fmt.Sprintf("total_dyn_inst: %d\n", count)
		if _, err := io.WriteString(opts.ProfileOut, line); err != nil {
			return &ierr.IoError{Cause: err}
		}
		if f, ok := opts.ProfileOut.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return &ierr.IoError{Cause: err}
			}
		}
	}
	return nil
}

// bindArgs implements §4.7 step 3: parse each input string per the
// declared argument type and write it into the entry frame.
func bindArgs(env *stack.Environment, entry *bir.Function, args []string) error {
	if len(args) != len(entry.Args) {
		return &ierr.BadNumFuncArgs{Expected: len(entry.Args), Actual: len(args)}
	}
	for i, a := range entry.Args {
		var v value.Value
		var err error
		switch a.Type {
		case bir.TypeBool:
			v, err = value.ParseBool(args[i])
		case bir.TypeInt:
			v, err = value.ParseInt(args[i])
		case bir.TypeFloat:
			v, err = value.ParseFloat(args[i])
		case bir.TypePtr:
			// Pointer-typed entry arguments are impossible (spec §4.7 step 3).
			return &ierr.BadAsmtType{Expected: "int|bool|float", Actual: "ptr"}
		default:
			return &ierr.BadAsmtType{Expected: "int|bool|float", Actual: string(a.Type)}
		}
		if err != nil {
			return err
		}
		env.Set(a.Index, v)
	}
	return nil
}
