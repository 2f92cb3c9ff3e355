package interp

import (
	"brili/internal/bir"
	"brili/internal/ierr"
)

// makeFuncArgs implements §4.6 make_func_args: push a callee frame and
// marshal the caller's argument values into it. The caller is responsible
// for popping the frame once the nested RunFunction returns.
func makeFuncArgs(m *Machine, callee *bir.Function, callerArgIdx []int) error {
	if len(callerArgIdx) != len(callee.Args) {
		return &ierr.BadNumFuncArgs{Expected: len(callee.Args), Actual: len(callerArgIdx)}
	}
	m.Env.PushFrame(callee.NumVars)
	for i, idx := range callerArgIdx {
		v, err := m.Env.GetFromEnclosing(idx)
		if err != nil {
			return err
		}
		m.Env.Set(callee.Args[i].Index, v)
	}
	return nil
}

// execCall implements Call in both its value and effect forms (spec §4.4,
// §4.6). Whether the result is consumed is determined by instr.HasDest.
func execCall(m *Machine, instr *bir.Instr) error {
	if len(instr.Funcs) != 1 {
		return &ierr.BadNumFuncs{}
	}
	calleeIdx := instr.Funcs[0]
	if calleeIdx < 0 || calleeIdx >= len(m.Program.Functions) {
		return &ierr.FuncNotFound{Name: "<index out of range>"}
	}
	callee := &m.Program.Functions[calleeIdx]

	if err := makeFuncArgs(m, callee, instr.Args); err != nil {
		return err
	}
	result, _, err := RunFunction(m, callee)
	m.Env.PopFrame()
	if err != nil {
		return err
	}

	if instr.HasDest {
		if !result.HasValue {
			return &ierr.NonEmptyRetForFunc{Name: callee.Name}
		}
		m.Env.Set(instr.Dest, result.Value)
	}
	return nil
}
