package interp

import (
	"brili/internal/bir"
	"brili/internal/ierr"
	"brili/internal/value"
)

// Result is the function's return value (if any). RunFunction returns it
// together with the number of instructions dynamically executed within the
// call, including the calls it makes (spec §8 invariant 3).
type Result struct {
	Value    value.Value
	HasValue bool
}

// RunFunction implements the block walker (C5) for one function invocation.
// Calls re-enter this recursively through the call protocol (C6) in call.go.
func RunFunction(m *Machine, fn *bir.Function) (Result, int, error) {
	currBlock := 0
	var lastLabel string
	var currentLabel string
	start := m.dynInstrs

	for {
		if currBlock < 0 || currBlock >= len(fn.Blocks) {
			return Result{}, m.dynInstrs - start, &ierr.MissingLabel{Name: "<out of range>"}
		}
		b := &fn.Blocks[currBlock]

		// Step 1: instruction counter is incremented on block entry — a
		// truncating early Return still counts every instruction in its
		// block (spec §8 invariant 3).
		m.dynInstrs += len(b.Instrs)

		// Step 2: rotate labels before dispatching any instruction in this
		// block. last_label has no predecessor whenever the previously
		// executed block carried no label at all — including the entry
		// block, which has no predecessor by construction — mirroring the
		// reference interpreter's Option<&String> last_label/current_label
		// (brilirs/src/interp.rs), not merely "is this the first block".
		lastLabel = currentLabel
		haveLast := lastLabel != ""
		currentLabel = b.Label

		bs := blockState{exit: b.Exit, lastLabel: lastLabel, haveLast: haveLast}

		// Step 3: the fall-through candidate for a single-successor block.
		if len(b.Exit) == 1 {
			idx := b.Exit[0]
			bs.nextBlock = &idx
		}

		for i := range b.Instrs {
			instr := &b.Instrs[i]
			if err := execOne(m, instr, &bs); err != nil {
				return Result{}, m.dynInstrs - start, ierr.WithPos(err, instr.Pos.ToIErr())
			}
			if bs.returned {
				break
			}
		}

		if bs.returned {
			return Result{Value: bs.retVal, HasValue: bs.hasRetVal}, m.dynInstrs - start, nil
		}
		if bs.nextBlock == nil {
			return Result{}, m.dynInstrs - start, nil
		}
		currBlock = *bs.nextBlock
	}
}
