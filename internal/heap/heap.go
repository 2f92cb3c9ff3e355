// Package heap implements the handle-addressed heap of spec §3/§4.3 (C3).
//
// The teacher's Memory type (SupraX.go) backed the whole address space with
// one flat []uint64 and masked addresses into it; that model fits a real
// CPU's linear address space but not Bril's heap, where every alloc gets an
// independently-sized, independently-freed block and two different handles
// never alias. Heap keeps the teacher's "plain slice, bounds-checked load/
// store" shape but gives every allocation its own slice behind a handle,
// which is what makes handle-based leak detection (spec invariant 5)
// possible at all.
package heap

import (
	"brili/internal/ierr"
	"brili/internal/value"
)

// Heap is a mapping from handle to a contiguous vector of Values, plus a
// monotonically increasing handle counter (spec §3 Heap, §4.3).
type Heap struct {
	blocks map[int][]value.Value
	next   int
}

func New() *Heap {
	return &Heap{blocks: make(map[int][]value.Value)}
}

// Alloc implements §4.3 alloc(n).
func (h *Heap) Alloc(n int64) (value.Pointer, error) {
	if n < 0 {
		return value.Pointer{}, &ierr.CannotAllocSize{N: n}
	}
	handle := h.next
	h.next++
	h.blocks[handle] = make([]value.Value, n)
	return value.Pointer{Base: handle, Offset: 0}, nil
}

// Free implements §4.3 free(p).
func (h *Heap) Free(p value.Pointer) error {
	if p.Offset != 0 {
		return &ierr.IllegalFree{Base: p.Base, Offset: p.Offset}
	}
	if _, ok := h.blocks[p.Base]; !ok {
		return &ierr.IllegalFree{Base: p.Base, Offset: p.Offset}
	}
	delete(h.blocks, p.Base)
	return nil
}

// Read implements §4.3 read(p).
func (h *Heap) Read(p value.Pointer) (value.Value, error) {
	block, ok := h.blocks[p.Base]
	if !ok || p.Offset < 0 || p.Offset >= int64(len(block)) {
		return value.Value{}, &ierr.InvalidMemoryAccess{Base: p.Base, Offset: p.Offset}
	}
	v := block[p.Offset]
	if v.Kind == value.Uninitialized {
		return value.Value{}, &ierr.UsingUninitializedMemory{}
	}
	return v, nil
}

// Write implements §4.3 write(p, v).
func (h *Heap) Write(p value.Pointer, v value.Value) error {
	block, ok := h.blocks[p.Base]
	if !ok || p.Offset < 0 || p.Offset >= int64(len(block)) {
		return &ierr.InvalidMemoryAccess{Base: p.Base, Offset: p.Offset}
	}
	block[p.Offset] = v
	return nil
}

// IsEmpty implements §4.3 is_empty, used by the entry driver's leak check
// (spec §4.7 step 5, invariant 5).
func (h *Heap) IsEmpty() bool { return len(h.blocks) == 0 }

// Live returns the number of currently-allocated blocks, for MemLeak's
// diagnostic payload.
func (h *Heap) Live() int { return len(h.blocks) }
