package heap

import (
	"testing"

	"brili/internal/ierr"
	"brili/internal/value"
)

func TestAlloc_NegativeSize(t *testing.T) {
	h := New()
	if _, err := h.Alloc(-1); err == nil {
		t.Fatal("expected CannotAllocSize for negative size")
	} else if _, ok := err.(*ierr.CannotAllocSize); !ok {
		t.Fatalf("expected *ierr.CannotAllocSize, got %T", err)
	}
}

func TestRoundTrip(t *testing.T) {
	// Scenario S3: alloc 3, store through ptradd offsets, load one back.
	h := New()
	p, err := h.Alloc(3)
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(0); i < 3; i++ {
		if err := h.Write(value.PtrAdd(p, i), value.Int(i)); err != nil {
			t.Fatal(err)
		}
	}
	v, err := h.Read(value.PtrAdd(p, 1))
	if err != nil || v.I != 1 {
		t.Fatalf("expected Int(1), got %+v, err=%v", v, err)
	}
	if err := h.Free(p); err != nil {
		t.Fatal(err)
	}
	if !h.IsEmpty() {
		t.Fatal("expected heap empty after free")
	}
}

func TestFree_IllegalOffset(t *testing.T) {
	// Scenario S5: free through a non-zero-offset pointer must fault.
	h := New()
	p, _ := h.Alloc(4)
	q := value.PtrAdd(p, 2)
	err := h.Free(q)
	ie, ok := err.(*ierr.IllegalFree)
	if !ok {
		t.Fatalf("expected *ierr.IllegalFree, got %T (%v)", err, err)
	}
	if ie.Base != p.Base || ie.Offset != 2 {
		t.Fatalf("unexpected payload: %+v", ie)
	}
}

func TestFree_UnknownHandle(t *testing.T) {
	h := New()
	if err := h.Free(value.Pointer{Base: 99}); err == nil {
		t.Fatal("expected IllegalFree for unknown handle")
	}
}

func TestRead_OutOfBounds(t *testing.T) {
	h := New()
	p, _ := h.Alloc(2)
	if _, err := h.Read(value.PtrAdd(p, 5)); err == nil {
		t.Fatal("expected InvalidMemoryAccess")
	}
	if _, err := h.Read(value.PtrAdd(p, -1)); err == nil {
		t.Fatal("expected InvalidMemoryAccess for negative offset")
	}
}

func TestRead_Uninitialized(t *testing.T) {
	h := New()
	p, _ := h.Alloc(1)
	if _, err := h.Read(p); err == nil {
		t.Fatal("expected UsingUninitializedMemory")
	} else if _, ok := err.(*ierr.UsingUninitializedMemory); !ok {
		t.Fatalf("expected *ierr.UsingUninitializedMemory, got %T", err)
	}
}

func TestHandlesNeverReused(t *testing.T) {
	h := New()
	p1, _ := h.Alloc(1)
	_ = h.Free(p1)
	p2, _ := h.Alloc(1)
	if p1.Base == p2.Base {
		t.Fatalf("expected fresh handle, got reused %d", p2.Base)
	}
}
