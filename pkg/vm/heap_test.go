package vm

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

func TestHeap_NewHeap(t *testing.T) {
	h := NewDefaultHeap()
	if h.Size() != 0 {
		t.Errorf("Expected new heap size to be 0, got %d", h.Size())
	}
	for _, k := range heap.Kinds() {
		if h.Len(k) != 0 {
			t.Errorf("Expected empty %s arena, got %d slots", k, h.Len(k))
		}
	}
	if h.Threshold() != uint64(heap.DefaultConfig().GCThreshold) {
		t.Errorf("Expected threshold from config, got %d", h.Threshold())
	}
}

func TestHeap_InvalidConfigPanics(t *testing.T) {
	cfg := heap.DefaultConfig()
	cfg.InitialCapacity = -1
	expectInvariant(t, "negative capacity", func() { NewHeap(cfg) })
}

func TestHeap_AllocationCounter(t *testing.T) {
	h := NewDefaultHeap()
	h.CreateObject(Null)
	afterObject := h.AllocatedSinceCollection()
	if afterObject == 0 {
		t.Fatalf("allocation was not counted")
	}
	o := h.CreateObject(Null)
	mustSet(t, h, o.Object(), "a", True)
	if h.AllocatedSinceCollection() <= 2*afterObject {
		t.Errorf("property storage growth was not counted: %d", h.AllocatedSinceCollection())
	}
	if h.Size() != 2*afterObject {
		t.Errorf("expected arena size %d, got %d", 2*afterObject, h.Size())
	}
}

func TestHeap_MaxHeapBytes(t *testing.T) {
	cfg := heap.DefaultConfig()
	cfg.GCThreshold = 0
	cfg.MaxHeapBytes = 1024
	h := NewHeap(cfg)

	defer func() {
		r := recover()
		ex, ok := r.(*errors.ExhaustionError)
		if !ok {
			t.Fatalf("expected *errors.ExhaustionError, got %T (%v)", r, r)
		}
		if ex.Limit != 1024 || ex.Used <= ex.Limit {
			t.Errorf("unexpected exhaustion report %+v", ex)
		}
	}()
	for i := 0; i < 10_000; i++ {
		h.CreateObject(Null)
	}
}

func TestHeap_Exclusive(t *testing.T) {
	h := NewDefaultHeap()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Exclusive(func(h *Heap) { h.CreateObject(Null) })
			}
		}()
	}
	wg.Wait()
	if n := h.Len(heap.KindObject); n != 400 {
		t.Errorf("expected 400 objects, got %d", n)
	}
}

func TestHeap_Close(t *testing.T) {
	h := NewDefaultHeap()
	o := h.CreateObject(Null)
	h.Close()
	if h.Contains(o.Value()) {
		t.Errorf("closed heap still contains objects")
	}
	if h.AllocatedSinceCollection() != 0 {
		t.Errorf("closed heap kept its allocation counter")
	}
	if !h.Contains(NumberValue(1)) {
		t.Errorf("primitives are always contained")
	}
}

func TestHeap_Stats(t *testing.T) {
	h := NewDefaultHeap()
	h.CreateObject(Null)
	h.CreateObject(Null)
	h.CreateSymbol(NewString("s"))

	s := h.Stats()
	if s.TotalSlots != 3 {
		t.Errorf("expected 3 slots, got %d", s.TotalSlots)
	}
	if len(s.Kinds) != heap.NumKinds {
		t.Errorf("expected a row per kind, got %d", len(s.Kinds))
	}
	if s.Kinds[heap.KindObject].Slots != 2 {
		t.Errorf("expected 2 objects, got %d", s.Kinds[heap.KindObject].Slots)
	}
	if s.TotalBytes != h.Size() {
		t.Errorf("stats bytes %d disagree with heap size %d", s.TotalBytes, h.Size())
	}

	var buf bytes.Buffer
	s.Format(&buf)
	out := buf.String()
	for _, want := range []string{"object", "symbol", "total", "0 collections"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestHeap_Inspect(t *testing.T) {
	h := NewDefaultHeap()
	inner := h.CreateArray(NumberValue(1), NewString("two"))
	o := h.CreateObject(Null)
	mustSet(t, h, o.Object(), "list", inner.Value())
	mustSet(t, h, o.Object(), "self", o.Value())
	if err := NewPropertyStorage(o.Object()).Set(h, NewStringKey("hidden"), ReadOnlyDescriptor(True, false, true)); err != nil {
		t.Fatal(err)
	}
	s := h.CreateSet()
	h.SetAdd(s, NumberValue(3))
	f := h.CreateFunction("go", 0, nil, FunctionOptions{})
	re, _ := h.CreateRegExp("a+", "gi")
	sym := h.CreateSymbol(NewString("tag"))

	tests := []struct {
		v    Value
		want string
	}{
		{NumberValue(1.5), "1.5"},
		{NewString("plain"), "plain"},
		{inner.Value(), `[1, "two"]`},
		{o.Value(), `{ list: [1, "two"], self: [Circular] }`},
		{s.Value(), "Set(1) { 3 }"},
		{f.Value(), "[Function: go]"},
		{re.Value(), "/a+/gi"},
		{sym.Value(), "Symbol(tag)"},
	}
	for _, tt := range tests {
		if got := h.Inspect(tt.v); got != tt.want {
			t.Errorf("Inspect: expected %s, got %s", tt.want, got)
		}
	}
}
