package vm

import (
	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

// Behaviour is the native code behind a builtin function.
type Behaviour func(h *Heap, this Value, args []Value) (Value, error)

// FunctionHeapData is the payload of a callable. A function is either a
// builtin (behaviour set) or bound (boundTarget set); closures record the
// environments they captured so the collector keeps them alive.
type FunctionHeapData struct {
	name               string
	length             uint32
	behaviour          Behaviour
	environment        Environment
	privateEnvironment PrivateEnvironment
	boundTarget        Function
	boundThis          Value
	boundArgs          []Value
	backing            OrdinaryObject
}

func (f *FunctionHeapData) Name() string                           { return f.name }
func (f *FunctionHeapData) Length() uint32                         { return f.length }
func (f *FunctionHeapData) Environment() Environment               { return f.environment }
func (f *FunctionHeapData) PrivateEnvironment() PrivateEnvironment { return f.privateEnvironment }
func (f *FunctionHeapData) BoundTarget() Function                  { return f.boundTarget }
func (f *FunctionHeapData) IsBound() bool                          { return !f.boundTarget.IsNone() }

func (f *FunctionHeapData) lengthValue() Value {
	return NumberValue(float64(f.length))
}

func (f *FunctionHeapData) MarkValues(q *heap.WorkQueues) {
	f.environment.MarkValues(q)
	f.privateEnvironment.MarkValues(q)
	f.boundTarget.MarkValues(q)
	f.boundThis.MarkValues(q)
	for i := range f.boundArgs {
		f.boundArgs[i].MarkValues(q)
	}
	f.backing.MarkValues(q)
}

func (f *FunctionHeapData) SweepValues(c *heap.CompactionLists) {
	f.environment.SweepValues(c)
	f.privateEnvironment.SweepValues(c)
	f.boundTarget.SweepValues(c)
	f.boundThis.SweepValues(c)
	for i := range f.boundArgs {
		f.boundArgs[i].SweepValues(c)
	}
	f.backing.SweepValues(c)
}

// FunctionOptions carries the optional parts of a new function.
type FunctionOptions struct {
	Environment        Environment
	PrivateEnvironment PrivateEnvironment
}

// CreateFunction allocates a builtin function.
func (h *Heap) CreateFunction(name string, length uint32, behaviour Behaviour, opts FunctionOptions) Function {
	h.assertIdle()
	i := h.functions.Alloc(FunctionHeapData{
		name:               name,
		length:             length,
		behaviour:          behaviour,
		environment:        opts.Environment,
		privateEnvironment: opts.PrivateEnvironment,
	})
	h.allocated(heap.KindFunction, uint64(len(name)))
	return Function(i)
}

// CreateBoundFunction allocates a function that calls target with a fixed
// this value and leading arguments.
func (h *Heap) CreateBoundFunction(target Function, this Value, args ...Value) Function {
	h.assertIdle()
	t := h.FunctionData(target)
	length := uint32(0)
	if int(t.length) > len(args) {
		length = t.length - uint32(len(args))
	}
	bound := make([]Value, len(args))
	copy(bound, args)
	i := h.functions.Alloc(FunctionHeapData{
		name:        "bound " + t.name,
		length:      length,
		boundTarget: target,
		boundThis:   this,
		boundArgs:   bound,
	})
	h.allocated(heap.KindFunction, uint64(len(args))*valueBytes)
	return Function(i)
}

// FunctionData returns the payload of f.
func (h *Heap) FunctionData(f Function) *FunctionHeapData {
	return h.functions.Get(f.Index())
}

// Call invokes f. Bound functions are unwrapped; only builtins run code.
func (h *Heap) Call(f Function, this Value, args ...Value) (Value, error) {
	h.assertIdle()
	data := h.FunctionData(f)
	if data.IsBound() {
		all := make([]Value, 0, len(data.boundArgs)+len(args))
		all = append(all, data.boundArgs...)
		all = append(all, args...)
		return h.Call(data.boundTarget, data.boundThis, all...)
	}
	if data.behaviour == nil {
		return Undefined, &errors.TypeError{Msg: "function " + data.name + " has no behaviour"}
	}
	return data.behaviour(h, this, args)
}
