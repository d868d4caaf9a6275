package vm

import (
	"sort"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

// Binding is one name in a declarative environment.
type Binding struct {
	Value       Value
	Mutable     bool
	Initialized bool
}

// EnvironmentHeapData is a declarative environment record: a set of
// bindings plus the enclosing environment.
type EnvironmentHeapData struct {
	outer    Environment
	bindings map[string]Binding
}

func (e *EnvironmentHeapData) Outer() Environment { return e.outer }

// Names returns the bound names in sorted order.
func (e *EnvironmentHeapData) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *EnvironmentHeapData) MarkValues(q *heap.WorkQueues) {
	e.outer.MarkValues(q)
	for _, b := range e.bindings {
		b.Value.MarkValues(q)
	}
}

func (e *EnvironmentHeapData) SweepValues(c *heap.CompactionLists) {
	e.outer.SweepValues(c)
	for name, b := range e.bindings {
		b.Value.SweepValues(c)
		e.bindings[name] = b
	}
}

// CreateEnvironment allocates an empty environment nested in outer (which
// may be none).
func (h *Heap) CreateEnvironment(outer Environment) Environment {
	h.assertIdle()
	i := h.environments.Alloc(EnvironmentHeapData{outer: outer, bindings: make(map[string]Binding)})
	h.allocated(heap.KindEnvironment, 0)
	return Environment(i)
}

// EnvironmentData returns the payload of env.
func (h *Heap) EnvironmentData(env Environment) *EnvironmentHeapData {
	return h.environments.Get(env.Index())
}

// CreateBinding declares an uninitialized binding in env.
func (h *Heap) CreateBinding(env Environment, name string, mutable bool) error {
	h.assertIdle()
	d := h.EnvironmentData(env)
	if _, exists := d.bindings[name]; exists {
		return &errors.TypeError{Msg: "Identifier '" + name + "' has already been declared"}
	}
	d.bindings[name] = Binding{Value: Undefined, Mutable: mutable}
	h.charge(uint64(len(name)) + valueBytes)
	return nil
}

// InitializeBinding sets the first value of a declared binding.
func (h *Heap) InitializeBinding(env Environment, name string, v Value) {
	h.assertIdle()
	d := h.EnvironmentData(env)
	b, ok := d.bindings[name]
	heap.Assertf(ok, "initializing undeclared binding %q", name)
	b.Value = v
	b.Initialized = true
	d.bindings[name] = b
}

// resolveBinding walks the environment chain to the record that binds name.
func (h *Heap) resolveBinding(env Environment, name string) (*EnvironmentHeapData, Binding, bool) {
	for !env.IsNone() {
		d := h.EnvironmentData(env)
		if b, ok := d.bindings[name]; ok {
			return d, b, true
		}
		env = d.outer
	}
	return nil, Binding{}, false
}

// GetBindingValue looks name up through the chain.
func (h *Heap) GetBindingValue(env Environment, name string) (Value, error) {
	h.assertIdle()
	_, b, ok := h.resolveBinding(env, name)
	if !ok {
		return Undefined, &errors.RuntimeError{Msg: name + " is not defined"}
	}
	if !b.Initialized {
		return Undefined, &errors.RuntimeError{Msg: "Cannot access '" + name + "' before initialization"}
	}
	return b.Value, nil
}

// SetMutableBinding assigns to an existing binding found through the chain.
func (h *Heap) SetMutableBinding(env Environment, name string, v Value) error {
	h.assertIdle()
	d, b, ok := h.resolveBinding(env, name)
	if !ok {
		return &errors.RuntimeError{Msg: name + " is not defined"}
	}
	if !b.Initialized {
		return &errors.RuntimeError{Msg: "Cannot access '" + name + "' before initialization"}
	}
	if !b.Mutable {
		return &errors.TypeError{Msg: "Assignment to constant variable '" + name + "'"}
	}
	b.Value = v
	d.bindings[name] = b
	return nil
}

// PrivateNameKind distinguishes the three kinds of private names.
type PrivateNameKind uint8

const (
	PrivateField PrivateNameKind = iota
	PrivateMethod
	PrivateAccessor
)

// PrivateName is one #name declared by a class. Fields carry their initial
// value; methods and accessors carry functions.
type PrivateName struct {
	Kind   PrivateNameKind
	Value  Value
	Method Function
	Get    Function
	Set    Function
}

func (p PrivateName) MarkValues(q *heap.WorkQueues) {
	p.Value.MarkValues(q)
	p.Method.MarkValues(q)
	p.Get.MarkValues(q)
	p.Set.MarkValues(q)
}

func (p *PrivateName) SweepValues(c *heap.CompactionLists) {
	p.Value.SweepValues(c)
	p.Method.SweepValues(c)
	p.Get.SweepValues(c)
	p.Set.SweepValues(c)
}

// PrivateEnvironmentHeapData records the private names of one class
// evaluation, chained to the enclosing class.
type PrivateEnvironmentHeapData struct {
	outer PrivateEnvironment
	names map[string]PrivateName
}

func (p *PrivateEnvironmentHeapData) Outer() PrivateEnvironment { return p.outer }

func (p *PrivateEnvironmentHeapData) MarkValues(q *heap.WorkQueues) {
	p.outer.MarkValues(q)
	for _, n := range p.names {
		n.MarkValues(q)
	}
}

func (p *PrivateEnvironmentHeapData) SweepValues(c *heap.CompactionLists) {
	p.outer.SweepValues(c)
	for name, n := range p.names {
		n.SweepValues(c)
		p.names[name] = n
	}
}

// CreatePrivateEnvironment allocates an empty private environment.
func (h *Heap) CreatePrivateEnvironment(outer PrivateEnvironment) PrivateEnvironment {
	h.assertIdle()
	i := h.privateEnvironments.Alloc(PrivateEnvironmentHeapData{outer: outer, names: make(map[string]PrivateName)})
	h.allocated(heap.KindPrivateEnvironment, 0)
	return PrivateEnvironment(i)
}

// PrivateEnvironmentData returns the payload of p.
func (h *Heap) PrivateEnvironmentData(p PrivateEnvironment) *PrivateEnvironmentHeapData {
	return h.privateEnvironments.Get(p.Index())
}

// AddPrivateName declares name in p.
func (h *Heap) AddPrivateName(p PrivateEnvironment, name string, n PrivateName) error {
	h.assertIdle()
	d := h.PrivateEnvironmentData(p)
	if _, exists := d.names[name]; exists {
		return &errors.SyntaxError{Msg: "Identifier '#" + name + "' has already been declared"}
	}
	d.names[name] = n
	h.charge(uint64(len(name)) + valueBytes)
	return nil
}

// ResolvePrivateIdentifier finds name in p or an enclosing private
// environment.
func (h *Heap) ResolvePrivateIdentifier(p PrivateEnvironment, name string) (PrivateName, PrivateEnvironment, bool) {
	h.assertIdle()
	for !p.IsNone() {
		d := h.PrivateEnvironmentData(p)
		if n, ok := d.names[name]; ok {
			return n, p, true
		}
		p = d.outer
	}
	return PrivateName{}, 0, false
}
