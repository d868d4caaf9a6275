package vm

import "paserati-heap/pkg/heap"

// PropertyDescriptor is the full description of one own property. Get and
// Set are meaningful only when Accessor is set; the zero Function means
// "undefined".
type PropertyDescriptor struct {
	Value        Value
	Get          Function
	Set          Function
	Writable     bool
	Enumerable   bool
	Configurable bool
	Accessor     bool
}

// DataDescriptor returns the default descriptor: a writable, enumerable,
// configurable data property holding v.
func DataDescriptor(v Value) PropertyDescriptor {
	return PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// ReadOnlyDescriptor returns a non-writable data property with the given
// enumerability and configurability.
func ReadOnlyDescriptor(v Value, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{Value: v, Enumerable: enumerable, Configurable: configurable}
}

// AccessorDescriptor returns an enumerable, configurable accessor property.
func AccessorDescriptor(get, set Function) PropertyDescriptor {
	return PropertyDescriptor{Get: get, Set: set, Enumerable: true, Configurable: true, Accessor: true, Value: Undefined}
}

// IsDefault reports whether d is a writable, enumerable, configurable data
// property, which needs no attribute table entry.
func (d PropertyDescriptor) IsDefault() bool {
	return !d.Accessor && d.Writable && d.Enumerable && d.Configurable
}

func (d PropertyDescriptor) MarkValues(q *heap.WorkQueues) {
	d.Value.MarkValues(q)
	d.Get.MarkValues(q)
	d.Set.MarkValues(q)
}

func (d *PropertyDescriptor) SweepValues(c *heap.CompactionLists) {
	d.Value.SweepValues(c)
	if !d.Get.IsNone() {
		d.Get.SweepValues(c)
	}
	if !d.Set.IsNone() {
		d.Set.SweepValues(c)
	}
}

type elementFlags uint8

const (
	flagWritable elementFlags = 1 << iota
	flagEnumerable
	flagConfigurable
	flagAccessor
)

// ElementDescriptor is the compact attribute-table entry for a property that
// deviates from the default: its flags, plus the accessor pair when it is an
// accessor. The value itself stays in the value array.
type ElementDescriptor struct {
	flags elementFlags
	get   Function
	set   Function
}

// elementDescriptorFrom encodes d. The second result is false when d is the
// default descriptor and no entry should be stored.
func elementDescriptorFrom(d PropertyDescriptor) (ElementDescriptor, bool) {
	if d.IsDefault() {
		return ElementDescriptor{}, false
	}
	var e ElementDescriptor
	if d.Enumerable {
		e.flags |= flagEnumerable
	}
	if d.Configurable {
		e.flags |= flagConfigurable
	}
	if d.Accessor {
		e.flags |= flagAccessor
		e.get = d.Get
		e.set = d.Set
	} else if d.Writable {
		e.flags |= flagWritable
	}
	return e, true
}

// descriptor reconstructs the full descriptor for a stored value.
func (e ElementDescriptor) descriptor(v Value) PropertyDescriptor {
	d := PropertyDescriptor{
		Enumerable:   e.flags&flagEnumerable != 0,
		Configurable: e.flags&flagConfigurable != 0,
	}
	if e.flags&flagAccessor != 0 {
		d.Accessor = true
		d.Get = e.get
		d.Set = e.set
		d.Value = Undefined
		return d
	}
	d.Value = v
	d.Writable = e.flags&flagWritable != 0
	return d
}

func (e ElementDescriptor) MarkValues(q *heap.WorkQueues) {
	e.get.MarkValues(q)
	e.set.MarkValues(q)
}

func (e *ElementDescriptor) SweepValues(c *heap.CompactionLists) {
	if !e.get.IsNone() {
		e.get.SweepValues(c)
	}
	if !e.set.IsNone() {
		e.set.SweepValues(c)
	}
}
