package vm

import (
	"paserati-heap/pkg/heap"
)

// Object is any value with own properties. Its representation is one of a
// closed set of variants, and PropertyStorage switches over all of them.
type Object struct {
	typ   ValueType
	index heap.Index
}

// AsObject narrows v to an object representation.
func (v Value) AsObject() (Object, bool) {
	switch v.typ {
	case TypeObject, TypeArray, TypeFunction, TypeSet, TypeSetIterator, TypeWeakRef, TypeRegExp:
		return Object{typ: v.typ, index: v.ref}, true
	default:
		return Object{}, false
	}
}

func (o Object) Type() ValueType   { return o.typ }
func (o Object) Index() heap.Index { return o.index }
func (o Object) Value() Value      { return heapValue(o.typ, o.index) }

func (o Object) MarkValues(q *heap.WorkQueues) {
	o.Value().MarkValues(q)
}

func (o *Object) SweepValues(c *heap.CompactionLists) {
	if kind, ok := o.typ.heapKind(); ok {
		c.Shift(kind, &o.index)
	}
}

// ObjectHeapData is the payload of an ordinary object.
type ObjectHeapData struct {
	prototype  Value // an object, or Null
	extensible bool
	props      propertyList
}

// Prototype returns the [[Prototype]] slot.
func (d *ObjectHeapData) Prototype() Value { return d.prototype }

// Extensible returns the [[Extensible]] slot.
func (d *ObjectHeapData) Extensible() bool { return d.extensible }

func (d *ObjectHeapData) MarkValues(q *heap.WorkQueues) {
	d.prototype.MarkValues(q)
	d.props.MarkValues(q)
}

func (d *ObjectHeapData) SweepValues(c *heap.CompactionLists) {
	d.prototype.SweepValues(c)
	d.props.SweepValues(c)
}

// CreateObject allocates an empty, extensible ordinary object. proto must be
// an object or Null; anything else is treated as Null.
func (h *Heap) CreateObject(proto Value) OrdinaryObject {
	if !proto.IsObject() {
		proto = Null
	}
	h.assertIdle()
	i := h.objects.Alloc(ObjectHeapData{prototype: proto, extensible: true})
	h.allocated(heap.KindObject, 0)
	return OrdinaryObject(i)
}

// ObjectData returns the payload of o.
func (h *Heap) ObjectData(o OrdinaryObject) *ObjectHeapData {
	return h.objects.Get(o.Index())
}

// SetPrototype replaces the [[Prototype]] of o.
func (h *Heap) SetPrototype(o OrdinaryObject, proto Value) {
	h.assertIdle()
	if !proto.IsObject() {
		proto = Null
	}
	h.ObjectData(o).prototype = proto
}

// PreventExtensions clears the [[Extensible]] slot of o; later attempts to add
// keys through PropertyStorage fail with a TypeError.
func (h *Heap) PreventExtensions(o OrdinaryObject) {
	h.assertIdle()
	h.ObjectData(o).extensible = false
}

// Freeze prevents extensions on o and marks every own property
// non-configurable, and every data property non-writable as well.
func (h *Heap) Freeze(o OrdinaryObject) {
	h.assertIdle()
	data := h.ObjectData(o)
	data.extensible = false
	props := &data.props
	for i := range props.keys {
		d := props.descriptorAt(i)
		d.Configurable = false
		if !d.Accessor {
			d.Writable = false
		}
		_, existed := props.descriptors[uint32(i)]
		props.overwrite(i, d)
		if !existed {
			h.charge(descriptorBytes)
		}
	}
}

// backingObject returns the ordinary object that holds the generic
// properties of a non-ordinary object, or none when it was never created.
func (h *Heap) backingObject(o Object) OrdinaryObject {
	switch o.typ {
	case TypeObject:
		return OrdinaryObject(o.index)
	case TypeArray:
		return h.ArrayData(Array(o.index)).backing
	case TypeFunction:
		return h.FunctionData(Function(o.index)).backing
	case TypeSet:
		return h.SetData(Set(o.index)).backing
	case TypeSetIterator:
		return h.SetIteratorData(SetIterator(o.index)).backing
	case TypeWeakRef:
		return h.WeakRefData(WeakRef(o.index)).backing
	case TypeRegExp:
		return h.RegExpData(RegExp(o.index)).backing
	default:
		heap.Fatalf("no backing object for %s", o.typ)
		return 0
	}
}

// ensureBackingObject returns the backing object of o, creating it on first
// use. Functions get their "length" and "name" properties seeded so the
// synthetic answers they gave before stay the same.
func (h *Heap) ensureBackingObject(o Object) OrdinaryObject {
	if b := h.backingObject(o); !b.IsNone() {
		return b
	}
	b := h.CreateObject(Null)
	switch o.typ {
	case TypeArray:
		h.ArrayData(Array(o.index)).backing = b
	case TypeFunction:
		f := h.FunctionData(Function(o.index))
		f.backing = b
		length, name := f.lengthValue(), NewString(f.name)
		data := h.ObjectData(b)
		h.charge(data.props.push(lengthKey, ReadOnlyDescriptor(length, false, true)))
		h.charge(data.props.push(nameKey, ReadOnlyDescriptor(name, false, true)))
	case TypeSet:
		h.SetData(Set(o.index)).backing = b
	case TypeSetIterator:
		h.SetIteratorData(SetIterator(o.index)).backing = b
	case TypeWeakRef:
		h.WeakRefData(WeakRef(o.index)).backing = b
	case TypeRegExp:
		h.RegExpData(RegExp(o.index)).backing = b
	default:
		heap.Fatalf("cannot create backing object for %s", o.typ)
	}
	return b
}
