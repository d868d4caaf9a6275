package vm

import (
	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

// PropertyEntry is one own property as reported by PropertyStorage.Entries.
type PropertyEntry struct {
	Key        PropertyKey
	Descriptor PropertyDescriptor
}

// PropertyStorage is a stateless view over the own properties of one object.
// It is the only code path that reads or writes an object's key/value arrays.
// The heap is passed to every call; the view itself holds only the handle.
type PropertyStorage struct {
	object Object
}

// NewPropertyStorage binds a view to o.
func NewPropertyStorage(o Object) PropertyStorage {
	return PropertyStorage{object: o}
}

// Object returns the bound object.
func (ps PropertyStorage) Object() Object {
	return ps.object
}

// Has reports whether key is an own property.
func (ps PropertyStorage) Has(h *Heap, key PropertyKey) bool {
	h.assertIdle()
	o := ps.object
	switch o.typ {
	case TypeObject:
		return h.ObjectData(OrdinaryObject(o.index)).props.find(key) >= 0
	case TypeArray:
		return h.arrayHas(Array(o.index), key)
	case TypeFunction:
		if b := h.backingObject(o); !b.IsNone() {
			return h.ObjectData(b).props.find(key) >= 0
		}
		return key == lengthKey || key == nameKey
	case TypeRegExp:
		if key == lastIndexKey {
			return true
		}
		return h.backingHas(o, key)
	case TypeSet, TypeSetIterator, TypeWeakRef:
		return h.backingHas(o, key)
	default:
		heap.Fatalf("property storage bound to non-object %s", o.typ)
		return false
	}
}

// Get returns the descriptor of an own property, or false when absent.
func (ps PropertyStorage) Get(h *Heap, key PropertyKey) (PropertyDescriptor, bool) {
	h.assertIdle()
	o := ps.object
	switch o.typ {
	case TypeObject:
		return h.ordinaryGet(OrdinaryObject(o.index), key)
	case TypeArray:
		return h.arrayGet(Array(o.index), key)
	case TypeFunction:
		if b := h.backingObject(o); !b.IsNone() {
			return h.ordinaryGet(b, key)
		}
		f := h.FunctionData(Function(o.index))
		switch key {
		case lengthKey:
			return ReadOnlyDescriptor(f.lengthValue(), false, true), true
		case nameKey:
			return ReadOnlyDescriptor(NewString(f.name), false, true), true
		}
		return PropertyDescriptor{}, false
	case TypeRegExp:
		if key == lastIndexKey {
			return h.regExpLastIndexDescriptor(RegExp(o.index)), true
		}
		return h.backingGet(o, key)
	case TypeSet, TypeSetIterator, TypeWeakRef:
		return h.backingGet(o, key)
	default:
		heap.Fatalf("property storage bound to non-object %s", o.typ)
		return PropertyDescriptor{}, false
	}
}

// Set creates or overwrites an own property. An existing key keeps its
// position; a new key is appended. The only failures are the refusals the
// representation itself imposes (non-extensible objects, array length rules).
func (ps PropertyStorage) Set(h *Heap, key PropertyKey, desc PropertyDescriptor) error {
	h.assertIdle()
	o := ps.object
	switch o.typ {
	case TypeObject:
		return h.ordinarySet(OrdinaryObject(o.index), key, desc)
	case TypeArray:
		return h.arraySet(Array(o.index), key, desc)
	case TypeRegExp:
		if key == lastIndexKey {
			return h.regExpSetLastIndex(RegExp(o.index), desc)
		}
		return h.ordinarySet(h.ensureBackingObject(o), key, desc)
	case TypeFunction, TypeSet, TypeSetIterator, TypeWeakRef:
		return h.ordinarySet(h.ensureBackingObject(o), key, desc)
	default:
		heap.Fatalf("property storage bound to non-object %s", o.typ)
		return nil
	}
}

// Remove deletes an own property and reports whether one was removed.
// Removing an absent key is a no-op.
func (ps PropertyStorage) Remove(h *Heap, key PropertyKey) bool {
	h.assertIdle()
	o := ps.object
	switch o.typ {
	case TypeObject:
		return h.ordinaryRemove(OrdinaryObject(o.index), key)
	case TypeArray:
		return h.arrayRemove(Array(o.index), key)
	case TypeFunction:
		if !ps.Has(h, key) {
			return false
		}
		return h.ordinaryRemove(h.ensureBackingObject(o), key)
	case TypeRegExp:
		if key == lastIndexKey {
			return false
		}
		return h.backingRemove(o, key)
	case TypeSet, TypeSetIterator, TypeWeakRef:
		return h.backingRemove(o, key)
	default:
		heap.Fatalf("property storage bound to non-object %s", o.typ)
		return false
	}
}

// Entries returns every own property in enumeration order: array indices
// ascending, then string keys in insertion order, then symbols in insertion
// order. The result is a snapshot.
func (ps PropertyStorage) Entries(h *Heap) []PropertyEntry {
	h.assertIdle()
	o := ps.object
	switch o.typ {
	case TypeObject:
		return h.ordinaryEntries(OrdinaryObject(o.index))
	case TypeArray:
		return h.arrayEntries(Array(o.index))
	case TypeFunction:
		if b := h.backingObject(o); !b.IsNone() {
			return h.ordinaryEntries(b)
		}
		f := h.FunctionData(Function(o.index))
		return []PropertyEntry{
			{Key: lengthKey, Descriptor: ReadOnlyDescriptor(f.lengthValue(), false, true)},
			{Key: nameKey, Descriptor: ReadOnlyDescriptor(NewString(f.name), false, true)},
		}
	case TypeRegExp:
		entries := []PropertyEntry{{Key: lastIndexKey, Descriptor: h.regExpLastIndexDescriptor(RegExp(o.index))}}
		return append(entries, h.backingEntries(o)...)
	case TypeSet, TypeSetIterator, TypeWeakRef:
		return h.backingEntries(o)
	default:
		heap.Fatalf("property storage bound to non-object %s", o.typ)
		return nil
	}
}

// Keys returns the own keys in enumeration order.
func (ps PropertyStorage) Keys(h *Heap) []PropertyKey {
	entries := ps.Entries(h)
	keys := make([]PropertyKey, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of own properties.
func (ps PropertyStorage) Len(h *Heap) int {
	if ps.object.typ == TypeObject {
		h.assertIdle()
		return h.ObjectData(OrdinaryObject(ps.object.index)).props.len()
	}
	return len(ps.Entries(h))
}

// GetValue is a convenience for data properties: it returns the stored value,
// or Undefined for accessors and absent keys.
func (ps PropertyStorage) GetValue(h *Heap, key PropertyKey) Value {
	d, ok := ps.Get(h, key)
	if !ok || d.Accessor {
		return Undefined
	}
	return d.Value
}

// --- ordinary objects ---

func (h *Heap) ordinaryGet(o OrdinaryObject, key PropertyKey) (PropertyDescriptor, bool) {
	props := &h.ObjectData(o).props
	i := props.find(key)
	if i < 0 {
		return PropertyDescriptor{}, false
	}
	return props.descriptorAt(i), true
}

func (h *Heap) ordinarySet(o OrdinaryObject, key PropertyKey, desc PropertyDescriptor) error {
	data := h.ObjectData(o)
	if i := data.props.find(key); i >= 0 {
		data.props.overwrite(i, desc)
		return nil
	}
	if !data.extensible {
		return &errors.TypeError{Msg: "Cannot add property " + key.String() + ", object is not extensible"}
	}
	h.charge(data.props.push(key, desc))
	return nil
}

func (h *Heap) ordinaryRemove(o OrdinaryObject, key PropertyKey) bool {
	props := &h.ObjectData(o).props
	i := props.find(key)
	if i < 0 {
		return false
	}
	props.removeAt(i)
	return true
}

func (h *Heap) ordinaryEntries(o OrdinaryObject) []PropertyEntry {
	props := &h.ObjectData(o).props
	order := props.order()
	entries := make([]PropertyEntry, len(order))
	for n, i := range order {
		entries[n] = PropertyEntry{Key: props.keys[i], Descriptor: props.descriptorAt(i)}
	}
	return entries
}

// --- backing-object-only representations ---

func (h *Heap) backingHas(o Object, key PropertyKey) bool {
	b := h.backingObject(o)
	return !b.IsNone() && h.ObjectData(b).props.find(key) >= 0
}

func (h *Heap) backingGet(o Object, key PropertyKey) (PropertyDescriptor, bool) {
	b := h.backingObject(o)
	if b.IsNone() {
		return PropertyDescriptor{}, false
	}
	return h.ordinaryGet(b, key)
}

func (h *Heap) backingRemove(o Object, key PropertyKey) bool {
	b := h.backingObject(o)
	if b.IsNone() {
		return false
	}
	return h.ordinaryRemove(b, key)
}

func (h *Heap) backingEntries(o Object) []PropertyEntry {
	b := h.backingObject(o)
	if b.IsNone() {
		return nil
	}
	return h.ordinaryEntries(b)
}
