package vm

import (
	"math"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

// ArrayHeapData is the payload of an array. Indices below len(elements) live
// in dense storage, where Hole marks an absent element. Indices too far past
// the dense end, and every non-index key, live in the backing object.
type ArrayHeapData struct {
	elements       []Value
	descriptors    map[uint32]ElementDescriptor
	length         uint32
	lengthWritable bool
	backing        OrdinaryObject
}

// Length returns the array's "length".
func (d *ArrayHeapData) Length() uint32 { return d.length }

// DenseLen returns how many indices are covered by dense storage.
func (d *ArrayHeapData) DenseLen() int { return len(d.elements) }

// Element returns the dense element at i, or Hole.
func (d *ArrayHeapData) Element(i uint32) Value {
	if int64(i) >= int64(len(d.elements)) {
		return Hole
	}
	return d.elements[i]
}

func (d *ArrayHeapData) MarkValues(q *heap.WorkQueues) {
	for i := range d.elements {
		d.elements[i].MarkValues(q)
	}
	for _, e := range d.descriptors {
		e.MarkValues(q)
	}
	d.backing.MarkValues(q)
}

func (d *ArrayHeapData) SweepValues(c *heap.CompactionLists) {
	for i := range d.elements {
		d.elements[i].SweepValues(c)
	}
	for pos, e := range d.descriptors {
		e.SweepValues(c)
		d.descriptors[pos] = e
	}
	if !d.backing.IsNone() {
		d.backing.SweepValues(c)
	}
}

// CreateArray allocates a dense array holding values.
func (h *Heap) CreateArray(values ...Value) Array {
	h.assertIdle()
	elements := make([]Value, len(values))
	copy(elements, values)
	i := h.arrays.Alloc(ArrayHeapData{
		elements:       elements,
		length:         uint32(len(values)),
		lengthWritable: true,
	})
	h.allocated(heap.KindArray, uint64(len(values))*valueBytes)
	return Array(i)
}

// ArrayData returns the payload of a.
func (h *Heap) ArrayData(a Array) *ArrayHeapData {
	return h.arrays.Get(a.Index())
}

func (h *Heap) arrayLengthDescriptor(d *ArrayHeapData) PropertyDescriptor {
	return PropertyDescriptor{
		Value:    NumberValue(float64(d.length)),
		Writable: d.lengthWritable,
	}
}

func (h *Heap) arrayHas(a Array, key PropertyKey) bool {
	if key == lengthKey {
		return true
	}
	d := h.ArrayData(a)
	if idx, ok := key.ArrayIndex(); ok && int64(idx) < int64(len(d.elements)) {
		return !d.elements[idx].IsHole()
	}
	if d.backing.IsNone() {
		return false
	}
	return h.ObjectData(d.backing).props.find(key) >= 0
}

func (h *Heap) arrayGet(a Array, key PropertyKey) (PropertyDescriptor, bool) {
	d := h.ArrayData(a)
	if key == lengthKey {
		return h.arrayLengthDescriptor(d), true
	}
	if idx, ok := key.ArrayIndex(); ok && int64(idx) < int64(len(d.elements)) {
		v := d.elements[idx]
		if v.IsHole() {
			return PropertyDescriptor{}, false
		}
		if e, ok := d.descriptors[idx]; ok {
			return e.descriptor(v), true
		}
		return DataDescriptor(v), true
	}
	if d.backing.IsNone() {
		return PropertyDescriptor{}, false
	}
	return h.ordinaryGet(d.backing, key)
}

func (h *Heap) arraySet(a Array, key PropertyKey, desc PropertyDescriptor) error {
	if key == lengthKey {
		return h.arraySetLength(a, desc)
	}
	idx, ok := key.ArrayIndex()
	if !ok {
		return h.ordinarySet(h.ensureBackingObject(a.Object()), key, desc)
	}

	d := h.ArrayData(a)
	if idx >= d.length && !d.lengthWritable {
		return &errors.TypeError{Msg: "Cannot add index " + key.Name() + " to array with non-writable length"}
	}
	dense := len(d.elements)
	switch {
	case int64(idx) < int64(dense):
		h.arraySetElement(d, idx, desc)
	case int64(idx) <= int64(dense)+int64(h.config.MaxDenseGap):
		grown := int(idx) + 1 - dense
		for i := 0; i < grown; i++ {
			d.elements = append(d.elements, Hole)
		}
		h.charge(uint64(grown) * valueBytes)
		h.arraySetElement(d, idx, desc)
		h.arrayAbsorbSparse(a, dense)
	default:
		if err := h.ordinarySet(h.ensureBackingObject(a.Object()), key, desc); err != nil {
			return err
		}
	}
	d = h.ArrayData(a)
	if idx >= d.length {
		d.length = idx + 1
	}
	return nil
}

func (h *Heap) arraySetElement(d *ArrayHeapData, idx uint32, desc PropertyDescriptor) {
	e, deviates := elementDescriptorFrom(desc)
	if desc.Accessor {
		d.elements[idx] = Undefined
	} else {
		d.elements[idx] = desc.Value
	}
	if deviates {
		if d.descriptors == nil {
			d.descriptors = make(map[uint32]ElementDescriptor)
		}
		if _, existed := d.descriptors[idx]; !existed {
			h.charge(descriptorBytes)
		}
		d.descriptors[idx] = e
	} else {
		delete(d.descriptors, idx)
	}
}

// arrayAbsorbSparse moves integer keys that dense storage now covers out of
// the backing object, so each index lives in exactly one place.
func (h *Heap) arrayAbsorbSparse(a Array, from int) {
	d := h.ArrayData(a)
	if d.backing.IsNone() {
		return
	}
	props := &h.ObjectData(d.backing).props
	for i := 0; i < len(props.keys); {
		idx, ok := props.keys[i].ArrayIndex()
		if !ok || int64(idx) < int64(from) || int64(idx) >= int64(len(d.elements)) {
			i++
			continue
		}
		if d.elements[idx].IsHole() {
			h.arraySetElement(d, idx, props.descriptorAt(i))
		}
		props.removeAt(i)
	}
}

func (h *Heap) arraySetLength(a Array, desc PropertyDescriptor) error {
	if desc.Accessor {
		return &errors.TypeError{Msg: "Cannot redefine array length as an accessor"}
	}
	if !desc.Value.IsNumber() {
		return &errors.TypeError{Msg: "Invalid array length"}
	}
	f := desc.Value.AsFloat()
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return &errors.TypeError{Msg: "Invalid array length"}
	}
	newLen := uint32(f)
	d := h.ArrayData(a)
	if !d.lengthWritable {
		if newLen != d.length || desc.Writable {
			return &errors.TypeError{Msg: "Cannot assign to read only property 'length'"}
		}
		return nil
	}
	if int64(newLen) < int64(len(d.elements)) {
		clear(d.elements[newLen:])
		d.elements = d.elements[:newLen]
		for idx := range d.descriptors {
			if idx >= newLen {
				delete(d.descriptors, idx)
			}
		}
	}
	if newLen < d.length && !d.backing.IsNone() {
		props := &h.ObjectData(d.backing).props
		for i := 0; i < len(props.keys); {
			if idx, ok := props.keys[i].ArrayIndex(); ok && idx >= newLen {
				props.removeAt(i)
				continue
			}
			i++
		}
	}
	d.length = newLen
	d.lengthWritable = desc.Writable
	return nil
}

func (h *Heap) arrayRemove(a Array, key PropertyKey) bool {
	if key == lengthKey {
		return false
	}
	d := h.ArrayData(a)
	if idx, ok := key.ArrayIndex(); ok && int64(idx) < int64(len(d.elements)) {
		if d.elements[idx].IsHole() {
			return false
		}
		d.elements[idx] = Hole
		delete(d.descriptors, idx)
		return true
	}
	if d.backing.IsNone() {
		return false
	}
	return h.ordinaryRemove(d.backing, key)
}

func (h *Heap) arrayEntries(a Array) []PropertyEntry {
	d := h.ArrayData(a)
	var entries []PropertyEntry
	for i, v := range d.elements {
		if v.IsHole() {
			continue
		}
		desc := DataDescriptor(v)
		if e, ok := d.descriptors[uint32(i)]; ok {
			desc = e.descriptor(v)
		}
		entries = append(entries, PropertyEntry{Key: NewIntegerKey(uint32(i)), Descriptor: desc})
	}
	var rest []PropertyEntry
	if !d.backing.IsNone() {
		for _, e := range h.ordinaryEntries(d.backing) {
			if e.Key.IsInteger() {
				entries = append(entries, e)
			} else {
				rest = append(rest, e)
			}
		}
	}
	entries = append(entries, PropertyEntry{Key: lengthKey, Descriptor: h.arrayLengthDescriptor(d)})
	return append(entries, rest...)
}

// ArrayValues returns a copy of the elements in index order up to length;
// holes and out-of-line indices read as Undefined unless stored.
func (h *Heap) ArrayValues(a Array) []Value {
	d := h.ArrayData(a)
	out := make([]Value, 0, len(d.elements))
	for i := uint32(0); i < d.length; i++ {
		if desc, ok := h.arrayGet(a, NewIntegerKey(i)); ok {
			out = append(out, desc.Value)
		} else {
			out = append(out, Undefined)
		}
		d = h.ArrayData(a)
	}
	return out
}
