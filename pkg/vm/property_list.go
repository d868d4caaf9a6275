package vm

import (
	"sort"
	"unsafe"

	"paserati-heap/pkg/heap"
)

// propertyList is the physical backing of an object's own properties: two
// positionally paired arrays plus a sparse attribute table keyed by position.
// Only PropertyStorage mutates it.
type propertyList struct {
	keys        []PropertyKey
	values      []Value
	descriptors map[uint32]ElementDescriptor
}

var (
	keyValueBytes   = uint64(unsafe.Sizeof(PropertyKey{}) + unsafe.Sizeof(Value{}))
	descriptorBytes = uint64(unsafe.Sizeof(uint32(0)) + unsafe.Sizeof(ElementDescriptor{}))
)

func (p *propertyList) assertConsistent() {
	heap.Assertf(len(p.keys) == len(p.values), "key/value length mismatch: %d keys, %d values", len(p.keys), len(p.values))
}

func (p *propertyList) len() int {
	p.assertConsistent()
	return len(p.keys)
}

func (p *propertyList) find(key PropertyKey) int {
	for i := range p.keys {
		if p.keys[i] == key {
			return i
		}
	}
	return -1
}

func (p *propertyList) descriptorAt(i int) PropertyDescriptor {
	if e, ok := p.descriptors[uint32(i)]; ok {
		return e.descriptor(p.values[i])
	}
	return DataDescriptor(p.values[i])
}

// overwrite replaces the value and attributes at i in place.
func (p *propertyList) overwrite(i int, d PropertyDescriptor) {
	e, deviates := elementDescriptorFrom(d)
	if d.Accessor {
		p.values[i] = Undefined
	} else {
		p.values[i] = d.Value
	}
	if deviates {
		if p.descriptors == nil {
			p.descriptors = make(map[uint32]ElementDescriptor)
		}
		p.descriptors[uint32(i)] = e
	} else if p.descriptors != nil {
		delete(p.descriptors, uint32(i))
	}
}

// push appends a new property and returns the bytes it added.
func (p *propertyList) push(key PropertyKey, d PropertyDescriptor) uint64 {
	p.keys = append(p.keys, key)
	p.values = append(p.values, Undefined)
	p.overwrite(len(p.keys)-1, d)
	p.assertConsistent()
	bytes := keyValueBytes
	if _, deviates := p.descriptors[uint32(len(p.keys)-1)]; deviates {
		bytes += descriptorBytes
	}
	return bytes
}

// removeAt deletes position i, closing the gap and renumbering attribute
// table entries behind it.
func (p *propertyList) removeAt(i int) {
	p.keys = append(p.keys[:i], p.keys[i+1:]...)
	p.values = append(p.values[:i], p.values[i+1:]...)
	if len(p.descriptors) > 0 {
		shifted := make(map[uint32]ElementDescriptor, len(p.descriptors))
		for pos, e := range p.descriptors {
			switch {
			case pos < uint32(i):
				shifted[pos] = e
			case pos > uint32(i):
				shifted[pos-1] = e
			}
		}
		p.descriptors = shifted
	}
	p.assertConsistent()
}

// order returns positions in enumeration order: integer keys ascending, then
// string keys, then symbol keys, each group in insertion order.
func (p *propertyList) order() []int {
	var ints, strs, syms []int
	for i, k := range p.keys {
		switch k.kind {
		case KeyKindInteger:
			ints = append(ints, i)
		case KeyKindString:
			strs = append(strs, i)
		case KeyKindSymbol:
			syms = append(syms, i)
		}
	}
	sort.Slice(ints, func(a, b int) bool { return p.keys[ints[a]].index < p.keys[ints[b]].index })
	out := make([]int, 0, len(p.keys))
	out = append(out, ints...)
	out = append(out, strs...)
	return append(out, syms...)
}

func (p *propertyList) MarkValues(q *heap.WorkQueues) {
	for i := range p.keys {
		p.keys[i].MarkValues(q)
	}
	for i := range p.values {
		p.values[i].MarkValues(q)
	}
	for _, e := range p.descriptors {
		e.MarkValues(q)
	}
}

func (p *propertyList) SweepValues(c *heap.CompactionLists) {
	p.assertConsistent()
	for i := range p.keys {
		p.keys[i].SweepValues(c)
	}
	for i := range p.values {
		p.values[i].SweepValues(c)
	}
	for pos, e := range p.descriptors {
		e.SweepValues(c)
		p.descriptors[pos] = e
	}
}
