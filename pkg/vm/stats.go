package vm

import (
	"io"
	"strings"

	"github.com/inhies/go-bytesize"

	"paserati-heap/pkg/heap"
)

// KindStats is the occupancy of one arena.
type KindStats struct {
	Kind  heap.Kind
	Slots int
	Bytes uint64
}

// Stats is a snapshot of the heap's occupancy and collector state.
type Stats struct {
	Kinds       []KindStats
	TotalSlots  int
	TotalBytes  uint64
	Allocated   uint64
	Threshold   uint64
	Collections int
}

// Stats returns a snapshot of every arena.
func (h *Heap) Stats() Stats {
	s := Stats{
		Allocated:   h.allocCounter,
		Threshold:   h.threshold,
		Collections: h.cycles,
	}
	for _, k := range heap.Kinds() {
		a := h.arenas[k]
		ks := KindStats{Kind: k, Slots: a.Len(), Bytes: a.Size()}
		s.Kinds = append(s.Kinds, ks)
		s.TotalSlots += ks.Slots
		s.TotalBytes += ks.Bytes
	}
	return s
}

// Format writes a table of the snapshot to w.
func (s Stats) Format(w io.Writer) {
	p := statsPrinter
	for _, ks := range s.Kinds {
		p.Fprintf(w, "%-20s %8d slots %10s\n", ks.Kind, ks.Slots, bytesize.New(float64(ks.Bytes)))
	}
	p.Fprintf(w, "%-20s %8d slots %10s\n", "total", s.TotalSlots, bytesize.New(float64(s.TotalBytes)))
	p.Fprintf(w, "allocated since gc: %s of %s, %d collections\n",
		bytesize.New(float64(s.Allocated)), bytesize.New(float64(s.Threshold)), s.Collections)
}

const (
	inspectDepth       = 2
	inspectMaxElements = 100
)

// Inspect renders v with the contents of the heap objects it refers to.
// Nesting beyond a small depth and cycles are elided.
func (h *Heap) Inspect(v Value) string {
	h.assertIdle()
	var sb strings.Builder
	h.inspect(&sb, v, 0, map[Value]bool{})
	return sb.String()
}

func (h *Heap) inspect(sb *strings.Builder, v Value, depth int, seen map[Value]bool) {
	switch v.typ {
	case TypeString:
		if depth > 0 {
			sb.WriteString(quoteString(v.str))
		} else {
			sb.WriteString(v.str)
		}
		return
	case TypeSymbol:
		desc := h.SymbolData(v.AsSymbol()).Description()
		sb.WriteString("Symbol(")
		if !desc.IsUndefined() {
			sb.WriteString(desc.ToString())
		}
		sb.WriteString(")")
		return
	case TypeFunction:
		name := h.FunctionData(v.AsFunction()).Name()
		if name == "" {
			name = "(anonymous)"
		}
		sb.WriteString("[Function: " + name + "]")
		return
	case TypeRegExp:
		d := h.RegExpData(v.AsRegExp())
		sb.WriteString("/" + d.Source() + "/" + d.Flags())
		return
	case TypeSetIterator:
		sb.WriteString("[Set Iterator]")
		return
	}
	if !v.IsHeapValue() {
		sb.WriteString(v.ToString())
		return
	}
	if seen[v] {
		sb.WriteString("[Circular]")
		return
	}
	seen[v] = true
	defer delete(seen, v)

	switch v.typ {
	case TypeArray:
		if depth >= inspectDepth {
			sb.WriteString("[Array]")
			return
		}
		a := v.AsArray()
		length := h.ArrayData(a).Length()
		sb.WriteString("[")
		for i := uint32(0); i < length; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			if i == inspectMaxElements {
				statsPrinter.Fprintf(sb, "... %d more items", length-i)
				break
			}
			desc, ok := h.arrayGet(a, NewIntegerKey(i))
			if !ok {
				sb.WriteString("<empty>")
				continue
			}
			if desc.Accessor {
				sb.WriteString("[Getter/Setter]")
				continue
			}
			h.inspect(sb, desc.Value, depth+1, seen)
		}
		sb.WriteString("]")
	case TypeSet:
		values := h.SetValues(v.AsSet())
		statsPrinter.Fprintf(sb, "Set(%d) {", len(values))
		if depth >= inspectDepth {
			sb.WriteString("...}")
			return
		}
		for i, e := range values {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(" ")
			h.inspect(sb, e, depth+1, seen)
		}
		if len(values) > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	case TypeWeakRef:
		sb.WriteString("WeakRef { ")
		target := h.WeakRefDeref(v.AsWeakRef())
		if target.IsUndefined() {
			sb.WriteString("<cleared>")
		} else {
			h.inspect(sb, target, inspectDepth, seen)
		}
		sb.WriteString(" }")
	default:
		if depth >= inspectDepth {
			sb.WriteString("[Object]")
			return
		}
		obj, _ := v.AsObject()
		entries := NewPropertyStorage(obj).Entries(h)
		sb.WriteString("{")
		first := true
		for _, e := range entries {
			if !e.Descriptor.Enumerable {
				continue
			}
			if first {
				sb.WriteString(" ")
				first = false
			} else {
				sb.WriteString(", ")
			}
			if sym, ok := e.Key.Symbol(); ok {
				sb.WriteString("[")
				h.inspect(sb, sym.Value(), depth+1, seen)
				sb.WriteString("]")
			} else {
				sb.WriteString(e.Key.String())
			}
			sb.WriteString(": ")
			if e.Descriptor.Accessor {
				sb.WriteString("[Getter/Setter]")
				continue
			}
			h.inspect(sb, e.Descriptor.Value, depth+1, seen)
		}
		if !first {
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	}
}
