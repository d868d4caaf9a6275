package vm

import (
	"math"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

// regexpMatchTimeout bounds a single match so a pathological pattern cannot
// stall the engine.
const regexpMatchTimeout = 2 * time.Second

// RegExpHeapData is the payload of a RegExp object, backed by a regexp2
// pattern compiled in ECMAScript mode.
type RegExpHeapData struct {
	source    string
	flags     string
	compiled  *regexp2.Regexp
	lastIndex int
	backing   OrdinaryObject
}

func (r *RegExpHeapData) Source() string    { return r.source }
func (r *RegExpHeapData) Flags() string     { return r.flags }
func (r *RegExpHeapData) LastIndex() int    { return r.lastIndex }
func (r *RegExpHeapData) IsGlobal() bool    { return strings.Contains(r.flags, "g") }
func (r *RegExpHeapData) IsSticky() bool    { return strings.Contains(r.flags, "y") }
func (r *RegExpHeapData) IgnoreCase() bool  { return strings.Contains(r.flags, "i") }
func (r *RegExpHeapData) IsMultiline() bool { return strings.Contains(r.flags, "m") }

func (r *RegExpHeapData) MarkValues(q *heap.WorkQueues) {
	r.backing.MarkValues(q)
}

func (r *RegExpHeapData) SweepValues(c *heap.CompactionLists) {
	r.backing.SweepValues(c)
}

// translateJSFlags converts JavaScript regex flags to regexp2 options.
// 'g' and 'y' are handled by RegExpExec through lastIndex; 'u' and 'd' need
// no engine option. ECMAScript mode does not combine with Singleline, so
// dotAll patterns fall back to the default syntax.
func translateJSFlags(flags string) (regexp2.RegexOptions, error) {
	seen := make(map[rune]bool, len(flags))
	var opts regexp2.RegexOptions = regexp2.ECMAScript
	for _, f := range flags {
		if seen[f] {
			return 0, &errors.SyntaxError{Msg: "Invalid regular expression flags '" + flags + "'"}
		}
		seen[f] = true
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts = opts&^regexp2.ECMAScript | regexp2.Singleline
		case 'g', 'y', 'u', 'd':
		default:
			return 0, &errors.SyntaxError{Msg: "Invalid regular expression flags '" + flags + "'"}
		}
	}
	return opts, nil
}

// CreateRegExp compiles pattern and allocates a RegExp object.
func (h *Heap) CreateRegExp(pattern, flags string) (RegExp, error) {
	h.assertIdle()
	opts, err := translateJSFlags(flags)
	if err != nil {
		return 0, err
	}
	compiled, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return 0, (&errors.SyntaxError{Msg: "Invalid regular expression: /" + pattern + "/: " + err.Error()}).CausedBy(err)
	}
	compiled.MatchTimeout = regexpMatchTimeout
	i := h.regexps.Alloc(RegExpHeapData{source: pattern, flags: flags, compiled: compiled})
	h.allocated(heap.KindRegExp, uint64(len(pattern)+len(flags)))
	return RegExp(i), nil
}

// RegExpData returns the payload of r.
func (h *Heap) RegExpData(r RegExp) *RegExpHeapData {
	return h.regexps.Get(r.Index())
}

func (h *Heap) regExpLastIndexDescriptor(r RegExp) PropertyDescriptor {
	return PropertyDescriptor{
		Value:    NumberValue(float64(h.RegExpData(r).lastIndex)),
		Writable: true,
	}
}

func (h *Heap) regExpSetLastIndex(r RegExp, desc PropertyDescriptor) error {
	if desc.Accessor || !desc.Value.IsNumber() {
		return &errors.TypeError{Msg: "lastIndex must be a number"}
	}
	f := desc.Value.AsFloat()
	if math.IsNaN(f) || f < 0 {
		f = 0
	}
	if f > math.MaxInt32 {
		f = math.MaxInt32
	}
	h.RegExpData(r).lastIndex = int(f)
	return nil
}

// RegExpExec runs r against input. On a match it returns an array of the
// match and its capture groups, with "index" and "input" properties; without
// one it returns Null. Global and sticky patterns start at, and update,
// lastIndex. Indices count runes.
func (h *Heap) RegExpExec(r RegExp, input string) (Value, error) {
	h.assertIdle()
	data := h.RegExpData(r)
	stateful := data.IsGlobal() || data.IsSticky()
	start := 0
	if stateful {
		start = data.lastIndex
	}
	if start > len([]rune(input)) {
		data.lastIndex = 0
		return Null, nil
	}

	m, err := data.compiled.FindStringMatchStartingAt(input, start)
	if err != nil {
		return Undefined, (&errors.RuntimeError{Msg: "regular expression match failed: " + err.Error()}).CausedBy(err)
	}
	if m == nil || (data.IsSticky() && m.Index != start) {
		if stateful {
			data.lastIndex = 0
		}
		return Null, nil
	}
	if stateful {
		data.lastIndex = m.Index + m.Length
	}

	groups := m.Groups()
	values := make([]Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			values[i] = Undefined
		} else {
			values[i] = NewString(g.String())
		}
	}
	result := h.CreateArray(values...)
	storage := NewPropertyStorage(result.Object())
	if err := storage.Set(h, NewStringKey("index"), DataDescriptor(NumberValue(float64(m.Index)))); err != nil {
		return Undefined, err
	}
	if err := storage.Set(h, NewStringKey("input"), DataDescriptor(NewString(input))); err != nil {
		return Undefined, err
	}
	return result.Value(), nil
}
