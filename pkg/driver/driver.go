package driver

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/shlex"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
	"paserati-heap/pkg/source"
	"paserati-heap/pkg/vm"
)

const debugDriver = false

func debugPrintf(format string, args ...interface{}) {
	if debugDriver {
		fmt.Printf(format, args...)
	}
}

// Options configures a Session.
type Options struct {
	Config heap.Config
	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer
	// AutoCollect runs MaybeCollect after every command.
	AutoCollect bool
}

// DefaultOptions returns options with heap.DefaultConfig and auto collection
// enabled.
func DefaultOptions() Options {
	return Options{Config: heap.DefaultConfig(), Out: os.Stdout, AutoCollect: true}
}

// Session is a persistent heap shell. It owns one heap and a table of named
// bindings; the bindings are the only roots, so anything not reachable from
// a binding is garbage at the next collection.
//
// Session implements vm.RootSet so the collector can patch the bindings.
type Session struct {
	heap     *vm.Heap
	bindings map[string]vm.Value
	out      io.Writer
	auto     bool
	poisoned errors.EngineError
}

// NewSession creates a session with a fresh heap.
func NewSession(opts Options) *Session {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Session{
		heap:     vm.NewHeap(opts.Config),
		bindings: make(map[string]vm.Value),
		out:      out,
		auto:     opts.AutoCollect,
	}
}

// NewDefaultSession creates a session with DefaultOptions.
func NewDefaultSession() *Session {
	return NewSession(DefaultOptions())
}

// Heap returns the session's heap.
func (s *Session) Heap() *vm.Heap {
	return s.heap
}

// SetOutput redirects command output.
func (s *Session) SetOutput(w io.Writer) {
	s.out = w
}

// Lookup returns the value bound to name.
func (s *Session) Lookup(name string) (vm.Value, bool) {
	v, ok := s.bindings[name]
	return v, ok
}

// Bind binds name to v, making v a root.
func (s *Session) Bind(name string, v vm.Value) {
	s.bindings[name] = v
}

// Names returns the bound names in sorted order.
func (s *Session) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Poisoned returns the fatal error that stopped the session, if any.
func (s *Session) Poisoned() errors.EngineError {
	return s.poisoned
}

func (s *Session) MarkValues(q *heap.WorkQueues) {
	for _, v := range s.bindings {
		v.MarkValues(q)
	}
}

func (s *Session) SweepValues(c *heap.CompactionLists) {
	for name, v := range s.bindings {
		v.SweepValues(c)
		s.bindings[name] = v
	}
}

// RunString executes every line of code in order and stops at the first
// error.
func (s *Session) RunString(code string) []errors.EngineError {
	return s.Run(source.NewEvalSource(code))
}

// RunFile reads and executes a script.
func (s *Session) RunFile(path string) (*source.SourceFile, []errors.EngineError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, []errors.EngineError{(&errors.RuntimeError{Msg: fmt.Sprintf("cannot read %s: %v", path, err)}).CausedBy(err)}
	}
	src := source.FromFile(path, string(content))
	return src, s.Run(src)
}

// Run executes every line of src in order and stops at the first error.
func (s *Session) Run(src *source.SourceFile) []errors.EngineError {
	for i, line := range src.Lines() {
		if err := s.execLine(src, i+1, line); err != nil {
			return []errors.EngineError{err}
		}
	}
	return nil
}

// Exec executes one command line.
func (s *Session) Exec(line string) errors.EngineError {
	src := source.NewReplSource(line)
	return s.execLine(src, 1, line)
}

// Close releases the heap.
func (s *Session) Close() {
	clear(s.bindings)
	s.heap.Close()
}

func (s *Session) execLine(src *source.SourceFile, lineNo int, line string) (result errors.EngineError) {
	pos := errors.Position{
		Line:   lineNo,
		Column: len(line) - len(strings.TrimLeft(line, " \t")) + 1,
		Source: src,
	}
	if s.poisoned != nil {
		return &errors.RuntimeError{Position: pos, Msg: "session stopped after fatal error: " + s.poisoned.Message(), Cause: s.poisoned}
	}

	args, err := shlex.Split(line)
	if err != nil {
		return (&errors.SyntaxError{Position: pos, Msg: err.Error()}).CausedBy(err)
	}
	if len(args) == 0 {
		return nil
	}
	debugPrintf("// [Driver] %d: %q\n", lineNo, args)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fatal, ok := r.(errors.EngineError)
		if !ok || !errors.IsFatal(fatal) {
			panic(r)
		}
		result = withPosition(fatal, pos)
		s.poisoned = result
	}()

	if err := s.dispatch(args[0], args[1:]); err != nil {
		return withPosition(err, pos)
	}
	if s.auto {
		if stats, ran := s.heap.MaybeCollect(s); ran {
			debugPrintf("// [Driver] auto %s\n", stats)
		}
	}
	return nil
}

// withPosition attaches pos to err unless it already carries one.
func withPosition(err error, pos errors.Position) errors.EngineError {
	switch e := err.(type) {
	case *errors.SyntaxError:
		if e.Line == 0 {
			e.Position = pos
		}
		return e
	case *errors.TypeError:
		if e.Line == 0 {
			e.Position = pos
		}
		return e
	case *errors.RuntimeError:
		if e.Line == 0 {
			e.Position = pos
		}
		return e
	case *errors.InvariantError:
		if e.Line == 0 {
			e.Position = pos
		}
		return e
	case *errors.ExhaustionError:
		if e.Line == 0 {
			e.Position = pos
		}
		return e
	default:
		return (&errors.RuntimeError{Position: pos, Msg: err.Error()}).CausedBy(err)
	}
}
