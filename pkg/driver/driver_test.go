package driver

import (
	"bytes"
	"strings"
	"testing"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
	"paserati-heap/pkg/vm"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewSession(Options{Config: heap.DefaultConfig(), Out: &out}), &out
}

func TestSession_ErrorsCarryPosition(t *testing.T) {
	s, _ := newTestSession(t)
	errs := s.RunString("object o\n\n  put missing a 1\n")
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	pos := errs[0].Pos()
	if pos.Line != 3 || pos.Column != 3 {
		t.Errorf("expected error at 3:3, got %d:%d", pos.Line, pos.Column)
	}
	if pos.Source == nil || pos.Source.Name != "<eval>" {
		t.Errorf("expected error to reference the eval source, got %+v", pos.Source)
	}
	if errs[0].Kind() != "Runtime" || !strings.Contains(errs[0].Message(), "missing is not defined") {
		t.Errorf("unexpected error %v", errs[0])
	}
}

func TestSession_SyntaxErrors(t *testing.T) {
	s, _ := newTestSession(t)
	tests := []struct {
		line string
		want string
	}{
		{"bogus", "unknown command"},
		{"object", "usage: object"},
		{"put o \"unterminated", "EOF"},
		{"function f g notanumber", "invalid arity"},
		{"iter i s sideways", "not defined"},
	}
	for _, tt := range tests {
		err := s.Exec(tt.line)
		if err == nil {
			t.Errorf("%q: expected error", tt.line)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: expected error containing %q, got %q", tt.line, tt.want, err.Error())
		}
	}
	if s.Poisoned() != nil {
		t.Errorf("ordinary errors must not poison the session")
	}
}

func TestSession_TypeChecks(t *testing.T) {
	s, _ := newTestSession(t)
	for _, line := range []string{"let n 5", "set s", "object o"} {
		if err := s.Exec(line); err != nil {
			t.Fatal(err)
		}
	}
	for _, line := range []string{"setadd n 1", "keys n", "next s", "weakref w 3", "freeze s", "object p @n"} {
		err := s.Exec(line)
		if _, ok := err.(*errors.TypeError); !ok {
			t.Errorf("%q: expected TypeError, got %v", line, err)
		}
	}
}

func TestSession_BindingsAreRoots(t *testing.T) {
	s, out := newTestSession(t)
	errs := s.RunString(strings.Join([]string{
		"object keep",
		"object lose",
		"put keep self @keep",
		"drop lose",
		"gc",
	}, "\n"))
	if len(errs) > 0 {
		t.Fatal(errs[0])
	}
	if !strings.HasPrefix(out.String(), "gc #1: 2 -> 1 slots (1 freed)") {
		t.Errorf("unexpected gc output %q", out.String())
	}
	v, ok := s.Lookup("keep")
	if !ok || v.Type() != vm.TypeObject || v.AsOrdinaryObject().Index() != 1 {
		t.Fatalf("binding not patched after compaction: %v", v)
	}
	self := vm.NewPropertyStorage(v.AsOrdinaryObject().Object()).GetValue(s.Heap(), vm.NewStringKey("self"))
	if self != v {
		t.Errorf("self reference not patched: %v vs %v", self, v)
	}
	if names := s.Names(); len(names) != 1 || names[0] != "keep" {
		t.Errorf("unexpected bindings %v", names)
	}
}

func TestSession_AutoCollect(t *testing.T) {
	cfg := heap.DefaultConfig()
	cfg.GCThreshold = 512
	s := NewSession(Options{Config: cfg, Out: &bytes.Buffer{}, AutoCollect: true})
	for i := 0; i < 200; i++ {
		if err := s.Exec("object tmp"); err != nil {
			t.Fatal(err)
		}
	}
	if s.Heap().Cycles() == 0 {
		t.Fatalf("expected automatic collections")
	}
	if n := s.Heap().Len(heap.KindObject); n >= 200 {
		t.Errorf("rebinding tmp should let old objects die, %d remain", n)
	}
}

func TestSession_InvariantPoisonsSession(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Exec("object o"); err != nil {
		t.Fatal(err)
	}
	// Tearing the heap down under a live binding leaves it dangling.
	s.Heap().Close()

	err := s.Exec("print @o")
	if _, ok := err.(*errors.InvariantError); !ok {
		t.Fatalf("expected InvariantError, got %T (%v)", err, err)
	}
	if err.Pos().Line != 1 {
		t.Errorf("fatal error should carry the command position")
	}
	if s.Poisoned() == nil {
		t.Fatalf("session should be poisoned")
	}
	err = s.Exec("object p")
	if err == nil || !strings.Contains(err.Error(), "session stopped") {
		t.Errorf("expected poisoned session to refuse commands, got %v", err)
	}
}

func TestSession_ExhaustionPoisonsSession(t *testing.T) {
	cfg := heap.DefaultConfig()
	cfg.GCThreshold = 0
	cfg.MaxHeapBytes = 2048
	s := NewSession(Options{Config: cfg, Out: &bytes.Buffer{}})

	var err errors.EngineError
	for i := 0; i < 1000 && err == nil; i++ {
		err = s.Exec("array a" + strings.Repeat(" 1", 8))
	}
	if _, ok := err.(*errors.ExhaustionError); !ok {
		t.Fatalf("expected ExhaustionError, got %T (%v)", err, err)
	}
	if s.Poisoned() == nil {
		t.Errorf("exhaustion should poison the session")
	}
}

func TestSession_Stats(t *testing.T) {
	s, out := newTestSession(t)
	if errs := s.RunString("object a\nsymbol s\nstats"); len(errs) > 0 {
		t.Fatal(errs[0])
	}
	for _, want := range []string{"object", "symbol", "total"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stats output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSession_Help(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.Exec("help"); err != nil {
		t.Fatal(err)
	}
	for name := range commands {
		if !strings.Contains(out.String(), name) {
			t.Errorf("help does not mention %s", name)
		}
	}
}

func TestSession_Close(t *testing.T) {
	s, _ := newTestSession(t)
	s.Exec("object a")
	s.Close()
	if len(s.Names()) != 0 || s.Heap().Len(heap.KindObject) != 0 {
		t.Errorf("close should drop bindings and slots")
	}
}

func TestSession_DefaultOptions(t *testing.T) {
	s := NewDefaultSession()
	var out bytes.Buffer
	s.SetOutput(&out)
	if !s.auto {
		t.Errorf("default session should collect automatically")
	}
	if err := s.Exec("let x 'hi'"); err != nil {
		t.Fatal(err)
	}
	if err := s.Exec("print @x"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "hi" {
		t.Errorf("expected output redirected to buffer, got %q", got)
	}
}

func TestSplitCommands(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"object o; put o a 1", []string{"object o", " put o a 1"}},
		{`let x "a;b"; print @x`, []string{`let x "a;b"`, " print @x"}},
		{`let x 'a;b'`, []string{`let x 'a;b'`}},
		{`let x a\;b; gc`, []string{`let x a\;b`, " gc"}},
		{"gc", []string{"gc"}},
	}
	for _, tt := range tests {
		got := SplitCommands(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
				break
			}
		}
	}

	s, out := newTestSession(t)
	if errs := s.RunString(strings.Join(SplitCommands(`let x "a;b"; print @x`), "\n")); len(errs) > 0 {
		t.Fatal(errs[0])
	}
	if got := strings.TrimSpace(out.String()); got != "a;b" {
		t.Errorf("expected quoted semicolon kept, got %q", got)
	}
}
