package driver

import (
	"fmt"
	"strconv"
	"strings"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/vm"
)

type command struct {
	usage   string
	minArgs int
	maxArgs int // -1 for variadic
	run     func(s *Session, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"object":   {"object NAME [@PROTO]", 1, 2, (*Session).cmdObject},
		"array":    {"array NAME VALUE...", 1, -1, (*Session).cmdArray},
		"function": {"function NAME FNAME ARITY", 3, 3, (*Session).cmdFunction},
		"bind":     {"bind NAME TARGET THIS ARG...", 3, -1, (*Session).cmdBind},
		"call":     {"call FUNC THIS ARG...", 2, -1, (*Session).cmdCall},
		"symbol":   {"symbol NAME [DESCRIPTION]", 1, 2, (*Session).cmdSymbol},
		"set":      {"set NAME", 1, 1, (*Session).cmdSet},
		"setadd":   {"setadd SET VALUE...", 2, -1, (*Session).cmdSetAdd},
		"setdel":   {"setdel SET VALUE", 2, 2, (*Session).cmdSetDel},
		"iter":     {"iter NAME SET [keys|values|entries]", 2, 3, (*Session).cmdIter},
		"next":     {"next ITER", 1, 1, (*Session).cmdNext},
		"weakref":  {"weakref NAME @TARGET", 2, 2, (*Session).cmdWeakRef},
		"deref":    {"deref WEAKREF", 1, 1, (*Session).cmdDeref},
		"regexp":   {"regexp NAME PATTERN [FLAGS]", 2, 3, (*Session).cmdRegExp},
		"exec":     {"exec REGEXP INPUT", 2, 2, (*Session).cmdExec},
		"let":      {"let NAME VALUE", 2, 2, (*Session).cmdLet},
		"put":      {"put OBJECT KEY VALUE [ATTRS]", 3, 4, (*Session).cmdPut},
		"accessor": {"accessor OBJECT KEY GETTER [SETTER]", 3, 4, (*Session).cmdAccessor},
		"get":      {"get OBJECT KEY", 2, 2, (*Session).cmdGet},
		"has":      {"has OBJECT KEY", 2, 2, (*Session).cmdHas},
		"del":      {"del OBJECT KEY", 2, 2, (*Session).cmdDel},
		"keys":     {"keys OBJECT", 1, 1, (*Session).cmdKeys},
		"freeze":   {"freeze OBJECT", 1, 1, (*Session).cmdFreeze},
		"drop":     {"drop NAME...", 1, -1, (*Session).cmdDrop},
		"gc":       {"gc", 0, 0, (*Session).cmdGC},
		"stats":    {"stats", 0, 0, (*Session).cmdStats},
		"print":    {"print VALUE...", 1, -1, (*Session).cmdPrint},
		"bindings": {"bindings", 0, 0, (*Session).cmdBindings},
		"help":     {"help", 0, 0, (*Session).cmdHelp},
	}
}

// SplitCommands splits a one-line script on the semicolons that are not
// quoted or escaped. Quotes and backslashes are kept for the tokenizer.
func SplitCommands(code string) []string {
	var cmds []string
	var cur strings.Builder
	var quote rune
	escaped := false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			cmds = append(cmds, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	return append(cmds, cur.String())
}

func (s *Session) dispatch(name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return &errors.SyntaxError{Msg: fmt.Sprintf("unknown command %q (try help)", name)}
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return &errors.SyntaxError{Msg: "usage: " + cmd.usage}
	}
	return cmd.run(s, args)
}

// parseValue reads a literal or a reference. Numbers, true, false, null and
// undefined are primitives; @name refers to a binding; a leading "s:" forces
// a string; anything else is a string.
func (s *Session) parseValue(tok string) (vm.Value, error) {
	switch tok {
	case "true":
		return vm.True, nil
	case "false":
		return vm.False, nil
	case "null":
		return vm.Null, nil
	case "undefined":
		return vm.Undefined, nil
	}
	if strings.HasPrefix(tok, "@") {
		return s.resolve(tok[1:])
	}
	if rest, ok := strings.CutPrefix(tok, "s:"); ok {
		return vm.NewString(rest), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return vm.NumberValue(f), nil
	}
	return vm.NewString(tok), nil
}

func (s *Session) parseValues(toks []string) ([]vm.Value, error) {
	values := make([]vm.Value, len(toks))
	for i, tok := range toks {
		v, err := s.parseValue(tok)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (s *Session) resolve(name string) (vm.Value, error) {
	v, ok := s.bindings[name]
	if !ok {
		return vm.Undefined, &errors.RuntimeError{Msg: name + " is not defined"}
	}
	return v, nil
}

// parseKey turns a token into a property key: @name must name a symbol
// binding, anything else is a property name.
func (s *Session) parseKey(tok string) (vm.PropertyKey, error) {
	if !strings.HasPrefix(tok, "@") {
		return vm.NewStringKey(tok), nil
	}
	v, err := s.resolve(tok[1:])
	if err != nil {
		return vm.PropertyKey{}, err
	}
	key, ok := vm.ToPropertyKey(v)
	if !ok {
		return vm.PropertyKey{}, &errors.TypeError{Msg: "cannot use " + v.TypeName() + " " + tok + " as a property key"}
	}
	return key, nil
}

// parseAttrs reads a subset of "wec" (writable, enumerable, configurable);
// "-" means none.
func parseAttrs(tok string) (writable, enumerable, configurable bool, err error) {
	if tok == "-" {
		return false, false, false, nil
	}
	for _, c := range tok {
		switch c {
		case 'w':
			writable = true
		case 'e':
			enumerable = true
		case 'c':
			configurable = true
		default:
			return false, false, false, &errors.SyntaxError{Msg: fmt.Sprintf("invalid attribute %q in %q (use w, e, c or -)", c, tok)}
		}
	}
	return writable, enumerable, configurable, nil
}

func formatAttrs(d vm.PropertyDescriptor) string {
	var sb strings.Builder
	for _, a := range []struct {
		on bool
		c  byte
	}{{d.Writable && !d.Accessor, 'w'}, {d.Enumerable, 'e'}, {d.Configurable, 'c'}} {
		if a.on {
			sb.WriteByte(a.c)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// object resolves a binding, written NAME or @NAME, that must hold an
// object.
func (s *Session) object(tok string) (vm.Object, error) {
	v, err := s.resolve(strings.TrimPrefix(tok, "@"))
	if err != nil {
		return vm.Object{}, err
	}
	o, ok := v.AsObject()
	if !ok {
		return vm.Object{}, &errors.TypeError{Msg: tok + " is not an object"}
	}
	return o, nil
}

// typed resolves a binding, written NAME or @NAME, that must hold a value of
// type typ.
func (s *Session) typed(tok string, typ vm.ValueType) (vm.Value, error) {
	v, err := s.resolve(strings.TrimPrefix(tok, "@"))
	if err != nil {
		return vm.Undefined, err
	}
	if v.Type() != typ {
		return vm.Undefined, &errors.TypeError{Msg: fmt.Sprintf("%s is a %s, not a %s", tok, v.TypeName(), typ)}
	}
	return v, nil
}

func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}
