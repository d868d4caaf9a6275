package driver

import (
	"sort"
	"strconv"
	"strings"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/vm"
)

func (s *Session) cmdObject(args []string) error {
	proto := vm.Null
	if len(args) == 2 {
		v, err := s.parseValue(args[1])
		if err != nil {
			return err
		}
		if !v.IsObject() && !v.IsNull() {
			return &errors.TypeError{Msg: "Object prototype may only be an Object or null: " + args[1]}
		}
		proto = v
	}
	s.Bind(args[0], s.heap.CreateObject(proto).Value())
	return nil
}

func (s *Session) cmdArray(args []string) error {
	values, err := s.parseValues(args[1:])
	if err != nil {
		return err
	}
	s.Bind(args[0], s.heap.CreateArray(values...).Value())
	return nil
}

// echoBehaviour backs shell functions: it returns [this, ...args]. Each
// function closes over an environment that binds its own name.
func echoBehaviour(h *vm.Heap, this vm.Value, args []vm.Value) (vm.Value, error) {
	all := append([]vm.Value{this}, args...)
	return h.CreateArray(all...).Value(), nil
}

func (s *Session) cmdFunction(args []string) error {
	arity, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return (&errors.SyntaxError{Msg: "invalid arity " + strconv.Quote(args[2])}).CausedBy(err)
	}
	env := s.heap.CreateEnvironment(0)
	f := s.heap.CreateFunction(args[1], uint32(arity), echoBehaviour, vm.FunctionOptions{Environment: env})
	if err := s.heap.CreateBinding(env, args[1], false); err != nil {
		return err
	}
	s.heap.InitializeBinding(env, args[1], f.Value())
	s.Bind(args[0], f.Value())
	return nil
}

func (s *Session) cmdBind(args []string) error {
	target, err := s.typed(args[1], vm.TypeFunction)
	if err != nil {
		return err
	}
	values, err := s.parseValues(args[2:])
	if err != nil {
		return err
	}
	f := s.heap.CreateBoundFunction(target.AsFunction(), values[0], values[1:]...)
	s.Bind(args[0], f.Value())
	return nil
}

func (s *Session) cmdCall(args []string) error {
	f, err := s.typed(args[0], vm.TypeFunction)
	if err != nil {
		return err
	}
	values, err := s.parseValues(args[1:])
	if err != nil {
		return err
	}
	result, err := s.heap.Call(f.AsFunction(), values[0], values[1:]...)
	if err != nil {
		return err
	}
	s.Bind("_", result)
	s.printf("%s\n", s.heap.Inspect(result))
	return nil
}

func (s *Session) cmdSymbol(args []string) error {
	desc := vm.Undefined
	if len(args) == 2 {
		desc = vm.NewString(args[1])
	}
	s.Bind(args[0], s.heap.CreateSymbol(desc).Value())
	return nil
}

func (s *Session) cmdSet(args []string) error {
	s.Bind(args[0], s.heap.CreateSet().Value())
	return nil
}

func (s *Session) cmdSetAdd(args []string) error {
	set, err := s.typed(args[0], vm.TypeSet)
	if err != nil {
		return err
	}
	values, err := s.parseValues(args[1:])
	if err != nil {
		return err
	}
	for _, v := range values {
		s.heap.SetAdd(set.AsSet(), v)
	}
	return nil
}

func (s *Session) cmdSetDel(args []string) error {
	set, err := s.typed(args[0], vm.TypeSet)
	if err != nil {
		return err
	}
	v, err := s.parseValue(args[1])
	if err != nil {
		return err
	}
	s.printf("%t\n", s.heap.SetDelete(set.AsSet(), v))
	return nil
}

func (s *Session) cmdIter(args []string) error {
	set, err := s.typed(args[1], vm.TypeSet)
	if err != nil {
		return err
	}
	kind := vm.IterateValues
	if len(args) == 3 {
		switch args[2] {
		case "keys":
			kind = vm.IterateKeys
		case "values":
			kind = vm.IterateValues
		case "entries":
			kind = vm.IterateEntries
		default:
			return &errors.SyntaxError{Msg: "iterator kind must be keys, values or entries"}
		}
	}
	s.Bind(args[0], s.heap.CreateSetIterator(set.AsSet(), kind).Value())
	return nil
}

func (s *Session) cmdNext(args []string) error {
	it, err := s.typed(args[0], vm.TypeSetIterator)
	if err != nil {
		return err
	}
	v, done := s.heap.SetIteratorNext(it.AsSetIterator())
	if done {
		s.printf("done\n")
		return nil
	}
	s.printf("%s\n", s.heap.Inspect(v))
	return nil
}

func (s *Session) cmdWeakRef(args []string) error {
	target, err := s.parseValue(args[1])
	if err != nil {
		return err
	}
	w, err := s.heap.CreateWeakRef(target)
	if err != nil {
		return err
	}
	s.Bind(args[0], w.Value())
	return nil
}

func (s *Session) cmdDeref(args []string) error {
	w, err := s.typed(args[0], vm.TypeWeakRef)
	if err != nil {
		return err
	}
	s.printf("%s\n", s.heap.Inspect(s.heap.WeakRefDeref(w.AsWeakRef())))
	return nil
}

func (s *Session) cmdRegExp(args []string) error {
	flags := ""
	if len(args) == 3 {
		flags = args[2]
	}
	re, err := s.heap.CreateRegExp(args[1], flags)
	if err != nil {
		return err
	}
	s.Bind(args[0], re.Value())
	return nil
}

func (s *Session) cmdExec(args []string) error {
	re, err := s.typed(args[0], vm.TypeRegExp)
	if err != nil {
		return err
	}
	result, err := s.heap.RegExpExec(re.AsRegExp(), args[1])
	if err != nil {
		return err
	}
	s.Bind("_", result)
	s.printf("%s\n", s.heap.Inspect(result))
	return nil
}

func (s *Session) cmdLet(args []string) error {
	v, err := s.parseValue(args[1])
	if err != nil {
		return err
	}
	s.Bind(args[0], v)
	return nil
}

func (s *Session) cmdPut(args []string) error {
	o, err := s.object(args[0])
	if err != nil {
		return err
	}
	key, err := s.parseKey(args[1])
	if err != nil {
		return err
	}
	v, err := s.parseValue(args[2])
	if err != nil {
		return err
	}
	desc := vm.DataDescriptor(v)
	if len(args) == 4 {
		w, e, c, err := parseAttrs(args[3])
		if err != nil {
			return err
		}
		desc = vm.PropertyDescriptor{Value: v, Writable: w, Enumerable: e, Configurable: c}
	}
	return vm.NewPropertyStorage(o).Set(s.heap, key, desc)
}

func (s *Session) cmdAccessor(args []string) error {
	o, err := s.object(args[0])
	if err != nil {
		return err
	}
	key, err := s.parseKey(args[1])
	if err != nil {
		return err
	}
	var fns [2]vm.Function
	for i, tok := range args[2:] {
		if tok == "-" {
			continue
		}
		f, err := s.typed(tok, vm.TypeFunction)
		if err != nil {
			return err
		}
		fns[i] = f.AsFunction()
	}
	return vm.NewPropertyStorage(o).Set(s.heap, key, vm.AccessorDescriptor(fns[0], fns[1]))
}

func (s *Session) cmdGet(args []string) error {
	o, err := s.object(args[0])
	if err != nil {
		return err
	}
	key, err := s.parseKey(args[1])
	if err != nil {
		return err
	}
	d, ok := vm.NewPropertyStorage(o).Get(s.heap, key)
	if !ok {
		s.printf("undefined\n")
		return nil
	}
	if d.Accessor {
		s.printf("accessor get=%s set=%s (%s)\n", s.heap.Inspect(d.Get.Value()), s.heap.Inspect(d.Set.Value()), formatAttrs(d))
		return nil
	}
	s.printf("%s (%s)\n", s.heap.Inspect(d.Value), formatAttrs(d))
	return nil
}

func (s *Session) cmdHas(args []string) error {
	o, err := s.object(args[0])
	if err != nil {
		return err
	}
	key, err := s.parseKey(args[1])
	if err != nil {
		return err
	}
	s.printf("%t\n", vm.NewPropertyStorage(o).Has(s.heap, key))
	return nil
}

func (s *Session) cmdDel(args []string) error {
	o, err := s.object(args[0])
	if err != nil {
		return err
	}
	key, err := s.parseKey(args[1])
	if err != nil {
		return err
	}
	s.printf("%t\n", vm.NewPropertyStorage(o).Remove(s.heap, key))
	return nil
}

func (s *Session) cmdKeys(args []string) error {
	o, err := s.object(args[0])
	if err != nil {
		return err
	}
	keys := vm.NewPropertyStorage(o).Keys(s.heap)
	names := make([]string, len(keys))
	for i, k := range keys {
		if sym, ok := k.Symbol(); ok {
			names[i] = s.heap.Inspect(sym.Value())
			continue
		}
		names[i] = k.String()
	}
	s.printf("[%s]\n", strings.Join(names, ", "))
	return nil
}

func (s *Session) cmdFreeze(args []string) error {
	v, err := s.typed(args[0], vm.TypeObject)
	if err != nil {
		return err
	}
	s.heap.Freeze(v.AsOrdinaryObject())
	return nil
}

func (s *Session) cmdDrop(args []string) error {
	for _, name := range args {
		if _, ok := s.bindings[name]; !ok {
			return &errors.RuntimeError{Msg: name + " is not defined"}
		}
		delete(s.bindings, name)
	}
	return nil
}

func (s *Session) cmdGC(args []string) error {
	stats := s.heap.Collect(s)
	s.printf("%s\n", stats)
	return nil
}

func (s *Session) cmdStats(args []string) error {
	s.heap.Stats().Format(s.out)
	return nil
}

func (s *Session) cmdPrint(args []string) error {
	parts := make([]string, len(args))
	for i, tok := range args {
		v, err := s.parseValue(tok)
		if err != nil {
			return err
		}
		parts[i] = s.heap.Inspect(v)
	}
	s.printf("%s\n", strings.Join(parts, " "))
	return nil
}

func (s *Session) cmdBindings(args []string) error {
	for _, name := range s.Names() {
		s.printf("%s = %s\n", name, s.heap.Inspect(s.bindings[name]))
	}
	return nil
}

func (s *Session) cmdHelp(args []string) error {
	usages := make([]string, 0, len(commands))
	for _, c := range commands {
		usages = append(usages, c.usage)
	}
	sort.Strings(usages)
	for _, u := range usages {
		s.printf("  %s\n", u)
	}
	return nil
}
