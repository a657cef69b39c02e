package libms

import (
	gostrings "strings"

	"github.com/moss-lang/moss/vm"
)

// buildStringSpace mirrors wudi-hey's runtime/string.go table (strtolower,
// strtoupper, trim, str_replace, explode/implode, strpos) narrowed to
// Moss's single String kind — no separate "mixed" coercion path, since
// spec.md's String is already always UTF-8 text (§3).
func buildStringSpace(rt *vm.Runtime, mod *vm.Value) *vm.Value {
	fns := map[string]nativeEntry{
		"upper":    {arity: 1, fn: strUpper},
		"lower":    {arity: 1, fn: strLower},
		"trim":     {arity: 1, fn: strTrim},
		"split":    {arity: 2, fn: strSplit},
		"join":     {arity: 2, fn: strJoin},
		"contains": {arity: 2, fn: strContains},
		"replace":  {arity: 3, fn: strReplace},
		"index":    {arity: 2, fn: strIndex},
	}
	return newSpaceWith(rt, mod, "string", fns)
}

func stringArg(positional []*vm.Value, named map[string]*vm.Value, name string, idx int) (string, error) {
	v := arg(positional, named, name, idx)
	if v == nil || v.Kind != vm.KindString {
		return "", &vm.LibraryError{ClassName: "TypeError", Message: name + " must be a String"}
	}
	return v.Data.(string), nil
}

func strUpper(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	s, err := stringArg(positional, named, "s", 0)
	if err != nil {
		return nil, err
	}
	return rt.NewString(gostrings.ToUpper(s)), nil
}

func strLower(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	s, err := stringArg(positional, named, "s", 0)
	if err != nil {
		return nil, err
	}
	return rt.NewString(gostrings.ToLower(s)), nil
}

func strTrim(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	s, err := stringArg(positional, named, "s", 0)
	if err != nil {
		return nil, err
	}
	return rt.NewString(gostrings.TrimSpace(s)), nil
}

func strSplit(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	s, err := stringArg(positional, named, "s", 0)
	if err != nil {
		return nil, err
	}
	sep, err := stringArg(positional, named, "sep", 1)
	if err != nil {
		return nil, err
	}
	parts := gostrings.Split(s, sep)
	out := make([]*vm.Value, len(parts))
	for i, p := range parts {
		out[i] = rt.NewString(p)
	}
	return rt.NewList(out), nil
}

func strJoin(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	listVal := arg(positional, named, "parts", 0)
	if listVal == nil || listVal.Kind != vm.KindList {
		return nil, &vm.LibraryError{ClassName: "TypeError", Message: "parts must be a List"}
	}
	sep, err := stringArg(positional, named, "sep", 1)
	if err != nil {
		return nil, err
	}
	elems := listVal.Data.([]*vm.Value)
	parts := make([]string, len(elems))
	for i, e := range elems {
		if e.Kind != vm.KindString {
			return nil, &vm.LibraryError{ClassName: "TypeError", Message: "join() elements must be Strings"}
		}
		parts[i] = e.Data.(string)
	}
	return rt.NewString(gostrings.Join(parts, sep)), nil
}

func strContains(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	s, err := stringArg(positional, named, "s", 0)
	if err != nil {
		return nil, err
	}
	needle, err := stringArg(positional, named, "needle", 1)
	if err != nil {
		return nil, err
	}
	return rt.Bool(gostrings.Contains(s, needle)), nil
}

func strReplace(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	s, err := stringArg(positional, named, "s", 0)
	if err != nil {
		return nil, err
	}
	old, err := stringArg(positional, named, "old", 1)
	if err != nil {
		return nil, err
	}
	replacement, err := stringArg(positional, named, "new", 2)
	if err != nil {
		return nil, err
	}
	return rt.NewString(gostrings.ReplaceAll(s, old, replacement)), nil
}

func strIndex(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	s, err := stringArg(positional, named, "s", 0)
	if err != nil {
		return nil, err
	}
	needle, err := stringArg(positional, named, "needle", 1)
	if err != nil {
		return nil, err
	}
	return rt.Int(int64(gostrings.Index(s, needle))), nil
}
