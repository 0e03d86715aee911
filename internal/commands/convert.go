/*
Copyright © 2025 Logicos Software

convert.go implements as, first, last and select.
*/
package commands

import (
	"strings"

	"pkipipe/internal/engine"
	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

func lookupType(name string) (value.TypeInfo, error) {
	t, ok := value.LookupType(name)
	if !ok {
		e := errs.BadArgument("no such type %q", name)
		e.Hint = "Run 'pkipipe types' to list the type names."
		return value.TypeInfo{}, e
	}
	return t, nil
}

// members converts v to a sequence for op.
func members(op string, v value.Value) ([]value.Value, error) {
	m, ok := value.Members(v)
	if !ok {
		return nil, errs.InvalidTarget(op, v.Describe()+" is not a sequence")
	}
	return m, nil
}

func runAs(_ *engine.Context, st *engine.Stack, args []string) error {
	t, err := lookupType(args[0])
	if err != nil {
		return err
	}
	v, err := st.Pop("as")
	if err != nil {
		return err
	}
	r, ok := value.As(v, t.Kind)
	if !ok {
		return errs.TypeConversion(v.Describe(), t.Name)
	}
	st.Push(r)
	return nil
}

func pick(name string, last bool) engine.CommandFunc {
	return func(_ *engine.Context, st *engine.Stack, _ []string) error {
		v, err := st.Pop(name)
		if err != nil {
			return err
		}
		m, err := members(name, v)
		if err != nil {
			return err
		}
		if len(m) == 0 {
			return errs.InvalidTarget(name, "empty "+v.Describe())
		}
		if last {
			st.Push(m[len(m)-1])
		} else {
			st.Push(m[0])
		}
		return nil
	}
}

// runSelect keeps the elements converting to any of the named types, in
// their converted form.
func runSelect(_ *engine.Context, st *engine.Stack, args []string) error {
	types := make([]value.TypeInfo, 0, len(args))
	for _, a := range args {
		t, err := lookupType(a)
		if err != nil {
			return err
		}
		types = append(types, t)
	}
	v, err := st.Pop("select")
	if err != nil {
		return err
	}
	m, err := members("select", v)
	if err != nil {
		return err
	}
	out := value.NewSequence(v.Source().Derive("select " + strings.Join(args, " ")))
	for _, elem := range m {
		for _, t := range types {
			if r, ok := value.As(elem, t.Kind); ok {
				out.Append(r)
				break
			}
		}
	}
	st.Push(out)
	return nil
}
