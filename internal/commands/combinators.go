/*
Copyright © 2025 Logicos Software

combinators.go implements sort, each, filter, recurse and merge.
*/
package commands

import (
	"sort"
	"strconv"

	"pkipipe/internal/ast"
	"pkipipe/internal/engine"
	"pkipipe/internal/errs"
	"pkipipe/internal/pki"
	"pkipipe/internal/value"
)

// sortPriority orders kinds for sort. Kinds not listed sort last.
var sortPriority = []value.Kind{
	value.KindStore,
	value.KindStoreEntry,
	value.KindKeyPair,
	value.KindPrivateKey,
	value.KindCertificateChain,
	value.KindCertificate,
	value.KindPublicKey,
	value.KindDistinguishedName,
	value.KindOID,
	value.KindAlgorithm,
	value.KindString,
	value.KindNumber,
	value.KindBoolean,
	value.KindDate,
}

func sortRank(k value.Kind) int {
	for i, p := range sortPriority {
		if p == k {
			return i
		}
	}
	return len(sortPriority)
}

// sortLess ranks by kind priority, then by natural order, then by
// description. Unlisted kinds rank after the listed ones and are grouped
// by kind.
func sortLess(a, b value.Value) bool {
	ra, rb := sortRank(a.Kind()), sortRank(b.Kind())
	if ra != rb {
		return ra < rb
	}
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	if o, ok := a.(value.Ordered); ok {
		if c, ok := o.Compare(b); ok {
			return c < 0
		}
	}
	return a.Describe() < b.Describe()
}

func runSort(_ *engine.Context, st *engine.Stack, _ []string) error {
	v, err := st.Pop("sort")
	if err != nil {
		return err
	}
	m, err := members("sort", v)
	if err != nil {
		return err
	}
	sorted := append([]value.Value(nil), m...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortLess(sorted[i], sorted[j])
	})
	st.Push(value.NewSequence(v.Source().Derive("sort"), sorted...))
	return nil
}

// iterate implements each and filter. The body runs once per element on a
// duplicate of the stack with the element pushed; it contributes when it
// leaves the stack above its starting height.
func iterate(name string, filter bool) engine.NodeCommandFunc {
	return func(ctx *engine.Context, st *engine.Stack, n *ast.Command) error {
		body, err := ast.BuildBody(n)
		if err != nil {
			return err
		}
		v, err := st.Pop(name)
		if err != nil {
			return err
		}
		m, err := members(name, v)
		if err != nil {
			return err
		}

		out := value.NewSequence(v.Source().Derive(name))
		for _, elem := range m {
			r := engine.NewRunner(ctx, st.Duplicate())
			base := r.Stack().Len()
			r.Stack().Push(elem)
			for _, stage := range body {
				if _, err := r.Eval(stage); err != nil {
					return err
				}
			}

			if r.Stack().Len() <= base {
				if filter {
					return errs.BadArgument("filter body left no value for %s", elem.Describe())
				}
				continue
			}
			top, _ := r.Stack().Peek(name)
			if !filter {
				out.Append(top)
				continue
			}
			b, ok := top.(*value.Boolean)
			if !ok {
				return errs.BadArgument("filter body must produce a boolean, got %s", top.Describe())
			}
			if b.Bool() {
				out.Append(elem)
			}
		}
		st.Push(out)
		return nil
	}
}

// runRecurse flattens the value graph depth first. A value equal to one
// already emitted is skipped together with its members.
func runRecurse(_ *engine.Context, st *engine.Stack, _ []string) error {
	v, err := st.Pop("recurse")
	if err != nil {
		return err
	}
	var out []value.Value
	var visit func(value.Value)
	visit = func(n value.Value) {
		for _, seen := range out {
			if value.Equal(seen, n) {
				return
			}
		}
		out = append(out, n)
		if m, ok := value.Members(n); ok {
			for _, c := range m {
				visit(c)
			}
		}
	}
	visit(v)
	st.Push(value.NewSequence(v.Source().Derive("recurse"), out...))
	return nil
}

// runMerge pops a target store, then N values (or the rest of the stack)
// and folds them into it in pop order.
func runMerge(_ *engine.Context, st *engine.Stack, args []string) error {
	count := -1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return errs.BadArgument("merge count must be a non-negative integer, got %q", args[0])
		}
		count = n
	}

	t, err := st.Pop("merge")
	if err != nil {
		return err
	}
	sv, ok := value.As(t, value.KindStore)
	if !ok {
		return errs.InvalidTarget("merge", t.Describe()+" is not a store")
	}
	acc := sv.(*pki.Store)
	src := t.Source().Derive("merge")

	var items []value.Value
	if count < 0 {
		for st.Len() > 0 {
			v, _ := st.Pop("merge")
			items = append(items, v)
		}
	} else {
		for i := 0; i < count; i++ {
			v, err := st.Pop("merge")
			if err != nil {
				return err
			}
			items = append(items, v)
		}
	}

	for _, item := range items {
		switch x := item.(type) {
		case *pki.Store:
			acc, err = acc.Merge(src, x)
		case *pki.StoreEntry:
			acc, err = acc.Add(src, x)
		default:
			return errs.InvalidTarget("merge", item.Describe()+" is neither a store nor a store entry")
		}
		if err != nil {
			return err
		}
	}
	st.Push(acc)
	return nil
}
