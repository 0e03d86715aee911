/*
Copyright © 2025 Logicos Software

as.go implements conversion between kinds.
*/
package value

// As presents v as the capability target.
//
// The conversion is tried in this order:
//  1. v's own kind already satisfies target: v itself
//  2. a derived conversion defined by v's kind (Converter)
//  3. target is a sequence and v is a Container: a sequence of its members
//  4. v is a Container: the "exactly one candidate" member rule
//
// The member rule first collects the members whose own kind satisfies
// target; exactly one such member is the result. Otherwise it collects the
// members for which a recursive As succeeds; exactly one such conversion is
// the result. Zero or several candidates fail.
func As(v Value, target Kind) (Value, bool) {
	return as(v, target, make(map[Value]struct{}))
}

func as(v Value, target Kind, seen map[Value]struct{}) (Value, bool) {
	if v == nil {
		return nil, false
	}
	if Satisfies(v.Kind(), target) {
		return v, true
	}
	if c, ok := v.(Converter); ok {
		if r, ok := c.ConvertTo(target); ok {
			return r, true
		}
	}
	c, ok := v.(Container)
	if !ok {
		return nil, false
	}
	if target == KindSequence {
		return NewSequence(v.Source(), c.Members()...), true
	}

	// Self-referential containers stop converting at the first revisit.
	if _, busy := seen[v]; busy {
		return nil, false
	}
	seen[v] = struct{}{}
	defer delete(seen, v)

	return resolveMembers(c.Members(), target, seen)
}

// ResolveMember applies the "exactly one candidate" rule to members.
func ResolveMember(members []Value, target Kind) (Value, bool) {
	return resolveMembers(members, target, make(map[Value]struct{}))
}

func resolveMembers(members []Value, target Kind, seen map[Value]struct{}) (Value, bool) {
	var exact []Value
	for _, m := range members {
		if m != nil && Satisfies(m.Kind(), target) {
			exact = append(exact, m)
		}
	}
	if len(exact) == 1 {
		return exact[0], true
	}

	var converted []Value
	for _, m := range members {
		if r, ok := as(m, target, seen); ok {
			converted = append(converted, r)
		}
	}
	if len(converted) == 1 {
		return converted[0], true
	}
	return nil, false
}
