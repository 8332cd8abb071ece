package logic

// Unify attempts to make t1 and t2 structurally equal under sub,
// returning the extended substitution. On failure it returns (sub,
// false) — the caller's original substitution is always still valid,
// since Bind never mutates in place (see Substitution).
//
// Unify is pure and total: it never panics on well-formed Terms, and it
// performs no occurs-check — nothing reachable from the clause language
// can synthesize a self-referential binding, so the cost isn't worth
// paying on every call.
func Unify(t1, t2 Term, sub Substitution) (Substitution, bool) {
	a := Walk(t1, sub)
	b := Walk(t2, sub)

	if Equals(a, b) {
		return sub, true
	}

	if av, ok := a.(Var); ok {
		return sub.Bind(av, b), true
	}
	if bv, ok := b.(Var); ok {
		return sub.Bind(bv, a), true
	}

	ac, aok := a.(Compound)
	bc, bok := b.(Compound)
	if !aok || !bok || ac.Name != bc.Name || len(ac.Args) != len(bc.Args) {
		return sub, false
	}

	cur := sub
	for i := range ac.Args {
		var ok bool
		cur, ok = Unify(ac.Args[i], bc.Args[i], cur)
		if !ok {
			return sub, false
		}
	}
	return cur, true
}

// UnifyOccursCheck is Unify's occurs-checked sibling: before binding a
// variable to a compound term, it rejects the binding if the variable
// already occurs somewhere inside that term (under the current
// substitution), preventing a cyclic binding. The clause language itself
// cannot produce such a cycle, so this only matters to an embedder
// adding a custom built-in that might; it is behind Option
// WithOccursCheck and off by default.
func UnifyOccursCheck(t1, t2 Term, sub Substitution) (Substitution, bool) {
	a := Walk(t1, sub)
	b := Walk(t2, sub)

	if Equals(a, b) {
		return sub, true
	}

	if av, ok := a.(Var); ok {
		if occursIn(av, b, sub) {
			return sub, false
		}
		return sub.Bind(av, b), true
	}
	if bv, ok := b.(Var); ok {
		if occursIn(bv, a, sub) {
			return sub, false
		}
		return sub.Bind(bv, a), true
	}

	ac, aok := a.(Compound)
	bc, bok := b.(Compound)
	if !aok || !bok || ac.Name != bc.Name || len(ac.Args) != len(bc.Args) {
		return sub, false
	}

	cur := sub
	for i := range ac.Args {
		var ok bool
		cur, ok = UnifyOccursCheck(ac.Args[i], bc.Args[i], cur)
		if !ok {
			return sub, false
		}
	}
	return cur, true
}

func occursIn(v Var, t Term, sub Substitution) bool {
	switch w := Walk(t, sub).(type) {
	case Var:
		return w == v
	case Compound:
		for _, a := range w.Args {
			if occursIn(v, a, sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
