package logic

import (
	iradix "github.com/hashicorp/go-immutable-radix/v2"
)

// Substitution is an immutable, functionally extendable mapping from
// variable names to Terms. Binding extends a Substitution without
// mutating it, which is what lets the resolver restore an outer frame's
// Substitution intact after a failed branch (backtracking never mutates
// shared state — see Unify).
//
// The backing store is a persistent radix tree (go-immutable-radix):
// Bind returns a new Substitution sharing most of its structure with the
// original in O(log n), exactly the "immutable map with O(log n)
// extension" the engine's substitution representation calls for.
type Substitution struct {
	tree *iradix.Tree[Term]
}

// EmptySubstitution is the substitution with no bindings.
func EmptySubstitution() Substitution {
	return Substitution{tree: iradix.New[Term]()}
}

// Size returns the number of bindings.
func (s Substitution) Size() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Lookup returns the term directly bound to v, if any.
func (s Substitution) Lookup(v Var) (Term, bool) {
	if s.tree == nil {
		return nil, false
	}
	return s.tree.Get([]byte(v))
}

// Bind returns a new Substitution with v mapped to t. It never mutates s.
func (s Substitution) Bind(v Var, t Term) Substitution {
	tree := s.tree
	if tree == nil {
		tree = iradix.New[Term]()
	}
	newTree, _, _ := tree.Insert([]byte(v), t)
	return Substitution{tree: newTree}
}

// Walk resolves t to its binding, following chains of bound variables
// transitively. Walking is shallow: if t resolves to a Compound, the
// Compound's own arguments are returned unsubstituted.
func Walk(t Term, sub Substitution) Term {
	for {
		v, ok := t.(Var)
		if !ok {
			return t
		}
		bound, found := sub.Lookup(v)
		if !found {
			return t
		}
		t = bound
	}
}

// Walk is sugar for Walk(t, s).
func (s Substitution) Walk(t Term) Term { return Walk(t, s) }

// DeepWalk recursively substitutes every Variable in t, including nested
// Compound arguments. It is idempotent: DeepWalk(DeepWalk(t, s), s) ==
// DeepWalk(t, s).
func DeepWalk(t Term, sub Substitution) Term {
	w := Walk(t, sub)
	c, ok := w.(Compound)
	if !ok {
		return w
	}
	args := make([]Term, len(c.Args))
	for i, a := range c.Args {
		args[i] = DeepWalk(a, sub)
	}
	return Compound{Name: c.Name, Args: args}
}

// DeepWalk is sugar for DeepWalk(t, s).
func (s Substitution) DeepWalk(t Term) Term { return DeepWalk(t, s) }

// walkArgs applies a shallow Walk to each top-level argument of g,
// substituting any argument that is itself a bound variable. This is the
// "walk_compound" step the resolver performs before dispatch: it exposes
// enough structure to pick a built-in or index into the knowledge base
// without paying for a full deep walk on every goal.
func walkArgs(g Compound, sub Substitution) Compound {
	args := make([]Term, len(g.Args))
	for i, a := range g.Args {
		args[i] = Walk(a, sub)
	}
	return Compound{Name: g.Name, Args: args}
}
