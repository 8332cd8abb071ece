package logic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnifyVarToAtom(t *testing.T) {
	require := require.New(t)

	s, ok := Unify(Var("?X"), Atom("a"), EmptySubstitution())
	require.True(ok)
	v, _ := s.Lookup(Var("?X"))
	require.Equal(Atom("a"), v)
}

func TestUnifyCompoundRecursion(t *testing.T) {
	require := require.New(t)

	a := Compound{Name: "p", Args: []Term{Var("?X"), Int(1)}}
	b := Compound{Name: "p", Args: []Term{Atom("a"), Var("?Y")}}

	s, ok := Unify(a, b, EmptySubstitution())
	require.True(ok)

	x, _ := s.Lookup(Var("?X"))
	require.Equal(Atom("a"), x)
	y, _ := s.Lookup(Var("?Y"))
	require.Equal(Int(1), y)
}

func TestUnifyFailureLeavesSubstitutionUsable(t *testing.T) {
	require := require.New(t)

	s0 := EmptySubstitution().Bind(Var("?Z"), Atom("untouched"))
	s1, ok := Unify(Atom("a"), Atom("b"), s0)
	require.False(ok)

	// The failed-unify contract: on failure, the returned substitution is
	// the caller's original, still fully usable for backtracking.
	v, found := s1.Lookup(Var("?Z"))
	require.True(found)
	require.Equal(Atom("untouched"), v)
}

func TestUnifyArityMismatch(t *testing.T) {
	require := require.New(t)

	_, ok := Unify(
		Compound{Name: "p", Args: []Term{Atom("a")}},
		Compound{Name: "p", Args: []Term{Atom("a"), Atom("b")}},
		EmptySubstitution(),
	)
	require.False(ok)
}

func TestUnifyNumericCrossRepresentation(t *testing.T) {
	require := require.New(t)

	_, ok := Unify(Int(1), Float(1.0), EmptySubstitution())
	require.True(ok, "1 must unify with 1.0")
}

func TestUnifyOccursCheckRejectsCycle(t *testing.T) {
	require := require.New(t)

	s0 := EmptySubstitution()
	cyclic := Compound{Name: "f", Args: []Term{Var("?X")}}

	_, ok := UnifyOccursCheck(Var("?X"), cyclic, s0)
	require.False(ok, "occurs-checked unification must reject binding ?X to f(?X)")

	// The plain unifier has no such protection by design, so the same
	// binding succeeds there.
	_, ok = Unify(Var("?X"), cyclic, s0)
	require.True(ok)
}
