package logic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func drain(t *testing.T, ctx context.Context, rs *ResultStream, vars ...Var) [][]Term {
	t.Helper()
	var out [][]Term
	for {
		b, err, ok := rs.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		row := make([]Term, len(vars))
		for i, v := range vars {
			row[i] = b[v]
		}
		out = append(out, row)
	}
	return out
}

// Scenario 1: basic fact.
func TestScenarioBasicFact(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddFact("parent", Atom("david"), Atom("john")))

	ctx := context.Background()
	rs, err := e.Query(ctx, "parent", []Term{Atom("david"), Var("?X")})
	require.NoError(err)
	defer rs.Close()

	got := drain(t, ctx, rs, Var("?X"))
	require.Equal([][]Term{{Atom("john")}}, got)
}

// Scenario 2: grandparent derivation, solutions in source order.
func TestScenarioGrandparentDerivation(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddFact("parent", Atom("david"), Atom("john")))
	require.NoError(e.AddFact("parent", Atom("john"), Atom("mary")))
	require.NoError(e.AddFact("parent", Atom("john"), Atom("peter")))
	require.NoError(e.AddRule(
		Compound{Name: "grandparent", Args: []Term{Var("?A"), Var("?C")}},
		Compound{Name: "parent", Args: []Term{Var("?A"), Var("?P")}},
		Compound{Name: "parent", Args: []Term{Var("?P"), Var("?C")}},
	))

	ctx := context.Background()
	rs, err := e.Query(ctx, "grandparent", []Term{Atom("david"), Var("?GC")})
	require.NoError(err)
	defer rs.Close()

	got := drain(t, ctx, rs, Var("?GC"))
	require.Equal([][]Term{{Atom("mary")}, {Atom("peter")}}, got)
}

// Scenario 3: recursive ancestor, base case before recursive case.
func TestScenarioRecursiveAncestor(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddFact("parent", Atom("a"), Atom("b")))
	require.NoError(e.AddFact("parent", Atom("b"), Atom("c")))
	require.NoError(e.AddFact("parent", Atom("c"), Atom("d")))
	require.NoError(e.AddRule(
		Compound{Name: "ancestor", Args: []Term{Var("?A"), Var("?D")}},
		Compound{Name: "parent", Args: []Term{Var("?A"), Var("?D")}},
	))
	require.NoError(e.AddRule(
		Compound{Name: "ancestor", Args: []Term{Var("?A"), Var("?D")}},
		Compound{Name: "parent", Args: []Term{Var("?A"), Var("?P")}},
		Compound{Name: "ancestor", Args: []Term{Var("?P"), Var("?D")}},
	))

	ctx := context.Background()
	rs, err := e.Query(ctx, "ancestor", []Term{Atom("a"), Var("?X")})
	require.NoError(err)
	defer rs.Close()

	got := drain(t, ctx, rs, Var("?X"))
	require.Equal([][]Term{{Atom("b")}, {Atom("c")}, {Atom("d")}}, got)
}

// Scenario 4: disequality via neq.
func TestScenarioDisequality(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddFact("parent", Atom("p"), Atom("x")))
	require.NoError(e.AddFact("parent", Atom("p"), Atom("y")))
	require.NoError(e.AddRule(
		Compound{Name: "sibling", Args: []Term{Var("?S1"), Var("?S2")}},
		Compound{Name: "parent", Args: []Term{Var("?P"), Var("?S1")}},
		Compound{Name: "parent", Args: []Term{Var("?P"), Var("?S2")}},
		Compound{Name: "neq", Args: []Term{Var("?S1"), Var("?S2")}},
	))

	ctx := context.Background()
	rs, err := e.Query(ctx, "sibling", []Term{Atom("x"), Var("?S")})
	require.NoError(err)
	defer rs.Close()

	got := drain(t, ctx, rs, Var("?S"))
	require.Equal([][]Term{{Atom("y")}}, got)
}

// Scenario 5: depth cutoff is silent, not an error.
func TestScenarioDepthCutoff(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t, WithMaxDepth(5))
	require.NoError(e.AddRule(
		Compound{Name: "loop", Args: []Term{Var("?X")}},
		Compound{Name: "loop", Args: []Term{Var("?X")}},
	))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rs, err := e.Query(ctx, "loop", []Term{Atom("a")})
	require.NoError(err)
	defer rs.Close()

	got := drain(t, ctx, rs)
	require.Empty(got)
}

// Scenario 6: solution cap.
func TestScenarioSolutionCap(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddFact("parent", Atom("david"), Atom("john")))
	require.NoError(e.AddFact("parent", Atom("john"), Atom("mary")))
	require.NoError(e.AddFact("parent", Atom("john"), Atom("peter")))
	require.NoError(e.AddRule(
		Compound{Name: "grandparent", Args: []Term{Var("?A"), Var("?C")}},
		Compound{Name: "parent", Args: []Term{Var("?A"), Var("?P")}},
		Compound{Name: "parent", Args: []Term{Var("?P"), Var("?C")}},
	))

	ctx := context.Background()
	rs, err := e.Query(ctx, "grandparent", []Term{Atom("david"), Var("?GC")}, WithQueryMaxSolutions(1))
	require.NoError(err)
	defer rs.Close()

	got := drain(t, ctx, rs, Var("?GC"))
	require.Len(got, 1)
}

// Order stability: two independent runs over the same KB produce the
// same solution sequence.
func TestOrderStability(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddFact("color", Atom("red")))
	require.NoError(e.AddFact("color", Atom("green")))
	require.NoError(e.AddFact("color", Atom("blue")))

	ctx := context.Background()
	run := func() [][]Term {
		rs, err := e.Query(ctx, "color", []Term{Var("?C")})
		require.NoError(err)
		defer rs.Close()
		return drain(t, ctx, rs, Var("?C"))
	}

	require.Equal(run(), run())
}

// Fresh-variable leakage: a goal with only built-in bodies must not leak
// resolver-internal fresh variables into the projection.
func TestNoFreshVariableLeakage(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddRule(
		Compound{Name: "gt5", Args: []Term{Var("?N")}},
		Compound{Name: "gt", Args: []Term{Var("?N"), Int(5)}},
	))

	ctx := context.Background()
	b, ok, err := e.QueryOne(ctx, "gt5", []Term{Int(10)})
	require.NoError(err)
	require.True(ok)
	require.Empty(b, "gt5(10) binds no query variables, so the projection must be empty")
}

// A fatal built-in error must propagate to the caller as an error, not
// simply terminate the stream silently.
func TestBuiltinErrorPropagates(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.RegisterBuiltin("boom", BuiltinFunc(func(ctx context.Context, inv Invocation) *Stream {
		return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
			panic("simulated built-in failure")
		})
	})))
	require.NoError(e.AddRule(
		Compound{Name: "danger"},
		Compound{Name: "boom"},
	))

	ctx := context.Background()
	rs, err := e.Query(ctx, "danger", nil)
	require.NoError(err)
	defer rs.Close()

	_, err, ok := rs.Next(ctx)
	require.False(ok)
	require.Error(err)
	var be *BuiltinError
	require.ErrorAs(err, &be)
}

// Registering a built-in under an already-registered name is an error.
func TestDuplicateBuiltinRegistration(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	err := e.RegisterBuiltin("eq", BuiltinFunc(func(ctx context.Context, inv Invocation) *Stream {
		return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {})
	}))
	require.Error(err)
	var dup *DuplicateBuiltinError
	require.ErrorAs(err, &dup)
}

// member iterates a ground sequence literal.
func TestMemberBuiltin(t *testing.T) {
	require := require.New(t)
	e := mustEngine(t)
	require.NoError(e.AddRule(
		Compound{Name: "color", Args: []Term{Var("?C")}},
		Compound{Name: "member", Args: []Term{Var("?C"), NewList(Atom("red"), Atom("green"), Atom("blue"))}},
	))

	ctx := context.Background()
	rs, err := e.Query(ctx, "color", []Term{Var("?C")})
	require.NoError(err)
	defer rs.Close()

	got := drain(t, ctx, rs, Var("?C"))
	require.Equal([][]Term{{Atom("red")}, {Atom("green")}, {Atom("blue")}}, got)
}
