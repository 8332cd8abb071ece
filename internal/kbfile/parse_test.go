package kbfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clauseware/hornchain/pkg/logic"
)

func TestParseFactsAndRules(t *testing.T) {
	require := require.New(t)

	src := `facts:
  parent(david, john).
  parent(john, mary).
  parent(john, peter).

rules:
  grandparent(?A, ?C) :-
      parent(?A, ?P),
      parent(?P, ?C).
`
	parsed, err := Parse(src, "test.kb")
	require.NoError(err)
	require.Len(parsed.Facts, 3)
	require.Len(parsed.Rules, 1)

	require.Equal("parent", parsed.Facts[0].Head.Name)
	require.Equal(logic.Atom("david"), parsed.Facts[0].Head.Args[0])
	require.Equal(logic.Atom("john"), parsed.Facts[0].Head.Args[1])

	rule := parsed.Rules[0]
	require.Equal("grandparent", rule.Head.Name)
	require.Equal(logic.Var("?A"), rule.Head.Args[0])
	require.Len(rule.Body, 2)
	require.Equal("parent", rule.Body[0].Name)
}

func TestParseNumbersStringsAndLists(t *testing.T) {
	require := require.New(t)

	src := `facts:
  measurement("室温", 21.5, true, [1, 2, 3]).
`
	parsed, err := Parse(src, "test.kb")
	require.NoError(err)
	require.Len(parsed.Facts, 1)

	args := parsed.Facts[0].Head.Args
	require.Equal(logic.Str("室温"), args[0])
	require.Equal(logic.Float(21.5), args[1])
	require.Equal(logic.Bool(true), args[2])

	elems, ok := logic.AsList(args[3])
	require.True(ok)
	require.Equal([]logic.Term{logic.Int(1), logic.Int(2), logic.Int(3)}, elems)
}

func TestParseAggregatesErrorsAndSkipsBadClauses(t *testing.T) {
	require := require.New(t)

	src := `facts:
  good(a).
  !!!not a clause!!!.
  also_good(b).
`
	parsed, err := Parse(src, "test.kb")
	require.Error(err)
	require.Len(parsed.Facts, 2)
	require.Equal("good", parsed.Facts[0].Head.Name)
	require.Equal("also_good", parsed.Facts[1].Head.Name)
}

func TestParseZeroAritySectionKeywordDisambiguation(t *testing.T) {
	require := require.New(t)

	// A predicate named "facts" with arguments must not be mistaken for a
	// section header, which requires a bare "facts:" with nothing else.
	src := `facts:
  facts(a, b).
`
	parsed, err := Parse(src, "test.kb")
	require.NoError(err)
	require.Len(parsed.Facts, 1)
	require.Equal("facts", parsed.Facts[0].Head.Name)
}
