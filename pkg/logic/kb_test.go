package logic

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnowledgeBaseInsertionOrderPreserved(t *testing.T) {
	require := require.New(t)

	kb := NewKnowledgeBase()
	require.NoError(kb.AddFact("color", Atom("red")))
	require.NoError(kb.AddFact("color", Atom("green")))
	require.NoError(kb.AddFact("color", Atom("blue")))

	clauses := kb.Snapshot().ClausesFor("color", 1)
	require.Len(clauses, 3)
	require.Equal(Atom("red"), clauses[0].Head.Args[0])
	require.Equal(Atom("green"), clauses[1].Head.Args[0])
	require.Equal(Atom("blue"), clauses[2].Head.Args[0])
}

func TestKnowledgeBaseSnapshotIsolation(t *testing.T) {
	require := require.New(t)

	kb := NewKnowledgeBase()
	require.NoError(kb.AddFact("p", Int(1)))

	snap := kb.Snapshot()
	require.NoError(kb.AddFact("p", Int(2)))

	// The snapshot taken before the second AddFact must not observe it.
	require.Len(snap.ClausesFor("p", 1), 1)
	require.Len(kb.Snapshot().ClausesFor("p", 1), 2)
}

func TestAddRuleRejectsEmptyHeadName(t *testing.T) {
	require := require.New(t)

	kb := NewKnowledgeBase()
	err := kb.AddRule(Compound{}, nil)
	require.Error(err)
	var malformed *MalformedClauseError
	require.ErrorAs(err, &malformed)
}

func TestKnowledgeBaseConcurrentWritesAreSerialized(t *testing.T) {
	require := require.New(t)

	kb := NewKnowledgeBase()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = kb.AddFact("n", Int(int64(i)))
		}(i)
	}
	wg.Wait()

	require.Len(kb.Snapshot().ClausesFor("n", 1), 50)
}

func TestClauseString(t *testing.T) {
	require := require.New(t)

	fact := Clause{Head: Compound{Name: "p", Args: []Term{Atom("a")}}}
	require.Equal("p(a).", fact.String())

	rule := Clause{
		Head: Compound{Name: "g", Args: []Term{Var("?A"), Var("?C")}},
		Body: []Compound{
			{Name: "parent", Args: []Term{Var("?A"), Var("?P")}},
			{Name: "parent", Args: []Term{Var("?P"), Var("?C")}},
		},
	}
	require.Equal(fmt.Sprintf("g(%s, %s) :- parent(%s, %s), parent(%s, %s).", "?A", "?C", "?A", "?P", "?P", "?C"), rule.String())
}
