package logic

import (
	"sync"
)

// clauseTable is the immutable snapshot a query reads from. A new table
// is built and published wholesale on every mutation, so ClausesFor never
// takes a lock and a query that snapshotted the table pointer at entry is
// unaffected by concurrent AddFact/AddRule calls that happen afterward.
type clauseTable map[predKey][]Clause

// KnowledgeBase is a mapping from predicate key (name, arity) to an
// ordered list of clauses. Insertion order is preserved and significant:
// the resolver tries clauses in insertion order.
//
// Mutation discipline: AddFact and AddRule are serialized behind
// writeMu; each call publishes a freshly copied table to the atomic
// pointer (a bulk load is a sequence of such calls, each published on
// its own). Reads never lock: Snapshot
// loads the pointer once, and everything downstream of that load sees a
// knowledge base frozen at that instant, even if mutation is interleaved
// with an in-flight query.
type KnowledgeBase struct {
	writeMu sync.Mutex
	table   atomicTable
}

// NewKnowledgeBase returns an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	kb := &KnowledgeBase{}
	kb.table.store(clauseTable{})
	return kb
}

// AddFact appends a fact (a Rule with an empty body) to the bucket for
// (name, len(args)).
func (kb *KnowledgeBase) AddFact(name string, args ...Term) error {
	return kb.append(Clause{Head: Compound{Name: name, Args: args}})
}

// AddRule validates that head is well-formed and appends (head, body) to
// its (name, arity) bucket.
func (kb *KnowledgeBase) AddRule(head Compound, body []Compound) error {
	if head.Name == "" {
		return &MalformedClauseError{Reason: "rule head must have a predicate name"}
	}
	return kb.append(Clause{Head: head, Body: body})
}

func (kb *KnowledgeBase) append(c Clause) error {
	kb.writeMu.Lock()
	defer kb.writeMu.Unlock()

	old := kb.table.load()
	next := make(clauseTable, len(old))
	for k, v := range old {
		next[k] = v
	}
	k := keyOf(c.Head.Name, len(c.Head.Args))
	next[k] = append(append([]Clause{}, next[k]...), c)
	kb.table.store(next)
	return nil
}

// Snapshot returns a read-only view of the knowledge base as it exists
// right now. A query takes exactly one Snapshot at entry.
func (kb *KnowledgeBase) Snapshot() *Snapshot {
	return &Snapshot{table: kb.table.load()}
}

// Snapshot is an immutable view of a KnowledgeBase's clauses.
type Snapshot struct {
	table clauseTable
}

// ClausesFor returns the clauses registered for (name, arity), in
// insertion order. The knowledge base does not interpret the clauses;
// that is the resolver's job.
func (s *Snapshot) ClausesFor(name string, arity int) []Clause {
	return s.table[keyOf(name, arity)]
}
