package logic

import "sync/atomic"

// atomicTable publishes a clauseTable for lock-free reads. Writers still
// serialize through KnowledgeBase.writeMu; this only protects the
// read-without-locking path.
type atomicTable struct {
	p atomic.Pointer[clauseTable]
}

func (a *atomicTable) store(t clauseTable) { a.p.Store(&t) }

func (a *atomicTable) load() clauseTable {
	p := a.p.Load()
	if p == nil {
		return clauseTable{}
	}
	return *p
}
