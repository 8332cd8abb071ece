// Package logic implements a backward-chaining logical inference engine:
// a first-order unifier, an indexed knowledge base of facts and
// Horn-clause rules, an SLD-style resolver producing a lazy stream of
// variable-binding solutions, and a pluggable registry of built-in
// predicates that may themselves perform asynchronous I/O.
//
// The engine is read-only-concurrent: many queries may run against the
// same knowledge base at once, and knowledge-base mutation may be
// interleaved with them: each query reads the snapshot taken when it
// started and does not see later changes (see KnowledgeBase).
package logic
