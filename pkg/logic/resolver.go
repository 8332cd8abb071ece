package logic

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Goal is a Compound submitted to the resolver. The alias exists purely
// for readability at call sites — a Goal is syntactically a Compound.
type Goal = Compound

// DefaultMaxDepth is the resolver's default rule-expansion depth bound.
const DefaultMaxDepth = 25

// UnboundedSolutions requests all solutions (no cap).
const UnboundedSolutions = -1

// ResolveContext carries everything a single query's resolution shares
// across every frame of the search: the depth bound, the solution
// counter and cap, the knowledge-base snapshot, the built-in registry,
// the per-query fresh-variable counter, and the optional tracer. Each
// top-level Engine.Query call owns exactly one ResolveContext.
type ResolveContext struct {
	MaxDepth     int
	MaxSolutions int

	kb          *Snapshot
	registry    *Registry
	tracer      Tracer
	logger      hclog.Logger
	occursCheck bool

	freshCounter  atomic.Int64
	solutionCount atomic.Int64
	clauseAttempt atomic.Int64

	cancel context.CancelFunc
}

// newResolveContext builds a ResolveContext for a single query.
func newResolveContext(kb *Snapshot, registry *Registry, tracer Tracer, logger hclog.Logger, maxDepth, maxSolutions int, occursCheck bool, cancel context.CancelFunc) *ResolveContext {
	return &ResolveContext{
		MaxDepth:     maxDepth,
		MaxSolutions: maxSolutions,
		kb:           kb,
		registry:     registry,
		tracer:       tracer,
		logger:       logger,
		occursCheck:  occursCheck,
		cancel:       cancel,
	}
}

// unify dispatches to the occurs-checked unifier when the query was
// configured with WithOccursCheck, and to the plain unifier otherwise.
func (rc *ResolveContext) unify(a, b Term, sub Substitution) (Substitution, bool) {
	if rc.occursCheck {
		return UnifyOccursCheck(a, b, sub)
	}
	return Unify(a, b, sub)
}

func (rc *ResolveContext) nextFresh() int64 { return rc.freshCounter.Add(1) }

// reserveSolution atomically claims the right to yield one more solution,
// honoring MaxSolutions. It returns false once the cap has already been
// reached. It does not cancel the query itself — the caller must still
// deliver the claimed solution, and canceling before delivery would race
// the very put() that's supposed to carry it out (the put and the
// cancellation both select on the same ctx.Done(), and a closed Done()
// wins nondeterministically). Callers that claim the last permitted
// solution should call cancelIfCapReached after the solution has been
// put, not before.
func (rc *ResolveContext) reserveSolution() bool {
	if rc.MaxSolutions < 0 {
		rc.solutionCount.Add(1)
		return true
	}
	n := rc.solutionCount.Add(1)
	return n <= int64(rc.MaxSolutions)
}

// cancelIfCapReached cancels the query once the solution cap has been
// met. It must only be called after the corresponding solution has
// already been handed to out.put — see reserveSolution.
func (rc *ResolveContext) cancelIfCapReached() {
	if rc.capReached() {
		rc.cancel()
	}
}

// capReached reports whether the solution cap has already been hit, used
// by forward() to stop draining an inner stream as soon as possible.
func (rc *ResolveContext) capReached() bool {
	if rc.MaxSolutions < 0 {
		return false
	}
	return rc.solutionCount.Load() >= int64(rc.MaxSolutions)
}

// maybeYield cooperatively yields the goroutine scheduler every N clause
// attempts, at clause boundaries, for fairness between concurrently
// running queries.
const clauseYieldEvery = 64

func (rc *ResolveContext) maybeYield() {
	if rc.clauseAttempt.Add(1)%clauseYieldEvery == 0 {
		runtime.Gosched()
	}
}

// resolveCallback builds the Resolve function handed to built-ins (e.g.
// or) that need to dispatch a sub-goal through the real resolver. A
// sub-goal resolved this way is not itself a public answer to the
// original query — it's a value the built-in combines with whatever
// goals still follow it in the conjunction — so solutions reached this
// way must not be reserved against MaxSolutions a second time; only the
// resolver's own continuation, once the full goal list (including that
// "rest") is actually exhausted, represents a publicly countable
// solution. Hence counts=false here.
func (rc *ResolveContext) resolveCallback() func(context.Context, []Term, Substitution, int) *Stream {
	return func(ctx context.Context, goals []Term, sub Substitution, depth int) *Stream {
		compounds := make([]Compound, len(goals))
		for i, g := range goals {
			c, ok := g.(Compound)
			if !ok {
				panic(fmt.Sprintf("logic: Resolve callback requires Compound goals, got %T", g))
			}
			compounds[i] = c
		}
		return solve(ctx, compounds, sub, depth, rc, false)
	}
}

// solve is the resolver's lazy entry point: it spawns the goroutine that
// drives resolveInto and returns the Stream it will publish results on.
// counts controls whether reaching the end of goals in this particular
// invocation reserves a slot against MaxSolutions — see resolveCallback.
func solve(ctx context.Context, goals []Compound, sub Substitution, depth int, rc *ResolveContext, counts bool) *Stream {
	out := newStream()
	go func() {
		defer out.close()
		resolveInto(ctx, goals, sub, depth, rc, out, counts)
	}()
	return out
}

// resolveInto is the core resolution algorithm:
//
//	solve(goals, σ, depth, ctx):
//	  if goals is empty: yield σ; return
//	  if depth > ctx.max_depth: return   # silent cutoff
//	  g, rest = goals[0], goals[1:]
//	  g' = walk_compound(g, σ)
//	  if g'.name is a built-in: dispatch to the registry
//	  else: try each clause for g'.name/arity in insertion order
func resolveInto(ctx context.Context, goals []Compound, sub Substitution, depth int, rc *ResolveContext, out *Stream, counts bool) {
	if ctx.Err() != nil {
		return
	}
	if len(goals) == 0 {
		if counts {
			if !rc.reserveSolution() {
				return
			}
		}
		out.put(ctx, Result{Sub: sub})
		if counts {
			rc.cancelIfCapReached()
		}
		return
	}
	if depth > rc.MaxDepth {
		return
	}

	g, rest := goals[0], goals[1:]
	gw := walkArgs(g, sub)

	if rc.tracer != nil {
		rc.tracer.Call(gw, depth)
	}

	if b, ok := rc.registry.Lookup(gw.Name); ok {
		resolveBuiltin(ctx, b, gw, rest, sub, depth, rc, out, counts)
		return
	}
	resolveClauses(ctx, gw, rest, sub, depth, rc, out, counts)
}

func resolveBuiltin(ctx context.Context, b Builtin, gw Compound, rest []Compound, sub Substitution, depth int, rc *ResolveContext, out *Stream, counts bool) {
	inv := Invocation{Goal: gw, Sub: sub, Depth: depth, Resolve: rc.resolveCallback()}
	bstream := b.Invoke(ctx, inv)

	successes := 0
	for {
		r, ok := bstream.Next(ctx)
		if !ok {
			break
		}
		if r.Err != nil {
			if rc.logger != nil {
				rc.logger.Warn("built-in handler failed", "goal", gw.Name, "error", r.Err)
			}
			out.put(ctx, Result{Err: &BuiltinError{Goal: gw, Cause: r.Err}})
			rc.cancel()
			return
		}
		traceYield(rc, gw, r.Sub, &successes)
		inner := solve(ctx, rest, r.Sub, depth, rc, counts)
		if forward(ctx, inner, out, rc.capReached) {
			return
		}
	}
	if successes == 0 {
		traceFail(rc, gw)
	}
}

func resolveClauses(ctx context.Context, gw Compound, rest []Compound, sub Substitution, depth int, rc *ResolveContext, out *Stream, counts bool) {
	clauses := rc.kb.ClausesFor(gw.Name, len(gw.Args))

	successes := 0
	for _, clause := range clauses {
		if ctx.Err() != nil {
			return
		}
		rc.maybeYield()

		headR, bodyR := renameClause(clause, rc)
		sub1, ok := rc.unify(gw, headR, sub)
		if !ok {
			continue
		}
		traceYield(rc, gw, sub1, &successes)

		newGoals := make([]Compound, 0, len(bodyR)+len(rest))
		newGoals = append(newGoals, bodyR...)
		newGoals = append(newGoals, rest...)

		inner := solve(ctx, newGoals, sub1, depth+1, rc, counts)
		if forward(ctx, inner, out, rc.capReached) {
			return
		}
	}
	if successes == 0 {
		traceFail(rc, gw)
	}
}

// renameClause performs per-use fresh renaming: every variable in the
// clause's head and body is replaced by a freshly generated variable,
// consistently within this one use, so a recursive clause never collides
// with an earlier activation of itself. The rename walks head and body
// together against one mapping so variables shared between them stay
// shared.
func renameClause(c Clause, rc *ResolveContext) (Compound, []Compound) {
	mapping := make(map[Var]Var)
	head := renameTerm(c.Head, mapping, rc).(Compound)
	body := make([]Compound, len(c.Body))
	for i, g := range c.Body {
		body[i] = renameTerm(g, mapping, rc).(Compound)
	}
	return head, body
}

func renameTerm(t Term, mapping map[Var]Var, rc *ResolveContext) Term {
	switch v := t.(type) {
	case Var:
		if fresh, ok := mapping[v]; ok {
			return fresh
		}
		fresh := Var(string(v) + "#" + strconv.FormatInt(rc.nextFresh(), 10))
		mapping[v] = fresh
		return fresh
	case Compound:
		args := make([]Term, len(v.Args))
		for i, a := range v.Args {
			args[i] = renameTerm(a, mapping, rc)
		}
		return Compound{Name: v.Name, Args: args}
	default:
		return t
	}
}

// traceYield reports the first extension of gw as EXIT and every
// subsequent one as REDO, matching the classic box-model tracer
// vocabulary: EXIT/REDO are per-goal events, independent of whether the
// rest of the conjunction it's embedded in ultimately succeeds.
func traceYield(rc *ResolveContext, gw Compound, sub Substitution, successes *int) {
	if rc.tracer == nil {
		*successes++
		return
	}
	if *successes == 0 {
		rc.tracer.Exit(gw, sub)
	} else {
		rc.tracer.Redo(gw)
	}
	*successes++
}

func traceFail(rc *ResolveContext, gw Compound) {
	if rc.tracer != nil {
		rc.tracer.Fail(gw)
	}
}
