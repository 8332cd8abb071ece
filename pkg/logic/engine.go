package logic

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-set/v3"
)

// Engine is the embedder-facing façade: a knowledge base, a built-in
// registry, and the shared defaults new queries inherit. It is the layer
// an application actually imports.
type Engine struct {
	kb       *KnowledgeBase
	registry *Registry
	cfg      engineConfig
	tracer   Tracer
}

// New builds an Engine with the standard built-in set registered and the
// given Options applied over the default configuration.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := NewRegistry()
	if err := RegisterStandard(reg, cfg.httpClient); err != nil {
		return nil, fmt.Errorf("logic: registering standard built-ins: %w", err)
	}

	var tracer Tracer
	if cfg.trace {
		tracer = NewHCLogTracer(cfg.logger)
	}

	cfg.logger.Debug("engine constructed", "max_depth", cfg.maxDepth, "max_solutions", cfg.maxSolutions, "trace", cfg.trace)

	return &Engine{
		kb:       NewKnowledgeBase(),
		registry: reg,
		cfg:      cfg,
		tracer:   tracer,
	}, nil
}

// AddFact asserts a fact into the engine's knowledge base.
func (e *Engine) AddFact(name string, args ...Term) error {
	if err := e.kb.AddFact(name, args...); err != nil {
		return err
	}
	e.cfg.logger.Debug("fact asserted", "predicate", name, "arity", len(args))
	return nil
}

// AddRule asserts a rule (head :- body...) into the knowledge base.
func (e *Engine) AddRule(head Compound, body ...Compound) error {
	if err := e.kb.AddRule(head, body); err != nil {
		return err
	}
	e.cfg.logger.Debug("rule asserted", "predicate", head.Name, "arity", len(head.Args), "body_len", len(body))
	return nil
}

// ConfigureLogging replaces the engine's logger after construction, and
// rebuilds its Tracer from the new logger if tracing is enabled. This is
// the "reconfigure post-New" counterpart to WithLogger/WithTrace for
// embedders that don't know their desired log sink until after the
// engine already exists (e.g. it depends on a config file the caller
// hasn't parsed yet at New time).
func (e *Engine) ConfigureLogging(logger hclog.Logger) {
	e.cfg.logger = logger
	if e.cfg.trace {
		e.tracer = NewHCLogTracer(logger)
	}
}

// RegisterBuiltin installs a user-supplied built-in, shadowing any
// knowledge-base clauses for the same name. It errors if name collides
// with an already-registered built-in (including a standard one). New
// always registers the standard set and is the only constructor, so a
// standard built-in cannot be replaced.
func (e *Engine) RegisterBuiltin(name string, b Builtin) error {
	return e.registry.Register(name, b)
}

// queryConfig holds the per-query overrides of the engine's defaults.
type queryConfig struct {
	maxDepth     int
	maxSolutions int
}

// QueryOption configures a single Query call, overriding the Engine's
// defaults for that call only.
type QueryOption func(*queryConfig)

// WithQueryMaxDepth overrides MaxDepth for one query.
func WithQueryMaxDepth(n int) QueryOption {
	return func(c *queryConfig) { c.maxDepth = n }
}

// WithQueryMaxSolutions overrides MaxSolutions for one query.
func WithQueryMaxSolutions(n int) QueryOption {
	return func(c *queryConfig) { c.maxSolutions = n }
}

// Bindings is a solution projected down to only the variables present in
// the original query goal — the resolver's fresh-renamed intermediate
// variables never leak out to the caller.
type Bindings map[Var]Term

// ResultStream is the embedder-facing handle on one query's lazy
// solution sequence.
type ResultStream struct {
	stream *Stream
	vars   []Var
	cancel context.CancelFunc
	done   bool
}

// Next blocks for the next solution. ok is false once the stream is
// exhausted (or the context passed to Query is done); err is non-nil
// only when a built-in raised a fatal error.
func (rs *ResultStream) Next(ctx context.Context) (Bindings, error, bool) {
	if rs.done {
		return nil, nil, false
	}
	r, ok := rs.stream.Next(ctx)
	if !ok {
		rs.done = true
		return nil, nil, false
	}
	if r.Err != nil {
		rs.done = true
		return nil, r.Err, false
	}
	b := make(Bindings, len(rs.vars))
	for _, v := range rs.vars {
		b[v] = r.Sub.DeepWalk(v)
	}
	return b, nil, true
}

// Close releases the query's resources. Calling it before the stream is
// exhausted cancels resolution of any remaining alternatives.
func (rs *ResultStream) Close() {
	if !rs.done {
		rs.cancel()
		rs.done = true
	}
}

// Query resolves name(args...) against the knowledge base snapshotted at
// call time: in-flight queries never observe later AddFact/AddRule
// calls.
func (e *Engine) Query(ctx context.Context, name string, args []Term, opts ...QueryOption) (*ResultStream, error) {
	qc := queryConfig{maxDepth: e.cfg.maxDepth, maxSolutions: e.cfg.maxSolutions}
	for _, opt := range opts {
		opt(&qc)
	}

	goal := Compound{Name: name, Args: args}
	qctx, cancel := context.WithCancel(ctx)
	rc := newResolveContext(e.kb.Snapshot(), e.registry, e.tracer, e.cfg.logger, qc.maxDepth, qc.maxSolutions, e.cfg.occursCheck, cancel)
	stream := solve(qctx, []Compound{goal}, EmptySubstitution(), 0, rc, true)

	return &ResultStream{
		stream: stream,
		vars:   queryVars(goal),
		cancel: cancel,
	}, nil
}

// QueryOne returns the first solution only, or ok=false if the query has
// none.
func (e *Engine) QueryOne(ctx context.Context, name string, args []Term, opts ...QueryOption) (Bindings, bool, error) {
	rs, err := e.Query(ctx, name, args, opts...)
	if err != nil {
		return nil, false, err
	}
	defer rs.Close()
	b, err, ok := rs.Next(ctx)
	if err != nil {
		return nil, false, err
	}
	return b, ok, nil
}

// Exists reports whether name(args...) has at least one solution.
func (e *Engine) Exists(ctx context.Context, name string, args []Term, opts ...QueryOption) (bool, error) {
	_, ok, err := e.QueryOne(ctx, name, args, append(opts, WithQueryMaxSolutions(1))...)
	return ok, err
}

// queryVars returns the distinct variables appearing in goal, in first
// occurrence order, using a go-set/v3 Set purely to dedupe membership
// checks cheaply — the order itself is carried by the accompanying
// slice, since Set does not guarantee iteration order.
func queryVars(goal Compound) []Var {
	seen := set.New[Var](len(goal.Args))
	var order []Var
	var walk func(t Term)
	walk = func(t Term) {
		switch v := t.(type) {
		case Var:
			if !seen.Contains(v) {
				seen.Insert(v)
				order = append(order, v)
			}
		case Compound:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	for _, a := range goal.Args {
		walk(a)
	}
	return order
}
