package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/tidwall/gjson"
)

// RegisterStandard registers the fixed built-in set (eq, neq, gt/gte/
// lt/lte, member, or, http_get_json, unify_json_path) on r. httpClient
// is used by http_get_json; passing nil
// falls back to github.com/hashicorp/go-cleanhttp's non-pooled default
// client: its *http.Transport isn't the process-wide shared one, and it
// has keep-alives and idle connections disabled, so connections are not
// reused across requests.
func RegisterStandard(r *Registry, httpClient *http.Client) error {
	if httpClient == nil {
		httpClient = cleanhttp.DefaultClient()
	}

	builtins := map[string]Builtin{
		"eq":              BuiltinFunc(biEq),
		"neq":             BuiltinFunc(biNeq),
		"gt":              biCompare(func(a, b float64) bool { return a > b }),
		"gte":             biCompare(func(a, b float64) bool { return a >= b }),
		"lt":              biCompare(func(a, b float64) bool { return a < b }),
		"lte":             biCompare(func(a, b float64) bool { return a <= b }),
		"member":          BuiltinFunc(biMember),
		"or":              BuiltinFunc(biOr),
		"http_get_json":   biHTTPGetJSON(httpClient),
		"unify_json_path": BuiltinFunc(biUnifyJSONPath),
	}
	for name, b := range builtins {
		if err := r.Register(name, b); err != nil {
			return err
		}
	}
	return nil
}

// biEq succeeds (yielding sub unchanged or extended) iff the two
// arguments unify under sub.
func biEq(ctx context.Context, inv Invocation) *Stream {
	return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
		if len(inv.Goal.Args) != 2 {
			return
		}
		sub1, ok := Unify(inv.Goal.Args[0], inv.Goal.Args[1], inv.Sub)
		if ok {
			put(sub1)
		}
	})
}

// biNeq succeeds with sub unchanged iff both arguments, after walking,
// are ground and NOT structurally equal. If either is not ground, the
// handler fails silently — a deliberate design choice (no constructive
// disequality).
func biNeq(ctx context.Context, inv Invocation) *Stream {
	return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
		if len(inv.Goal.Args) != 2 {
			return
		}
		a := inv.Sub.DeepWalk(inv.Goal.Args[0])
		b := inv.Sub.DeepWalk(inv.Goal.Args[1])
		if !IsGround(a) || !IsGround(b) {
			return
		}
		if !Equals(a, b) {
			put(inv.Sub)
		}
	})
}

// biCompare builds a numeric comparison built-in (gt, gte, lt, lte) over
// two ground Num arguments; it fails if either argument is non-numeric or
// unbound.
func biCompare(cmp func(a, b float64) bool) BuiltinFunc {
	return func(ctx context.Context, inv Invocation) *Stream {
		return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
			if len(inv.Goal.Args) != 2 {
				return
			}
			a, aok := inv.Sub.DeepWalk(inv.Goal.Args[0]).(Num)
			b, bok := inv.Sub.DeepWalk(inv.Goal.Args[1]).(Num)
			if !aok || !bok {
				return
			}
			if cmp(a.Float64(), b.Float64()) {
				put(inv.Sub)
			}
		})
	}
}

// biMember yields, for each element of the ground second argument (a
// sequence Term), sub extended by unifying that element with the first
// argument.
func biMember(ctx context.Context, inv Invocation) *Stream {
	return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
		if len(inv.Goal.Args) != 2 {
			return
		}
		elems, ok := AsList(inv.Sub.DeepWalk(inv.Goal.Args[1]))
		if !ok {
			return
		}
		for _, elem := range elems {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if sub1, ok := Unify(inv.Goal.Args[0], elem, inv.Sub); ok {
				if !put(sub1) {
					return
				}
			}
		}
	})
}

// biOr implements disjunction: each argument is itself a goal tuple;
// biOr tries each in order through the real resolver (via inv.Resolve),
// yielding every substitution each alternative produces.
func biOr(ctx context.Context, inv Invocation) *Stream {
	return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
		for _, arg := range inv.Goal.Args {
			select {
			case <-ctx.Done():
				return
			default:
			}
			branch := inv.Sub.Walk(arg)
			goal, ok := branch.(Compound)
			if !ok {
				continue
			}
			inner := inv.Resolve(ctx, []Term{goal}, inv.Sub, inv.Depth)
			for {
				r, ok := inner.Next(ctx)
				if !ok {
					break
				}
				if r.Err != nil {
					// A fatal error from a nested alternative is fatal to
					// the whole disjunction; surface it the same way any
					// other built-in error is surfaced, by returning it
					// through put's underlying stream via a panic that
					// RunBuiltin's recover turns back into a Result.Err.
					panic(r.Err)
				}
				if !put(r.Sub) {
					return
				}
			}
		}
	})
}

// biHTTPGetJSON asynchronously fetches the URL in arg[0]; on HTTP 200 it
// parses the body as JSON, unifies arg[1] with the result, and yields; on
// any failure (network error, non-200 status, invalid JSON) it yields
// nothing — a failed fetch is an ordinary built-in failure, not a fatal
// error, since "the URL didn't resolve" is expected traffic for a
// knowledge base built on live data.
func biHTTPGetJSON(client *http.Client) BuiltinFunc {
	return func(ctx context.Context, inv Invocation) *Stream {
		return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
			if len(inv.Goal.Args) != 2 {
				return
			}
			urlTerm := inv.Sub.DeepWalk(inv.Goal.Args[0])
			url, ok := termToString(urlTerm)
			if !ok {
				return
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return
			}
			resp, err := client.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return
			}
			var decoded any
			if err := json.Unmarshal(body, &decoded); err != nil {
				return
			}
			result := jsonToTerm(decoded)
			if sub1, ok := Unify(inv.Goal.Args[1], result, inv.Sub); ok {
				put(sub1)
			}
		})
	}
}

// biUnifyJSONPath extracts the node at the dotted path in arg[1] from the
// JSON value in arg[0] and unifies it with arg[2]. arg[0] may be a Str
// holding raw JSON text (the common case: a fact holding a JSON blob), or
// any other Term, which is first serialized back to JSON (the case where
// arg[0] is the already-unified result of http_get_json).
func biUnifyJSONPath(ctx context.Context, inv Invocation) *Stream {
	return RunBuiltin(ctx, inv.Goal, func(ctx context.Context, put func(Substitution) bool) {
		if len(inv.Goal.Args) != 3 {
			return
		}
		jsonTerm := inv.Sub.DeepWalk(inv.Goal.Args[0])
		pathTerm := inv.Sub.DeepWalk(inv.Goal.Args[1])

		path, ok := termToString(pathTerm)
		if !ok {
			return
		}

		var raw []byte
		if s, ok := jsonTerm.(Str); ok {
			raw = []byte(s)
		} else {
			var err error
			raw, err = termToJSON(jsonTerm)
			if err != nil {
				return
			}
		}

		result := gjson.GetBytes(raw, path)
		if !result.Exists() {
			return
		}
		if sub1, ok := Unify(inv.Goal.Args[2], gjsonToTerm(result), inv.Sub); ok {
			put(sub1)
		}
	})
}

func termToString(t Term) (string, bool) {
	switch v := t.(type) {
	case Str:
		return string(v), true
	case Atom:
		return string(v), true
	default:
		return "", false
	}
}

// jsonToTerm converts a decoded encoding/json value (map[string]any,
// []any, string, float64, bool, nil) into a Term tree: JSON objects
// become a Compound keyed by "$object" with alternating key/value
// arguments, JSON arrays become $list compounds, and scalars become
// their typed Term counterpart.
func jsonToTerm(v any) Term {
	switch vv := v.(type) {
	case nil:
		return Atom("null")
	case bool:
		return Bool(vv)
	case float64:
		return Float(vv)
	case string:
		return Str(vv)
	case []any:
		elems := make([]Term, len(vv))
		for i, e := range vv {
			elems[i] = jsonToTerm(e)
		}
		return NewList(elems...)
	case map[string]any:
		args := make([]Term, 0, len(vv)*2)
		for k, val := range vv {
			args = append(args, Str(k), jsonToTerm(val))
		}
		return Compound{Name: "$object", Args: args}
	default:
		return Atom(fmt.Sprintf("%v", vv))
	}
}

// termToJSON serializes a Term tree back to JSON bytes, the inverse of
// jsonToTerm, for feeding back into gjson's path evaluator.
func termToJSON(t Term) ([]byte, error) {
	return json.Marshal(termToNativeJSON(t))
}

func termToNativeJSON(t Term) any {
	switch v := t.(type) {
	case Compound:
		if elems, ok := AsList(v); ok {
			out := make([]any, len(elems))
			for i, e := range elems {
				out[i] = termToNativeJSON(e)
			}
			return out
		}
		if v.Name == "$object" {
			obj := make(map[string]any, len(v.Args)/2)
			for i := 0; i+1 < len(v.Args); i += 2 {
				key, _ := termToString(v.Args[i])
				obj[key] = termToNativeJSON(v.Args[i+1])
			}
			return obj
		}
		return ToNative(v)
	default:
		return ToNative(v)
	}
}

// gjsonToTerm converts a gjson.Result into a Term tree.
func gjsonToTerm(r gjson.Result) Term {
	switch r.Type {
	case gjson.Null:
		return Atom("null")
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		if strings.Contains(r.Raw, ".") || strings.ContainsAny(r.Raw, "eE") {
			return Float(r.Num)
		}
		return Int(r.Int())
	case gjson.String:
		return Str(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var elems []Term
			r.ForEach(func(_, value gjson.Result) bool {
				elems = append(elems, gjsonToTerm(value))
				return true
			})
			return NewList(elems...)
		}
		args := make([]Term, 0)
		r.ForEach(func(key, value gjson.Result) bool {
			args = append(args, Str(key.Str), gjsonToTerm(value))
			return true
		})
		return Compound{Name: "$object", Args: args}
	default:
		return Atom(r.Raw)
	}
}
