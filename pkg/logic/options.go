package logic

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-hclog"
)

// engineConfig is the resolved configuration an Engine is built from. It
// is never exported directly; callers build one through Option values,
// a functional-options constructor rather than a config struct literal.
type engineConfig struct {
	maxDepth     int
	maxSolutions int
	logger       hclog.Logger
	trace        bool
	httpClient   *http.Client
	occursCheck  bool
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		maxDepth:     DefaultMaxDepth,
		maxSolutions: UnboundedSolutions,
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   "hornchain",
			Level:  hclog.Warn,
			Output: os.Stderr,
		}),
	}
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

// WithMaxDepth overrides the default rule-expansion depth bound applied
// to queries that don't set their own.
func WithMaxDepth(n int) Option {
	return func(c *engineConfig) { c.maxDepth = n }
}

// WithMaxSolutions overrides the default solution cap (UnboundedSolutions
// for no cap) applied to queries that don't set their own.
func WithMaxSolutions(n int) Option {
	return func(c *engineConfig) { c.maxSolutions = n }
}

// WithLogger sets the logger the engine and its default tracer use. The
// zero value falls back to an hclog.Logger writing at Warn level to
// stderr when the embedder supplies nothing.
func WithLogger(l hclog.Logger) Option {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTrace enables CALL/EXIT/FAIL/REDO tracing via an hclog-backed
// Tracer at hclog.Trace level on the configured logger.
func WithTrace(enabled bool) Option {
	return func(c *engineConfig) { c.trace = enabled }
}

// WithHTTPClient overrides the *http.Client the http_get_json built-in
// uses. The zero value falls back to github.com/hashicorp/go-cleanhttp's
// non-pooled default client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *engineConfig) { c.httpClient = client }
}

// WithOccursCheck enables occurs-checked unification at clause-head
// resolution. Off by default, since the engine's own clause language and
// standard built-ins cannot synthesize a cyclic binding; this exists for
// embedders adding custom built-ins that might (see UnifyOccursCheck).
func WithOccursCheck(enabled bool) Option {
	return func(c *engineConfig) { c.occursCheck = enabled }
}

// optionsInput is the mapstructure decode target for OptionsFromMap,
// mirroring the Option set above for embedders that configure the engine
// from a parsed config file (YAML/JSON/HCL) rather than Go call sites.
type optionsInput struct {
	MaxDepth     *int   `mapstructure:"max_depth"`
	MaxSolutions *int   `mapstructure:"max_solutions"`
	LogLevel     string `mapstructure:"log_level"`
	Trace        bool   `mapstructure:"trace"`
}

// OptionsFromMap decodes a generic configuration map (as produced by
// parsing YAML/JSON/HCL into map[string]any) into Option values, using
// github.com/go-viper/mapstructure/v2 the way the rest of the pack
// decodes loosely-typed configuration into strict Go structs.
func OptionsFromMap(m map[string]any) ([]Option, error) {
	var in optionsInput
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &in,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("logic: building options decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("logic: decoding engine options: %w", err)
	}

	var opts []Option
	if in.MaxDepth != nil {
		opts = append(opts, WithMaxDepth(*in.MaxDepth))
	}
	if in.MaxSolutions != nil {
		opts = append(opts, WithMaxSolutions(*in.MaxSolutions))
	}
	if in.LogLevel != "" {
		level := hclog.LevelFromString(in.LogLevel)
		if level == hclog.NoLevel {
			return nil, fmt.Errorf("logic: invalid log_level %q", in.LogLevel)
		}
		opts = append(opts, WithLogger(hclog.New(&hclog.LoggerOptions{
			Name:   "hornchain",
			Level:  level,
			Output: os.Stderr,
		})))
	}
	if in.Trace {
		opts = append(opts, WithTrace(true))
	}
	return opts, nil
}
