package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/fsutil"
	"github.com/vk/choreo/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Engine    *engineBlock     `hcl:"engine,block"`
	Invokers  []*invokerBlock  `hcl:"invoker,block"`
	Retry     *retryBlock      `hcl:"retry,block"`
	Resources []*resourceBlock `hcl:"resource,block"`
	LogSinks  []*logSinkBlock  `hcl:"log_sink,block"`
}

type engineBlock struct {
	MaxConcurrentBranches *int `hcl:"max_concurrent_branches,optional"`
	MaxLoopIterations     *int `hcl:"max_loop_iterations,optional"`
}

type invokerBlock struct {
	Type        string            `hcl:"type,label"`
	Timeout     string            `hcl:"timeout,optional"`
	Headers     map[string]string `hcl:"headers,optional"`
	URL         string            `hcl:"url,optional"`
	Namespace   string            `hcl:"namespace,optional"`
	InvokeEvent string            `hcl:"invoke_event,optional"`
	ResultEvent string            `hcl:"result_event,optional"`
}

type retryBlock struct {
	MaxRetries int    `hcl:"max_retries,optional"`
	BaseDelay  string `hcl:"base_delay,optional"`
	MaxDelay   string `hcl:"max_delay,optional"`
	Jitter     bool   `hcl:"jitter,optional"`
}

type resourceBlock struct {
	Address string `hcl:"address,label"`
	ID      string `hcl:"id"`
	Memory  int    `hcl:"memory,optional"`
}

type logSinkBlock struct {
	Type   string `hcl:"type,label"`
	Path   string `hcl:"path,optional"`
	Buffer int    `hcl:"buffer,optional"`
}

// Load parses every .hcl file reachable from paths and merges them into one
// configuration on top of Default(). Later files override earlier ones.
func Load(ctx context.Context, paths ...string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := Default()
	if len(paths) == 0 {
		logger.Debug("No configuration files given, using defaults.")
		return cfg, nil
	}

	files, err := fsutil.ExpandPaths(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext(os.Environ())
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := decodeInto(cfg, hclFile.Body, evalCtx); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
	}

	logger.Debug("Configuration loaded.", "resources", len(cfg.Resources), "log_sinks", len(cfg.LogSinks))
	return cfg, nil
}

// Parse decodes a single configuration document held in memory.
func Parse(src []byte, filename string, environ []string) (*Config, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	cfg := Default()
	if err := decodeInto(cfg, hclFile.Body, newEvalContext(environ)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEvalContext exposes environ ("KEY=value" pairs) as the env object.
func newEvalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": env}}
}

func decodeInto(cfg *Config, body hcl.Body, evalCtx *hcl.EvalContext) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, evalCtx, &root); diags.HasErrors() {
		return diags
	}

	if root.Engine != nil && root.Engine.MaxConcurrentBranches != nil {
		if *root.Engine.MaxConcurrentBranches < 1 {
			return fmt.Errorf("engine: max_concurrent_branches must be at least 1")
		}
		cfg.Engine.MaxConcurrentBranches = *root.Engine.MaxConcurrentBranches
	}
	if root.Engine != nil && root.Engine.MaxLoopIterations != nil {
		if *root.Engine.MaxLoopIterations < 1 {
			return fmt.Errorf("engine: max_loop_iterations must be at least 1")
		}
		cfg.Engine.MaxLoopIterations = *root.Engine.MaxLoopIterations
	}

	for _, inv := range root.Invokers {
		if err := decodeInvoker(cfg, inv); err != nil {
			return fmt.Errorf("invoker %q: %w", inv.Type, err)
		}
	}

	if r := root.Retry; r != nil {
		if r.MaxRetries < 0 {
			return fmt.Errorf("retry: max_retries must not be negative")
		}
		base, err := parseDuration("base_delay", r.BaseDelay, 200*time.Millisecond)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		maxDelay, err := parseDuration("max_delay", r.MaxDelay, 5*time.Second)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		cfg.Retry = &Retry{MaxRetries: r.MaxRetries, BaseDelay: base, MaxDelay: maxDelay, Jitter: r.Jitter}
	}

	for _, res := range root.Resources {
		if res.ID == "" {
			return fmt.Errorf("resource %q: id must not be empty", res.Address)
		}
		key, err := nodeid.ResourceKey(res.Address)
		if err != nil {
			return fmt.Errorf("resource: %w", err)
		}
		cfg.Resources[key] = Resource{ID: res.ID, Memory: res.Memory}
	}

	for _, s := range root.LogSinks {
		switch s.Type {
		case SinkSlog:
		case SinkSQLite:
			if s.Path == "" {
				return fmt.Errorf("log_sink %q: path is required", s.Type)
			}
		default:
			return fmt.Errorf("unknown log_sink type %q", s.Type)
		}
		cfg.LogSinks = append(cfg.LogSinks, LogSink{Type: s.Type, Path: s.Path, Buffer: s.Buffer})
	}
	return nil
}

func decodeInvoker(cfg *Config, inv *invokerBlock) error {
	switch inv.Type {
	case "http":
		timeout, err := parseDuration("timeout", inv.Timeout, 30*time.Second)
		if err != nil {
			return err
		}
		cfg.HTTP = &HTTPInvoker{Timeout: timeout, Headers: inv.Headers}
	case "socketio":
		if inv.URL == "" {
			return fmt.Errorf("url is required")
		}
		timeout, err := parseDuration("timeout", inv.Timeout, 30*time.Second)
		if err != nil {
			return err
		}
		sio := &SocketIOInvoker{
			URL:         inv.URL,
			Namespace:   inv.Namespace,
			InvokeEvent: inv.InvokeEvent,
			ResultEvent: inv.ResultEvent,
			Timeout:     timeout,
		}
		if sio.Namespace == "" {
			sio.Namespace = "/"
		}
		if sio.InvokeEvent == "" {
			sio.InvokeEvent = "invoke"
		}
		if sio.ResultEvent == "" {
			sio.ResultEvent = "result"
		}
		cfg.SocketIO = sio
	default:
		return fmt.Errorf("unknown invoker type")
	}
	return nil
}
