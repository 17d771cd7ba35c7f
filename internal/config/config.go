package config

import (
	"fmt"
	"time"
)

// Config is the decoded engine configuration.
type Config struct {
	Engine    Engine
	HTTP      *HTTPInvoker
	SocketIO  *SocketIOInvoker
	Retry     *Retry
	Resources map[string]Resource
	LogSinks  []LogSink
}

// Engine holds execution limits.
type Engine struct {
	MaxConcurrentBranches int
	MaxLoopIterations     int
}

// HTTPInvoker configures the HTTP function invoker.
type HTTPInvoker struct {
	Timeout time.Duration
	Headers map[string]string
}

// SocketIOInvoker configures the socket.io function invoker.
type SocketIOInvoker struct {
	URL         string
	Namespace   string
	InvokeEvent string
	ResultEvent string
	Timeout     time.Duration
}

// Retry configures invocation retries.
type Retry struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// Resource binds a function address ("pf.f2") to a resource id.
type Resource struct {
	ID     string
	Memory int
}

// LogSink names a sink of invocation events. Path and Buffer are only
// meaningful for the sqlite sink.
type LogSink struct {
	Type   string
	Path   string
	Buffer int
}

// Sink types understood by the application.
const (
	SinkSlog   = "slog"
	SinkSQLite = "sqlite"
)

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine:    Engine{MaxConcurrentBranches: 1000, MaxLoopIterations: 100000},
		HTTP:      &HTTPInvoker{Timeout: 30 * time.Second},
		Resources: map[string]Resource{},
	}
}

func parseDuration(field, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
