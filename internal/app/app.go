package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/choreo/internal/config"
	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/invoker"
	"github.com/vk/choreo/internal/logsink"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	engine   *config.Config
	invoker  invoker.Invoker
	resolver *invoker.StaticResolver
	sink     logsink.Sink
	closers  []func() error

	httpServer *http.Server
}

// Option customizes an App at construction.
type Option func(*App)

// WithInvoker replaces the transports built from the engine configuration.
// Retries configured in the engine configuration still apply.
func WithInvoker(inv invoker.Invoker) Option {
	return func(a *App) { a.invoker = inv }
}

// WithSink adds a sink of invocation events next to the configured ones.
func WithSink(s logsink.Sink) Option {
	return func(a *App) { a.sink = s }
}

// NewApp is the constructor for the main application. Results are written
// to outW and logs to logW.
func NewApp(outW, logW io.Writer, appConfig *Config, opts ...Option) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	engineCfg, err := config.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Engine configuration loaded.", "resources", len(engineCfg.Resources))

	a := &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		engine:   engineCfg,
		resolver: invoker.NewStaticResolver(resourceTable(engineCfg)),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.invoker == nil {
		a.invoker = a.buildRouter()
	}
	if engineCfg.Retry != nil {
		a.invoker = invoker.NewRetry(a.invoker, invoker.RetryPolicy{
			MaxRetries: engineCfg.Retry.MaxRetries,
			BaseDelay:  engineCfg.Retry.BaseDelay,
			MaxDelay:   engineCfg.Retry.MaxDelay,
			Jitter:     engineCfg.Retry.Jitter,
		})
		logger.Debug("Invocation retries enabled.", "max_retries", engineCfg.Retry.MaxRetries)
	}

	if err := a.buildSinks(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// EngineConfig returns the loaded engine configuration. This is primarily for testing.
func (a *App) EngineConfig() *config.Config {
	return a.engine
}

// Close releases invokers and flushes sinks.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func resourceTable(cfg *config.Config) map[string]invoker.Resource {
	out := make(map[string]invoker.Resource, len(cfg.Resources))
	for addr, r := range cfg.Resources {
		out[addr] = invoker.Resource{ID: r.ID, Memory: r.Memory}
	}
	return out
}
