// Package socketio invokes functions through a socket.io gateway.
//
// One persistent connection is shared by all invocations. Each invocation
// emits the invoke event with a payload carrying a fresh correlation id and
// waits for the result event echoing that id:
//
//	-> invoke {"id": "<uuid>", "resource": "<name>", "input": {...}}
//	<- result {"id": "<uuid>", "body": <response>, "error": "<message>"}
//
// Resource ids are written "sio://<name>" or "socketio:<name>".
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/choreo/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Resource id prefixes routed to this invoker.
const (
	SchemeURL    = "sio://"
	SchemePrefix = "socketio:"
)

// ErrClosed is returned for invocations after Close.
var ErrClosed = errors.New("socket.io invoker closed")

// Options configures an Invoker.
type Options struct {
	URL                string
	Namespace          string
	InvokeEvent        string
	ResultEvent        string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

func (o Options) normalized() Options {
	if o.Namespace == "" {
		o.Namespace = "/"
	}
	if o.InvokeEvent == "" {
		o.InvokeEvent = "invoke"
	}
	if o.ResultEvent == "" {
		o.ResultEvent = "result"
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

type reply struct {
	body string
	err  error
}

// Invoker correlates invoke/result events over one socket.io connection.
type Invoker struct {
	opts Options

	mu      sync.Mutex
	pending map[string]chan reply
	closed  bool
	conn    *conn

	// dialMu serializes dials so concurrent first invocations share one
	// connection.
	dialMu sync.Mutex
	dial   func(ctx context.Context) (*conn, error)
}

// conn is an established gateway connection.
type conn struct {
	emit       func(event string, payload map[string]any)
	disconnect func()
}

// New creates an Invoker. The connection is opened by the first Invoke.
func New(opts Options) *Invoker {
	i := &Invoker{
		opts:    opts.normalized(),
		pending: make(map[string]chan reply),
	}
	i.dial = i.dialGateway
	return i
}

// ResourceName strips the socket.io scheme from a resource id.
func ResourceName(resourceID string) string {
	lower := strings.ToLower(resourceID)
	switch {
	case strings.HasPrefix(lower, SchemeURL):
		return resourceID[len(SchemeURL):]
	case strings.HasPrefix(lower, SchemePrefix):
		return resourceID[len(SchemePrefix):]
	default:
		return resourceID
	}
}

// Invoke emits one invocation and blocks until its result, the timeout or
// ctx cancellation.
func (i *Invoker) Invoke(ctx context.Context, resourceID string, input map[string]any) (string, int64, error) {
	logger := ctxlog.FromContext(ctx).With("invoker", "socketio", "resource", resourceID)
	c, err := i.connect(ctx)
	if err != nil {
		return "", 0, err
	}

	id := uuid.NewString()
	ch := make(chan reply, 1)
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return "", 0, ErrClosed
	}
	i.pending[id] = ch
	i.mu.Unlock()
	defer i.forget(id)

	if input == nil {
		input = map[string]any{}
	}
	start := time.Now()
	logger.Debug("Emitting invocation.", "event", i.opts.InvokeEvent, "id", id)
	c.emit(i.opts.InvokeEvent, map[string]any{
		"id":       id,
		"resource": ResourceName(resourceID),
		"input":    input,
	})

	timer := time.NewTimer(i.opts.Timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		rtt := time.Since(start).Milliseconds()
		logger.Debug("Received invocation result.", "id", id, "rtt_ms", rtt)
		return r.body, rtt, r.err
	case <-timer.C:
		return "", time.Since(start).Milliseconds(), fmt.Errorf("timed out after %s waiting for %q result of %s", i.opts.Timeout, i.opts.ResultEvent, id)
	case <-ctx.Done():
		return "", time.Since(start).Milliseconds(), ctx.Err()
	}
}

func (i *Invoker) forget(id string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.pending, id)
}

// deliver routes one result event to the invocation waiting for it. Results
// nobody waits for are dropped.
func (i *Invoker) deliver(data ...any) bool {
	if len(data) == 0 {
		return false
	}
	msg, ok := data[0].(map[string]any)
	if !ok {
		return false
	}
	id, _ := msg["id"].(string)

	i.mu.Lock()
	ch, waiting := i.pending[id]
	i.mu.Unlock()
	if !waiting {
		return false
	}

	var r reply
	if e, ok := msg["error"].(string); ok && e != "" {
		r.err = fmt.Errorf("gateway error: %s", e)
	}
	switch b := msg["body"].(type) {
	case nil:
	case string:
		r.body = b
	default:
		raw, err := json.Marshal(b)
		if err != nil && r.err == nil {
			r.err = fmt.Errorf("failed to encode result body: %w", err)
		}
		r.body = string(raw)
	}

	select {
	case ch <- r:
		return true
	default:
		return false
	}
}

// connect returns the shared connection, dialing it if none is
// established yet. A failed dial is not kept; the next call dials again.
func (i *Invoker) connect(ctx context.Context) (*conn, error) {
	if c, err := i.current(); c != nil || err != nil {
		return c, err
	}

	i.dialMu.Lock()
	defer i.dialMu.Unlock()
	if c, err := i.current(); c != nil || err != nil {
		return c, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("socket.io connection not attempted: %w", err)
	}

	c, err := i.dial(ctx)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		if c.disconnect != nil {
			c.disconnect()
		}
		return nil, ErrClosed
	}
	i.conn = c
	i.mu.Unlock()
	return c, nil
}

func (i *Invoker) current() (*conn, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, ErrClosed
	}
	return i.conn, nil
}

func (i *Invoker) dialGateway(ctx context.Context) (*conn, error) {
	logger := ctxlog.FromContext(ctx).With("invoker", "socketio", "url", i.opts.URL)
	logger.Info("Connecting to socket.io gateway...")

	parsedURL, err := url.Parse(i.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if i.opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(i.opts.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})
	io.On(types.EventName(i.opts.ResultEvent), func(data ...any) {
		if !i.deliver(data...) {
			logger.Debug("Dropped uncorrelated result.")
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(i.opts.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", i.opts.Timeout)
	}

	return &conn{
		emit: func(event string, payload map[string]any) {
			io.Emit(event, payload)
		},
		disconnect: func() {
			io.Disconnect()
		},
	}, nil
}

// Close disconnects and fails every pending invocation.
func (i *Invoker) Close() {
	i.mu.Lock()
	i.closed = true
	for id, ch := range i.pending {
		select {
		case ch <- reply{err: ErrClosed}:
		default:
		}
		delete(i.pending, id)
	}
	c := i.conn
	i.conn = nil
	i.mu.Unlock()

	if c != nil && c.disconnect != nil {
		c.disconnect()
	}
}
