package socketio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/testutil"
)

// loopback wires an Invoker to an in-process gateway that answers every
// invoke event through respond.
func loopback(t *testing.T, opts Options, respond func(payload map[string]any) map[string]any) *Invoker {
	t.Helper()
	inv := New(opts)
	var mu sync.Mutex
	emit := func(event string, payload map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, inv.opts.InvokeEvent, event)
		if msg := respond(payload); msg != nil {
			go inv.deliver(msg)
		}
	}
	inv.dial = func(context.Context) (*conn, error) {
		return &conn{emit: emit}, nil
	}
	return inv
}

func TestInvoke_CorrelatesResults(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	inv := loopback(t, Options{}, func(p map[string]any) map[string]any {
		in := p["input"].(map[string]any)
		return map[string]any{"id": p["id"], "body": map[string]any{"echo": in["x"], "fn": p["resource"]}}
	})

	var wg sync.WaitGroup
	for _, x := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _, err := inv.Invoke(ctx, "sio://echo", map[string]any{"x": x})
			assert.NoError(t, err)
			assert.JSONEq(t, `{"echo":"`+x+`","fn":"echo"}`, body)
		}()
	}
	wg.Wait()
	assert.Empty(t, inv.pending)
}

func TestInvoke_CorrelationIDIsUUID(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	var seen string
	inv := loopback(t, Options{}, func(p map[string]any) map[string]any {
		seen = p["id"].(string)
		return map[string]any{"id": seen, "body": "{}"}
	})

	_, _, err := inv.Invoke(ctx, "socketio:f", nil)
	require.NoError(t, err)
	_, err = uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestInvoke_GatewayError(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	inv := loopback(t, Options{}, func(p map[string]any) map[string]any {
		return map[string]any{"id": p["id"], "error": "no such function"}
	})

	_, _, err := inv.Invoke(ctx, "sio://missing", nil)
	assert.ErrorContains(t, err, "no such function")
}

func TestInvoke_Timeout(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	inv := loopback(t, Options{Timeout: 20 * time.Millisecond}, func(map[string]any) map[string]any {
		return nil
	})

	_, _, err := inv.Invoke(ctx, "sio://slow", nil)
	assert.ErrorContains(t, err, "timed out")
	assert.Empty(t, inv.pending)
}

func TestInvoke_Cancelled(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	inv := loopback(t, Options{}, func(map[string]any) map[string]any { return nil })

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err := inv.Invoke(ctx, "sio://f", nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClose_FailsPending(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	emitted := make(chan struct{})
	inv := loopback(t, Options{}, func(map[string]any) map[string]any {
		close(emitted)
		return nil
	})

	errc := make(chan error, 1)
	go func() {
		_, _, err := inv.Invoke(ctx, "sio://f", nil)
		errc <- err
	}()
	<-emitted
	inv.Close()
	assert.ErrorIs(t, <-errc, ErrClosed)

	_, _, err := inv.Invoke(ctx, "sio://f", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConnect_RetriesAfterFailedDial(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	inv := loopback(t, Options{}, func(p map[string]any) map[string]any {
		return map[string]any{"id": p["id"], "body": "ok"}
	})
	loop := inv.dial
	var (
		mu    sync.Mutex
		dials int
	)
	inv.dial = func(ctx context.Context) (*conn, error) {
		mu.Lock()
		dials++
		mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return loop(ctx)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err := inv.Invoke(cancelled, "sio://f", nil)
	require.ErrorIs(t, err, context.Canceled)

	for range 2 {
		body, _, err := inv.Invoke(ctx, "sio://f", nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", body)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, dials, "a cancelled context must not dial and a good connection is reused")
}

func TestConnect_FailedDialIsNotSticky(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	inv := loopback(t, Options{}, func(p map[string]any) map[string]any {
		return map[string]any{"id": p["id"], "body": "ok"}
	})
	loop := inv.dial
	dials := 0
	inv.dial = func(ctx context.Context) (*conn, error) {
		dials++
		if dials == 1 {
			return nil, errors.New("gateway unreachable")
		}
		return loop(ctx)
	}

	_, _, err := inv.Invoke(ctx, "sio://f", nil)
	require.ErrorContains(t, err, "gateway unreachable")

	body, _, err := inv.Invoke(ctx, "sio://f", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, 2, dials)
}

func TestConnect_CloseDuringDial(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	inv := New(Options{})
	disconnected := false
	inv.dial = func(context.Context) (*conn, error) {
		inv.Close()
		return &conn{
			emit:       func(string, map[string]any) {},
			disconnect: func() { disconnected = true },
		}, nil
	}

	_, _, err := inv.Invoke(ctx, "sio://f", nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, disconnected)
}

func TestDeliver_IgnoresUnknown(t *testing.T) {
	inv := New(Options{})
	assert.False(t, inv.deliver())
	assert.False(t, inv.deliver("not a map"))
	assert.False(t, inv.deliver(map[string]any{"id": "nobody"}))
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "f1", ResourceName("sio://f1"))
	assert.Equal(t, "f1", ResourceName("SocketIO:f1"))
	assert.Equal(t, "plain", ResourceName("plain"))
}
