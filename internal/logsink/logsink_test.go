package logsink_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/ctxlog"
	. "github.com/vk/choreo/internal/logsink"
	"github.com/vk/choreo/internal/testutil"
)

func sampleEvent(node string, seq int64) Event {
	start := time.Unix(1700000000, 0)
	return Event{
		ExecutionID: "exec-1",
		Workflow:    "wf",
		Node:        node,
		Type:        "adder",
		Resource:    "arn:aws:lambda:eu-central-1:1:function:" + node,
		Provider:    "AWS",
		Region:      "eu-central-1",
		Result:      `{"sum":3}`,
		Start:       start,
		End:         start.Add(120 * time.Millisecond),
		RTTMillis:   118,
		Success:     true,
		Memory:      256,
		LoopCounter: -1,
		Sequence:    seq,
	}
}

func TestSQLite_RecordAndList(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer s.Close()

	first, second := sampleEvent("f1", 1), sampleEvent("f2", 2)
	second.Success = false
	second.LoopCounter = 3
	other := sampleEvent("f3", 3)
	other.ExecutionID = "exec-2"

	for _, ev := range []Event{first, second, other} {
		require.NoError(t, s.Record(ctx, ev))
	}

	got, err := s.List(ctx, "exec-1")
	require.NoError(t, err)
	if diff := cmp.Diff([]Event{first, second}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 120*time.Millisecond, got[0].Duration())
}

func TestSQLite_ReopenKeepsEvents(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	path := filepath.Join(t.TempDir(), "events.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, sampleEvent("f1", 1)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.List(ctx, "exec-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMulti_JoinsErrors(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	rec := &testutil.RecordingSink{}
	err := Multi{rec, testutil.FailingSink{}, Slog{}}.Record(ctx, sampleEvent("f", 1))
	assert.ErrorContains(t, err, "sink unavailable")
	assert.Len(t, rec.Events(), 1, "a failing sink does not stop the others")
}

func TestSlog_LogsEvent(t *testing.T) {
	ctx, logs := testutil.NewContext(t)
	require.NoError(t, Slog{}.Record(ctx, sampleEvent("f1", 1)))
	assert.Contains(t, logs.String(), "Invocation recorded")
	assert.Contains(t, logs.String(), "region=eu-central-1")
}

// gate blocks every Record until released.
type gate struct {
	release chan struct{}
	mu      sync.Mutex
	events  []Event
}

func (g *gate) Record(_ context.Context, ev Event) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
	return nil
}

func TestAsync_DrainsOnClose(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	rec := &testutil.RecordingSink{}
	a := NewAsync(rec, 8)
	for i := range 5 {
		require.NoError(t, a.Record(ctx, sampleEvent("f", int64(i))))
	}
	require.NoError(t, a.Close())
	assert.Len(t, rec.Events(), 5)
	assert.ErrorIs(t, a.Record(ctx, sampleEvent("late", 9)), ErrClosed)
}

func TestAsync_DropsWhenFull(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	g := &gate{release: make(chan struct{})}
	a := NewAsync(g, 1)

	// The writer holds at most one event and the buffer one more.
	var full int
	for i := range 4 {
		if err := a.Record(ctx, sampleEvent("f", int64(i))); errors.Is(err, ErrBufferFull) {
			full++
		}
	}
	close(g.release)
	require.NoError(t, a.Close())

	assert.GreaterOrEqual(t, full, 2)
	assert.EqualValues(t, full, a.Dropped())
	assert.Len(t, g.events, 4-full)
}

func TestAsync_IgnoresCallerCancellation(t *testing.T) {
	ctx, logs := testutil.NewContext(t)
	ctx, cancel := context.WithCancel(ctx)
	a := NewAsync(ctxCheck{}, 4)

	require.NoError(t, a.Record(ctx, sampleEvent("f", 1)))
	cancel()
	require.NoError(t, a.Close())
	assert.NotContains(t, logs.String(), "Log sink failed")
}

// ctxCheck fails when the context it receives is cancelled.
type ctxCheck struct{}

func (ctxCheck) Record(ctx context.Context, _ Event) error {
	ctxlog.FromContext(ctx).Debug("Checked context.")
	return ctx.Err()
}
