package system

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/app"
	"github.com/vk/choreo/internal/testutil"
)

const fanOutDoc = `
name: fan
dataOuts:
  - { name: joined, type: string, source: join/out }
workflowBody:
  - parallel:
      name: par
      parallelBody:
        - section:
            - function:
                name: a
                dataOuts: [{ name: out, type: string }]
                properties: [{ name: resource, value: "fn:a" }]
        - section:
            - function:
                name: b
                dataOuts: [{ name: out, type: string }]
                properties: [{ name: resource, value: "fn:b" }]
        - section:
            - function:
                name: c
                dataOuts: [{ name: out, type: string }]
                properties: [{ name: resource, value: "fn:c" }]
      dataOuts:
        - { name: abc, type: collection, source: "a/out,b/out,c/out", constraints: [{ name: aggregation, value: "+" }] }
  - function:
      name: join
      dataIns: [{ name: parts, type: collection, source: par/abc }]
      dataOuts: [{ name: out, type: string }]
      properties: [{ name: resource, value: "fn:join" }]
`

// Test for: parallel sections overlap and the join waits for all of them.
func TestConcurrency_FanInSynchronization(t *testing.T) {
	// --- Arrange ---
	inv := testutil.NewFakeInvoker().
		WithDelay(50*time.Millisecond).
		Respond("fn:a", `{"out": "a"}`).
		Respond("fn:b", `{"out": "b"}`).
		Respond("fn:c", `{"out": "c"}`).
		Handle("fn:join", func(in map[string]any) (map[string]any, error) {
			s := ""
			for _, p := range in["parts"].([]any) {
				s += p.(string)
			}
			return map[string]any{"out": s}, nil
		})

	// --- Act ---
	out, err := runWorkflow(t, fanOutDoc, "", "", app.WithInvoker(inv))

	// --- Assert ---
	require.NoError(t, err)
	assert.JSONEq(t, `{"joined": "abc"}`, out)

	join := inv.CallsTo("fn:join")
	require.Len(t, join, 1)
	var lastEnd, firstStart time.Time
	for _, r := range []string{"fn:a", "fn:b", "fn:c"} {
		calls := inv.CallsTo(r)
		require.Len(t, calls, 1, "resource %s", r)
		if calls[0].End.After(lastEnd) {
			lastEnd = calls[0].End
		}
		if firstStart.IsZero() || calls[0].Start.Before(firstStart) {
			firstStart = calls[0].Start
		}
	}
	assert.False(t, join[0].Start.Before(lastEnd), "join started before every section finished")
	assert.Less(t, lastEnd.Sub(firstStart), 140*time.Millisecond, "sections did not overlap")
}

// Test for: the engine branch limit caps concurrent parallel-for branches.
func TestConcurrency_BranchLimit(t *testing.T) {
	// --- Arrange ---
	doc := `
name: limited
dataOuts:
  - { name: all, type: collection, source: loop/all }
workflowBody:
  - parallelFor:
      name: loop
      loopCounter: { name: i, type: number, from: 0, to: 8 }
      loopBody:
        - function:
            name: work
            dataIns: [{ name: i, type: number, source: loop/i }]
            dataOuts: [{ name: done, type: number }]
            properties: [{ name: resource, value: "fn:work" }]
      dataOuts:
        - { name: all, type: collection, source: work/done }
`
	engine := `
engine {
  max_concurrent_branches = 2
}
`
	var active, peak atomic.Int32
	inv := testutil.NewFakeInvoker().Handle("fn:work", func(in map[string]any) (map[string]any, error) {
		now := active.Add(1)
		for {
			p := peak.Load()
			if now <= p || peak.CompareAndSwap(p, now) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return map[string]any{"done": in["i"]}, nil
	})

	// --- Act ---
	out, err := runWorkflow(t, doc, engine, "", app.WithInvoker(inv))

	// --- Assert ---
	require.NoError(t, err)
	assert.JSONEq(t, `{"all": [0, 1, 2, 3, 4, 5, 6, 7]}`, out)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Len(t, inv.CallsTo("fn:work"), 8)
}
