package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New("")

	r.ObserveRun("end")
	r.ObserveRun("end")
	r.ObserveRun("skipped")
	r.ObserveDelivery("primary", "sent")
	r.ObserveDelivery("dm", "failed")

	assert.InDelta(t, 2, testutil.ToFloat64(r.runs.WithLabelValues("end")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.runs.WithLabelValues("skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.deliveries.WithLabelValues("primary", "sent")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.deliveries.WithLabelValues("dm", "failed")), 0)
}

func TestRecorder_Flush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "agent_dispatch.prom")
	r := New(path)
	r.ObserveRun("end")

	require.NoError(t, r.Flush())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `agent_dispatch_notify_runs_total{outcome="end"} 1`)
}

func TestRecorder_Flush_Disabled(t *testing.T) {
	r := New("")
	r.ObserveRun("end")
	assert.NoError(t, r.Flush())
}

func TestRecorder_Flush_AccumulatesAcrossProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_dispatch.prom")

	// Each recorder stands in for one CLI invocation.
	first := New(path)
	first.ObserveRun("end")
	first.ObserveDelivery("primary", "sent")
	require.NoError(t, first.Flush())

	second := New(path)
	second.ObserveRun("end")
	second.ObserveRun("skipped")
	second.ObserveDelivery("primary", "sent")
	second.ObserveDelivery("group", "failed")
	require.NoError(t, second.Flush())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, `agent_dispatch_notify_runs_total{outcome="end"} 2`)
	assert.Contains(t, text, `agent_dispatch_notify_runs_total{outcome="skipped"} 1`)
	assert.Contains(t, text, `agent_dispatch_deliveries_total{channel="primary",result="sent"} 2`)
	assert.Contains(t, text, `agent_dispatch_deliveries_total{channel="group",result="failed"} 1`)

	// In-process counts are unaffected by the merge
	assert.InDelta(t, 1, testutil.ToFloat64(second.runs.WithLabelValues("end")), 0)
}

func TestRecorder_Flush_ReplacesCorruptTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_dispatch.prom")
	require.NoError(t, os.WriteFile(path, []byte("not { a metric\n"), 0o600))

	r := New(path)
	r.ObserveRun("end")
	require.NoError(t, r.Flush())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `agent_dispatch_notify_runs_total{outcome="end"} 1`)
	assert.NotContains(t, string(content), "not {")
}

func TestRecorder_Flush_IgnoresForeignFamilies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_dispatch.prom")
	seed := "# TYPE other_total counter\nother_total 5\n" +
		"# TYPE agent_dispatch_notify_runs_total counter\n" +
		"agent_dispatch_notify_runs_total{outcome=\"end\"} 4\n"
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	r := New(path)
	r.ObserveRun("end")
	require.NoError(t, r.Flush())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `agent_dispatch_notify_runs_total{outcome="end"} 5`)
	assert.NotContains(t, string(content), "other_total")
}
