package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestReport_FullSuccess(t *testing.T) {
	r := Report{
		ExitCode:         intPtr(0),
		TaskName:         "calc-cli",
		WorkingDirectory: "/work/calc",
		Duration:         "1m5s",
		TestLines:        []string{"5 passed in 0.12s"},
		Files:            []string{"calc.py", "tests/test_calc.py"},
		OutputTail:       "all done\n",
	}

	msg := r.Full()

	assert.True(t, strings.HasPrefix(msg, ReportHeader))
	assert.Contains(t, msg, "📋 Task: calc-cli")
	assert.Contains(t, msg, "✅ Status: success")
	assert.NotContains(t, msg, "Exit code")
	assert.Contains(t, msg, "📁 Directory: /work/calc")
	assert.Contains(t, msg, "⏱️ Duration: 1m5s")
	assert.Contains(t, msg, "🧪 Tests:\n  5 passed in 0.12s")
	assert.Contains(t, msg, "  tests/test_calc.py")
	assert.Contains(t, msg, "📄 Output (tail):\nall done")
}

func TestReport_FullFailureShowsExitCode(t *testing.T) {
	msg := Report{ExitCode: intPtr(3), TaskName: "x"}.Full()

	assert.Contains(t, msg, "❌ Status: failed")
	assert.Contains(t, msg, "🔢 Exit code: 3")
}

func TestReport_FullOmitsEmptySections(t *testing.T) {
	msg := Report{}.Full()

	assert.Contains(t, msg, "📋 Task: unknown")
	assert.Contains(t, msg, "❔ Status: unknown")
	for _, label := range []string{"Directory", "Duration", "Tests", "Files", "Changed", "Output"} {
		assert.NotContains(t, msg, label)
	}
}

func TestReport_StatusLine(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{"success with duration", Report{ExitCode: intPtr(0), TaskName: "calc", Duration: "2m5s"}, "✅ calc: success [2m5s]"},
		{"failure", Report{ExitCode: intPtr(1), TaskName: "calc"}, "❌ calc: failed (exit 1)"},
		{"unknown", Report{}, "❔ unknown: unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.StatusLine())
		})
	}
}

func TestReport_WakeText(t *testing.T) {
	r := Report{ExitCode: intPtr(0), TaskName: "calc"}
	assert.Equal(t, "agent task done: task=calc status=success recipient=chat:1 ts=T", r.WakeText("chat:1", "T"))
	assert.Equal(t, "agent task done: task=calc status=success ts=T", r.WakeText("", "T"))
}

func TestTailRunes(t *testing.T) {
	assert.Equal(t, "short", TailRunes("short", 4000), "short buffers are unchanged")
	assert.Equal(t, "", TailRunes("abc", 0))
	assert.Equal(t, "cdef", TailRunes("abcdef", 4))
	assert.Equal(t, "界!", TailRunes("世界!", 2), "multi-byte runes stay intact")

	// 9 bytes but only 3 runes: more bytes than the limit, fewer runes
	wide := "✅❌界"
	assert.Greater(t, len(wide), 4)
	assert.Equal(t, wide, TailRunes(wide, 4), "short multi-byte buffers are unchanged")
	assert.Equal(t, wide, TailRunes(wide, 3))
	assert.Equal(t, "❌界", TailRunes(wide, 2))

	once := TailRunes(strings.Repeat("x", 10), 5)
	assert.Equal(t, once, TailRunes(once, 5), "truncation is idempotent")
}
