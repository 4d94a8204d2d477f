// Package metrics records notifier counters in a prometheus registry and
// exports them in the node-exporter textfile format.
//
// Each CLI invocation is a new process, so Flush merges this run's counts
// into the totals already in the textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

const namespace = "agent_dispatch"

// Fully qualified family names as they appear in the textfile.
const (
	runsFamily       = namespace + "_notify_runs_total"
	deliveriesFamily = namespace + "_deliveries_total"
)

// counters is one set of the notifier counter vectors.
type counters struct {
	runs       *prometheus.CounterVec
	deliveries *prometheus.CounterVec
}

func newCounters(reg *prometheus.Registry) counters {
	c := counters{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notify_runs_total",
				Help:      "Number of notifier runs by final stage.",
			}, []string{"outcome"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_total",
				Help:      "Number of delivery attempts by channel and result.",
			}, []string{"channel", "result"},
		),
	}
	reg.MustRegister(c.runs, c.deliveries)
	return c
}

// add adds every sample of families to the matching vector.
func (c counters) add(families []*dto.MetricFamily) {
	for _, mf := range families {
		var vec *prometheus.CounterVec
		switch mf.GetName() {
		case runsFamily:
			vec = c.runs
		case deliveriesFamily:
			vec = c.deliveries
		default:
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := prometheus.Labels{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			counter, err := vec.GetMetricWith(labels)
			if err != nil {
				// Label set from another version of the tool
				continue
			}
			if v := m.GetCounter().GetValue(); v > 0 {
				counter.Add(v)
			}
		}
	}
}

// Recorder implements domain.Metrics.
// Fields are ordered to minimize memory padding.
type Recorder struct {
	registry *prometheus.Registry
	counters
	textfile string
}

// Ensure Recorder implements domain.Metrics interface.
var _ domain.Metrics = (*Recorder)(nil)

// New creates a recorder with its own registry.
// textfile is where Flush writes; empty disables export.
func New(textfile string) *Recorder {
	reg := prometheus.NewRegistry()
	return &Recorder{
		registry: reg,
		counters: newCounters(reg),
		textfile: textfile,
	}
}

// Registry exposes the registry holding this process's counts.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun counts one notifier run.
func (r *Recorder) ObserveRun(outcome string) {
	r.runs.WithLabelValues(outcome).Inc()
}

// ObserveDelivery counts one delivery attempt.
func (r *Recorder) ObserveDelivery(channel, result string) {
	r.deliveries.WithLabelValues(channel, result).Inc()
}

// Flush adds this process's counts to the totals in the textfile and
// rewrites it. Concurrent flushes are serialized with a lock file beside
// the textfile. An unparsable textfile is replaced.
func (r *Recorder) Flush() error {
	if r.textfile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.textfile), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	unlock, err := lock(r.textfile + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	current, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	out := prometheus.NewRegistry()
	totals := newCounters(out)
	totals.add(readTextfile(r.textfile))
	totals.add(current)

	if err := prometheus.WriteToTextfile(r.textfile, out); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// readTextfile returns the families in path, or nil when the file is
// missing or unparsable.
func readTextfile(path string) []*dto.MetricFamily {
	// #nosec G304 - path comes from configuration
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	parser := expfmt.NewTextParser(model.UTF8Validation)
	parsed, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return nil
	}
	families := make([]*dto.MetricFamily, 0, len(parsed))
	for _, mf := range parsed {
		families = append(families, mf)
	}
	return families
}

func lock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open metrics lock: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("acquire metrics lock: %w", err)
	}
	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}
