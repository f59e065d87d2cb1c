// Package metrics records run results as Prometheus metrics and pushes them
// to a Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/sofmeright/nightlyfreight/src/build"
	"github.com/sofmeright/nightlyfreight/src/pipeline"
	"github.com/sofmeright/nightlyfreight/src/publish"
)

const namespace = "nightlyfreight"

// Recorder is a pipeline.Observer backed by its own registry.
type Recorder struct {
	pipeline.NopObserver

	reg         *prometheus.Registry
	resolved    *prometheus.GaugeVec
	rejected    *prometheus.CounterVec
	builds      *prometheus.CounterVec
	buildTime   *prometheus.HistogramVec
	pushes      *prometheus.CounterVec
	runDuration prometheus.Gauge
	lastSuccess prometheus.Gauge

	mu     sync.Mutex
	result error
}

// NewRecorder registers all collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		resolved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resolved_targets",
			Help:      "Build targets resolved per channel in the last run.",
		}, []string{"channel"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_entries_total",
			Help:      "Listing entries skipped as malformed.",
		}, []string{"channel"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Image builds by channel and status.",
		}, []string{"channel", "status"}),
		buildTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Image build duration.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 10),
		}, []string{"channel"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Registry pushes by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully successful run.",
		}),
	}
	r.reg.MustRegister(r.resolved, r.rejected, r.builds, r.buildTime, r.pushes, r.runDuration, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) Resolved(channel string, targets []build.Target, rejected int) {
	r.resolved.WithLabelValues(channel).Set(float64(len(targets)))
	r.rejected.WithLabelValues(channel).Add(float64(rejected))
}

func (r *Recorder) BuildFinished(t build.Target, d time.Duration, err error) {
	r.builds.WithLabelValues(t.Channel, status(err)).Inc()
	r.buildTime.WithLabelValues(t.Channel).Observe(d.Seconds())
}

func (r *Recorder) Published(_ publish.Outcome, err error) {
	r.pushes.WithLabelValues(status(err)).Inc()
}

func (r *Recorder) Finished(rep *pipeline.Report, err error) {
	if rep != nil {
		r.runDuration.Set(rep.Duration.Seconds())
	}
	if err == nil {
		r.lastSuccess.SetToCurrentTime()
	}
	r.mu.Lock()
	r.result = err
	r.mu.Unlock()
}

// Push sends the collected metrics to the gateway under job. A failed run
// adds rather than replaces, so last_success_timestamp_seconds from the
// previous good run survives.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	r.mu.Lock()
	failed := r.result != nil
	r.mu.Unlock()

	p := push.New(url, job)
	var err error
	if failed {
		err = p.Collector(r.builds).Collector(r.pushes).Collector(r.runDuration).AddContext(ctx)
	} else {
		err = p.Gatherer(r.reg).PushContext(ctx)
	}
	if err != nil {
		return fmt.Errorf("metrics: push to %s: %w", url, err)
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
