// Package metrics contains support for reporting metrics to an external server,
// currently a Prometheus pushgateway. Because syncs run as transient processes
// we can't wait around for Prometheus to call us, we've got to push to them.
package metrics

import (
	"fmt"
	"os/user"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/thought-machine/blazesync/src/cli"
	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/ide/structure"
)

var log = logging.Log

// defaultTimeout bounds how long a push can take, including retries.
const defaultTimeout = 5 * time.Second

// pushRetries is how many times a failed push is retried.
const pushRetries = 2

// Metrics records what syncs did. Each sync session has its own.
// It also acts as the session's structure.Diagnostics, so summaries are both logged and counted.
type Metrics struct {
	registry *prometheus.Registry
	client   *retryablehttp.Client
	url, job string
	timeout  time.Duration
	mutex    sync.Mutex
	// newMetrics is true if anything has been recorded since the last push.
	newMetrics bool
	pushes     int

	syncCounter       *prometheus.CounterVec
	syncHistogram     prometheus.Histogram
	fileCounter       prometheus.Counter
	decodeErrors      prometheus.Counter
	moduleCounter     *prometheus.CounterVec
	edgeCounter       prometheus.Counter
	missingCounter    prometheus.Counter
	skippedCounter    prometheus.Counter
	diagnosticCounter prometheus.Counter
}

// New returns a new Metrics. If url is empty nothing is ever pushed, but metrics are still
// recorded and can be gathered.
func New(url, job string) *Metrics {
	u, err := user.Current()
	if err != nil {
		log.Warning("Can't determine current user name for metrics")
		u = &user.User{Username: "unknown"}
	}
	constLabels := prometheus.Labels{
		"user": u.Username,
		"arch": runtime.GOOS + "_" + runtime.GOARCH,
	}
	client := retryablehttp.NewClient()
	client.Logger = &cli.HTTPLogWrapper{Log: log}
	client.RetryMax = pushRetries
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = time.Second
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		client:   client,
		url:      url,
		job:      job,
		timeout:  defaultTimeout,
	}

	// Count of syncs, by outcome.
	m.syncCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "sync_counts",
		Help:        "Count of number of syncs attempted",
		ConstLabels: constLabels,
	}, []string{"success"})

	// Sync durations
	m.syncHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "sync_durations_histogram",
		Help:        "Durations of syncs, excluding the build itself",
		Buckets:     prometheus.ExponentialBuckets(0.01, 2, 16),
		ConstLabels: constLabels,
	})

	m.fileCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "aspect_files",
		Help:        "Count of aspect output files read",
		ConstLabels: constLabels,
	})

	m.decodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "aspect_decode_errors",
		Help:        "Count of aspect output files that couldn't be decoded",
		ConstLabels: constLabels,
	})

	// Modules created, by kind
	m.moduleCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "modules",
		Help:        "Count of derived modules created",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.edgeCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "module_dependencies",
		Help:        "Count of dependencies added between resource modules",
		ConstLabels: constLabels,
	})

	m.missingCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "missing_targets",
		Help:        "Count of references to targets that weren't in the target map",
		ConstLabels: constLabels,
	})

	m.skippedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "skipped_run_configuration_targets",
		Help:        "Count of run configuration targets skipped for being of an unsupported kind",
		ConstLabels: constLabels,
	})

	m.diagnosticCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "diagnostic_messages",
		Help:        "Count of diagnostic messages reported",
		ConstLabels: constLabels,
	})

	m.registry.MustRegister(m.syncCounter, m.syncHistogram, m.fileCounter, m.decodeErrors, m.moduleCounter,
		m.edgeCounter, m.missingCounter, m.skippedCounter, m.diagnosticCounter)
	return m
}

// Gatherer returns the gatherer for everything recorded.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordSync records the outcome of one sync.
func (m *Metrics) RecordSync(success bool, duration time.Duration) {
	m.syncCounter.WithLabelValues(b(success)).Inc()
	if success {
		m.syncHistogram.Observe(duration.Seconds())
	}
	m.touch()
}

// RecordCollection records how many aspect files were read, and how many of them failed.
func (m *Metrics) RecordCollection(files, decodeErrors int) {
	m.fileCounter.Add(float64(files))
	m.decodeErrors.Add(float64(decodeErrors))
	m.touch()
}

// RecordStructure records the shape of a synthesized module graph.
func (m *Metrics) RecordStructure(stats structure.Stats) {
	m.moduleCounter.WithLabelValues(string(structure.ResourceModule)).Add(float64(stats.ResourceModules))
	m.moduleCounter.WithLabelValues(string(structure.RunConfigurationModule)).Add(float64(stats.RunConfigurationModules))
	m.edgeCounter.Add(float64(stats.OrderEntries))
	m.missingCounter.Add(float64(stats.MissingReferences))
	m.skippedCounter.Add(float64(stats.SkippedCandidates))
	m.touch()
}

// Log implements the structure.Diagnostics interface.
func (m *Metrics) Log(message string) {
	log.Notice("%s", message)
	m.diagnosticCounter.Inc()
	m.touch()
}

func (m *Metrics) touch() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.newMetrics = true
}

func b(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

// Push sends the metrics to the pushgateway, if one is configured and there's anything new.
func (m *Metrics) Push() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.url == "" || !m.newMetrics {
		return nil
	}
	start := time.Now()
	if err := deadline(func() error {
		return push.New(m.url, m.job).Client(m.client.StandardClient()).Gatherer(m.registry).Add()
	}, m.timeout); err != nil {
		return fmt.Errorf("could not push metrics to %s: %w", m.url, err)
	}
	m.newMetrics = false
	m.pushes++
	log.Debug("Push #%d of metrics in %0.3fs", m.pushes, time.Since(start).Seconds())
	return nil
}

// deadline applies a deadline to an arbitrary function and returns when either the function
// completes or the deadline expires.
func deadline(f func() error, timeout time.Duration) error {
	c := make(chan error, 1)
	go func() {
		c <- f()
	}()
	select {
	case err := <-c:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("metrics push timed out")
	}
}
