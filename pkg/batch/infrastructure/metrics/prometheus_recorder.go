package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const pushJobName = "rlsgen"

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
// A run is short-lived, so the registry is exported once at the end through Flush
// rather than scraped.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	cfg      config.MetricsConfig

	jobsTotal          *prometheus.CounterVec
	jobDurationSeconds *prometheus.HistogramVec
	generationAttempts *prometheus.CounterVec
	operationSeconds   *prometheus.HistogramVec
	runsTotal          *prometheus.CounterVec
	jobsScheduled      prometheus.Gauge
	poolSize           prometheus.Gauge
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder with its own registry.
func NewPrometheusRecorder(cfg config.MetricsConfig) *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	r := &PrometheusRecorder{
		registry: registry,
		cfg:      cfg,
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rlsgen_jobs_total",
			Help: "Total number of generation jobs by final status.",
		}, []string{"status"}),
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rlsgen_job_duration_seconds",
			Help:    "Duration of generation jobs, from prompt to written artifact.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"status"}),
		generationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rlsgen_generation_attempts_total",
			Help: "Requests sent to the generation endpoint by outcome.",
		}, []string{"outcome"}),
		operationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rlsgen_operation_duration_seconds",
			Help:    "Duration of run prerequisites such as catalog fetches and corpus loading.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rlsgen_runs_total",
			Help: "Completed runs by result.",
		}, []string{"result"}),
		jobsScheduled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rlsgen_jobs_scheduled",
			Help: "Number of jobs dispatched in the current run.",
		}),
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rlsgen_worker_pool_size",
			Help: "Number of workers in the current run.",
		}),
	}

	registry.MustRegister(
		r.jobsTotal,
		r.jobDurationSeconds,
		r.generationAttempts,
		r.operationSeconds,
		r.runsTotal,
		r.jobsScheduled,
		r.poolSize,
	)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordRunStart records the job count and pool size.
func (r *PrometheusRecorder) RecordRunStart(ctx context.Context, jobCount, poolSize int) {
	r.jobsScheduled.Set(float64(jobCount))
	r.poolSize.Set(float64(poolSize))
}

// RecordJobEnd records the final status and duration of one job.
func (r *PrometheusRecorder) RecordJobEnd(ctx context.Context, result model.JobResult) {
	status := string(result.Status)
	r.jobsTotal.WithLabelValues(status).Inc()
	if d := result.Duration(); d > 0 {
		r.jobDurationSeconds.WithLabelValues(status).Observe(d.Seconds())
	}
}

// RecordGenerationAttempt counts one request to the generation endpoint.
func (r *PrometheusRecorder) RecordGenerationAttempt(ctx context.Context, outcome string) {
	r.generationAttempts.WithLabelValues(outcome).Inc()
}

// RecordDuration observes a named operation. Tags are ignored to keep label cardinality fixed.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordRunEnd records whether every job succeeded.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, summary model.RunSummary) {
	result := "success"
	if !summary.AllSucceeded() {
		result = "failure"
	}
	r.runsTotal.WithLabelValues(result).Inc()
	logger.Debugf("Metrics: run %s ended (%d succeeded, %d failed).", summary.RunID, summary.Succeeded, summary.Failed)
}

// Flush writes the registry to the configured textfile and pushes it to the configured
// Pushgateway. Both targets are attempted; their errors are combined.
func (r *PrometheusRecorder) Flush(ctx context.Context) error {
	var result *multierror.Error
	if r.cfg.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(r.cfg.TextfilePath, r.registry); err != nil {
			result = multierror.Append(result, fmt.Errorf("write metrics textfile %s: %w", r.cfg.TextfilePath, err))
		} else {
			logger.Debugf("Metrics written to %s", r.cfg.TextfilePath)
		}
	}
	if r.cfg.PushgatewayURL != "" {
		if err := push.New(r.cfg.PushgatewayURL, pushJobName).Gatherer(r.registry).PushContext(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("push metrics to %s: %w", r.cfg.PushgatewayURL, err))
		} else {
			logger.Debugf("Metrics pushed to %s", r.cfg.PushgatewayURL)
		}
	}
	return result.ErrorOrNil()
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
