// Package metrics exposes Prometheus collectors for workout tracking.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Frame metrics
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcoach_frames_total",
			Help: "Landmark frames handled by the tracker, by outcome",
		},
		[]string{"exercise", "result"}, // result: "ok", "stale" or a frame error kind
	)

	frameProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formcoach_frame_processing_seconds",
			Help:    "Time spent evaluating one frame",
			Buckets: prometheus.ExponentialBuckets(0.000005, 2, 12), // 5us to ~10ms
		},
		[]string{"exercise"},
	)

	framesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcoach_frames_dropped_total",
			Help: "Frames dropped before reaching the tracker",
		},
		[]string{"transport", "reason"},
	)

	// Workout metrics
	repsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcoach_reps_total",
			Help: "Counted repetitions by form quality",
		},
		[]string{"exercise", "quality"}, // quality: "good" or "bad"
	)

	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcoach_sessions_total",
			Help: "Workouts started",
		},
		[]string{"exercise"},
	)

	activeSession = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "formcoach_active_session",
			Help: "1 while a workout is running",
		},
	)

	streamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "formcoach_stream_connections",
			Help: "Open frame streaming connections",
		},
	)
)

// Collector records tracker events. It satisfies workout.Observer.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// RecordSessionStart counts a started workout.
func (c *Collector) RecordSessionStart(exercise string) {
	sessionsTotal.WithLabelValues(exercise).Inc()
	activeSession.Set(1)
}

// RecordSessionEnd clears the active session gauge.
func (c *Collector) RecordSessionEnd(exercise string) {
	activeSession.Set(0)
}

// RecordFrame counts a frame outcome and, for evaluated frames, its duration.
func (c *Collector) RecordFrame(exercise, result string, duration time.Duration) {
	framesTotal.WithLabelValues(exercise, result).Inc()
	if duration > 0 {
		frameProcessingDuration.WithLabelValues(exercise).Observe(duration.Seconds())
	}
}

// RecordRep counts one repetition.
func (c *Collector) RecordRep(exercise string, good bool) {
	quality := "good"
	if !good {
		quality = "bad"
	}
	repsTotal.WithLabelValues(exercise, quality).Inc()
}

// RecordDropped counts a frame discarded by a transport, e.g. by its rate
// limiter or a decode failure.
func (c *Collector) RecordDropped(transport, reason string) {
	framesDropped.WithLabelValues(transport, reason).Inc()
	c.logger.Debug("frame dropped", "transport", transport, "reason", reason)
}

// StreamOpened and StreamClosed track open streaming connections.
func (c *Collector) StreamOpened() { streamConnections.Inc() }
func (c *Collector) StreamClosed() { streamConnections.Dec() }

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
