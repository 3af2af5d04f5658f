package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// KinematicsCollector bundles the Prometheus metrics of frame reconstruction,
// frame motion evaluation and the transform pipeline. A nil collector is valid
// and records nothing.
type KinematicsCollector struct {
	gatherer prometheus.Gatherer

	CacheLookups       *prometheus.CounterVec
	MotionEvaluations  *prometheus.CounterVec
	DescriptorDecodes  *prometheus.CounterVec
	TransformedSamples *prometheus.CounterVec
	TransformDurations *prometheus.HistogramVec
	CachedInstants     prometheus.Gauge
}

// NewKinematicsCollector registers the kinematics metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
// Registering twice against the same registerer reuses the existing
// collectors.
func NewKinematicsCollector(reg prometheus.Registerer) (*KinematicsCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "frames_transform_cache_lookups_total",
		Help: "Lookups in the per-instant cache of the first transform stage, labeled by result (hit or miss).",
	}, []string{"result"}), "frames_transform_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	motions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "frames_motion_evaluations_total",
		Help: "Evaluations of the motion of a reference frame, labeled by frame variant.",
	}, []string{"variant"}), "frames_motion_evaluations_total")
	if err != nil {
		return nil, err
	}

	decodes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "frames_descriptor_decodes_total",
		Help: "Reference frames reconstructed from descriptors, labeled by variant and result.",
	}, []string{"variant", "result"}), "frames_descriptor_decodes_total")
	if err != nil {
		return nil, err
	}

	samples, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "frames_transformed_samples_total",
		Help: "Trajectory samples produced by the transform pipeline, labeled by stage (first or second).",
	}, []string{"stage"}), "frames_transformed_samples_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frames_transform_duration_seconds",
		Help:    "Time spent in the transform of each sample, summed over a whole trajectory, labeled by stage.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"stage"}), "frames_transform_duration_seconds")
	if err != nil {
		return nil, err
	}

	cached, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "frames_transform_cached_instants",
		Help: "Number of instants held in the cache of the first transform stage.",
	}), "frames_transform_cached_instants")
	if err != nil {
		return nil, err
	}

	return &KinematicsCollector{
		gatherer:           gatherer,
		CacheLookups:       lookups,
		MotionEvaluations:  motions,
		DescriptorDecodes:  decodes,
		TransformedSamples: samples,
		TransformDurations: durations,
		CachedInstants:     cached,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *KinematicsCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *KinematicsCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveCacheLookup records a hit or a miss of the first-stage cache.
func (c *KinematicsCollector) ObserveCacheLookup(hit bool) {
	if c == nil || c.CacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// SetCachedInstants updates the cache size gauge.
func (c *KinematicsCollector) SetCachedInstants(n int) {
	if c == nil || c.CachedInstants == nil {
		return
	}
	c.CachedInstants.Set(float64(n))
}

// ObserveMotionEvaluation counts one evaluation of the motion of a frame.
func (c *KinematicsCollector) ObserveMotionEvaluation(variant string) {
	if c == nil || c.MotionEvaluations == nil {
		return
	}
	c.MotionEvaluations.WithLabelValues(variant).Inc()
}

// ObserveDescriptorDecode counts one reconstruction attempt.
func (c *KinematicsCollector) ObserveDescriptorDecode(variant, result string) {
	if c == nil || c.DescriptorDecodes == nil {
		return
	}
	c.DescriptorDecodes.WithLabelValues(variant, result).Inc()
}

// ObserveTransformedSample counts one sample produced by stage.
func (c *KinematicsCollector) ObserveTransformedSample(stage string) {
	if c == nil || c.TransformedSamples == nil {
		return
	}
	c.TransformedSamples.WithLabelValues(stage).Inc()
}

// ObserveTransformDuration records the time spent in stage over a whole
// trajectory. Time spent by the consumer between samples is not included.
func (c *KinematicsCollector) ObserveTransformDuration(stage string, d time.Duration) {
	if c == nil || c.TransformDurations == nil {
		return
	}
	c.TransformDurations.WithLabelValues(stage).Observe(d.Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
