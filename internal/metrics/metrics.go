// Package metrics instruments the geometry pipeline with Prometheus
// collectors: elements and batches processed, cache effectiveness, CSG
// operations and their failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds the collectors one processing run reports into.
type Pipeline struct {
	ElementsProcessed *prometheus.CounterVec
	BatchesEmitted    *prometheus.CounterVec
	ElementDuration   prometheus.Histogram

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	CSGOperations prometheus.Counter
	CSGFailures   prometheus.Counter
	VoidsCut      prometheus.Counter
	VoidsSkipped  *prometheus.CounterVec
}

// NewPipeline creates the pipeline collectors under namespace and
// registers them with reg. A nil reg uses the default registry.
func NewPipeline(namespace string, reg prometheus.Registerer) *Pipeline {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Pipeline{
		ElementsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_processed_total",
			Help:      "Elements processed, labeled by outcome.",
		}, []string{"outcome"}),
		BatchesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_emitted_total",
			Help:      "Streaming batches emitted, labeled by phase.",
		}, []string{"phase"}),
		ElementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "element_duration_seconds",
			Help:      "Wall time to process one element.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Geometry cache hits, labeled by layer.",
		}, []string{"layer"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Geometry cache misses, labeled by layer.",
		}, []string{"layer"}),
		CSGOperations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csg_operations_total",
			Help:      "Non-rectangular boolean difference operations attempted.",
		}),
		CSGFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csg_failures_total",
			Help:      "CSG operations that returned a degenerate result.",
		}),
		VoidsCut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voids_cut_total",
			Help:      "Openings successfully subtracted from host meshes.",
		}),
		VoidsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voids_skipped_total",
			Help:      "Openings skipped, labeled by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		p.ElementsProcessed, p.BatchesEmitted, p.ElementDuration,
		p.CacheHits, p.CacheMisses,
		p.CSGOperations, p.CSGFailures, p.VoidsCut, p.VoidsSkipped,
	)
	return p
}

// Nop returns a pipeline whose collectors are live but unregistered,
// for callers that run with metrics disabled.
func Nop() *Pipeline {
	reg := prometheus.NewRegistry()
	return NewPipeline("nop", reg)
}
