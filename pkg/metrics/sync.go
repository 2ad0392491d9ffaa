package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records the health of local-first writes and their remote mirror.
type SyncMetrics struct {
	mirrorDuration *prometheus.HistogramVec
	mirrorSuccess  *prometheus.CounterVec
	mirrorFailure  *prometheus.CounterVec
	fallbackReads  *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mirror_write_duration_seconds",
		Help:    "Duration of remote mirror writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_write_success",
		Help: "Remote mirror writes that were applied.",
	}, []string{"collection"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_write_failure",
		Help: "Remote mirror writes that failed after the local write committed.",
	}, []string{"collection"})
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "local_fallback_reads",
		Help: "Reads served from the local store because the remote was unavailable.",
	}, []string{"collection"})
	reg.MustRegister(duration, success, failure, fallback)
	return &SyncMetrics{
		mirrorDuration: duration,
		mirrorSuccess:  success,
		mirrorFailure:  failure,
		fallbackReads:  fallback,
	}
}

// ObserveMirrorDuration records the duration of a remote mirror write.
func (s *SyncMetrics) ObserveMirrorDuration(collection string, duration time.Duration) {
	if s == nil || s.mirrorDuration == nil {
		return
	}
	s.mirrorDuration.WithLabelValues(normalizeLabel(collection)).Observe(duration.Seconds())
}

// IncMirrorSuccess increments the mirror success counter for the collection.
func (s *SyncMetrics) IncMirrorSuccess(collection string) {
	if s == nil || s.mirrorSuccess == nil {
		return
	}
	s.mirrorSuccess.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncMirrorFailure increments the mirror failure counter for the collection.
func (s *SyncMetrics) IncMirrorFailure(collection string) {
	if s == nil || s.mirrorFailure == nil {
		return
	}
	s.mirrorFailure.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncFallbackRead increments the local fallback read counter for the collection.
func (s *SyncMetrics) IncFallbackRead(collection string) {
	if s == nil || s.fallbackReads == nil {
		return
	}
	s.fallbackReads.WithLabelValues(normalizeLabel(collection)).Inc()
}

func normalizeLabel(collection string) string {
	if collection == "" {
		return "unknown"
	}
	return collection
}
