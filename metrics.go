package audiostash

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrorsTotalMetric counts failures anywhere in the upload path
	ErrorsTotalMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiostash_errors_total",
		Help: "The total number of errors found",
	})
	uploadsCountMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiostash_uploads_total",
		Help: "The total number of successful uploads",
	})
	upsertsCountMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiostash_upserts_total",
		Help: "The total number of uploads that overwrote an existing object",
	})
	// SanitizedKeysMetric counts keys that changed during sanitization
	SanitizedKeysMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiostash_sanitized_keys_total",
		Help: "The total number of object keys rewritten by the sanitizer",
	})
)
