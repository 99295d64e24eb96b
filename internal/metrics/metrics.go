package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satwatch_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satwatch_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "satwatch_propagation_duration_seconds",
			Help:    "Duration of whole-constellation propagation batches.",
			Buckets: prometheus.DefBuckets,
		},
	)

	propagationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satwatch_propagation_total",
			Help: "Per-satellite propagation outcomes.",
		},
		[]string{"outcome"},
	)

	predictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satwatch_pass_predictions_total",
			Help: "Total number of pass prediction runs served.",
		},
	)

	parseSkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satwatch_tle_parse_skips_total",
			Help: "Element-set records skipped during parsing for a missing line 2.",
		},
	)

	datasetSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satwatch_tle_dataset_satellites",
			Help: "Number of satellites in the current element-set dataset.",
		},
	)

	datasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satwatch_tle_dataset_age_seconds",
			Help: "Age of the current element-set dataset in seconds.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		propagationDuration,
		propagationTotal,
		predictionsTotal,
		parseSkipsTotal,
		datasetSatellites,
		datasetAgeSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPropagation records the duration and outcome counts of one batch.
func RecordPropagation(d time.Duration, success, errors int) {
	propagationDuration.Observe(d.Seconds())
	propagationTotal.WithLabelValues("success").Add(float64(success))
	propagationTotal.WithLabelValues("error").Add(float64(errors))
}

// IncPredictions counts a served pass prediction run.
func IncPredictions() {
	predictionsTotal.Inc()
}

// IncParseSkips counts a skipped element-set record.
func IncParseSkips() {
	parseSkipsTotal.Inc()
}

// SetDatasetCount records the satellite count of the loaded dataset.
func SetDatasetCount(n int) {
	datasetSatellites.Set(float64(n))
}

// SetDatasetAge records the loaded dataset's age.
func SetDatasetAge(seconds float64) {
	datasetAgeSeconds.Set(seconds)
}

// knownRoutes are the exact paths the server registers; anything else is
// collapsed to "other" to keep label cardinality bounded against bot traffic.
var knownRoutes = map[string]bool{
	"/healthz":                     true,
	"/readyz":                      true,
	"/metrics":                     true,
	"/api/v1/satellites":           true,
	"/api/v1/satellites/positions": true,
	"/api/v1/snapshots":            true,
	"/api/v1/passes":               true,
	"/api/v1/stations":             true,
}

// normalizeRoute maps a request path to a bounded set of metric labels.
// Parameterized routes collapse to their pattern.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/stations/") {
		return "/api/v1/stations/{id}"
	}
	if strings.HasPrefix(path, "/api/v1/satellites/") && strings.HasSuffix(path, "/passes") {
		return "/api/v1/satellites/{norad_id}/passes"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		route := normalizeRoute(r.URL.Path)
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
