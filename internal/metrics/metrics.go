package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    runsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfreorder",
            Name:      "runs_total",
            Help:      "Total reorder pipeline runs by result and document type",
        },
        []string{"result", "doctype"},
    )

    runDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfreorder",
            Name:      "run_duration_seconds",
            Help:      "Duration of reorder pipeline runs by document type",
            Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
        },
        []string{"doctype"},
    )

    ocrRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfreorder",
            Name:      "ocr_requests_total",
            Help:      "OCR service requests by mode (sync, batch) and result",
        },
        []string{"mode", "result"},
    )

    ocrLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfreorder",
            Name:      "ocr_request_duration_seconds",
            Help:      "Duration of OCR service requests by mode",
            Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
        },
        []string{"mode"},
    )

    oracleAttempts = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfreorder",
            Name:      "oracle_attempts_total",
            Help:      "Ordering oracle attempts by outcome (ok, invalid, identity, transport_error)",
        },
        []string{"outcome"},
    )

    oracleFallbacks = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfreorder",
            Name:      "oracle_fallbacks_total",
            Help:      "Runs that fell back to identity order after exhausting oracle retries",
        },
    )

    blankPages = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfreorder",
            Name:      "blank_pages_total",
            Help:      "Blank pages detected and moved to the document tail",
        },
    )

    queueDepth = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pdfreorder",
            Name:      "queue_depth",
            Help:      "Pending async reorder jobs in the stream",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(runsTotal, runDuration, ocrRequests, ocrLatency, oracleAttempts, oracleFallbacks, blankPages, queueDepth)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveRun(result, doctype string, dur time.Duration) {
    runsTotal.WithLabelValues(result, doctype).Inc()
    runDuration.WithLabelValues(doctype).Observe(dur.Seconds())
}

func ObserveOCR(mode, result string, dur time.Duration) {
    ocrRequests.WithLabelValues(mode, result).Inc()
    ocrLatency.WithLabelValues(mode).Observe(dur.Seconds())
}

func IncOracleAttempt(outcome string) { oracleAttempts.WithLabelValues(outcome).Inc() }
func IncOracleFallback()              { oracleFallbacks.Inc() }

func AddBlankPages(n int) { blankPages.Add(float64(n)) }

func SetQueueDepth(v int64) { queueDepth.Set(float64(v)) }
