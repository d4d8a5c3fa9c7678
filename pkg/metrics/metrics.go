// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "amshan"

var (
	registerOnce sync.Once

	framesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reader",
			Name:      "frames_total",
			Help:      "HDLC frames found in the byte stream.",
		},
		[]string{"valid"},
	)
	messagesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "payloads_total",
			Help:      "Payloads classified by the message detector.",
		},
		[]string{"kind"},
	)
	messagesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "messages_total",
			Help:      "Messages run through the decoder.",
		},
		[]string{"type", "result"},
	)
	decodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "duration_seconds",
			Help:      "Time spent decoding one message.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		},
	)
	queueDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "dropped_total",
			Help:      "Messages dropped because the queue was full.",
		},
		[]string{"policy"},
	)
	connectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "attempts_total",
			Help:      "Connection attempts to the meter.",
		},
		[]string{"transport", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesRead, messagesDetected, messagesDecoded, decodeDuration, queueDropped, connectAttempts)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordFrame(valid bool) {
	RegisterMetrics()
	framesRead.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

func RecordDetected(kind string) {
	RegisterMetrics()
	messagesDetected.WithLabelValues(kind).Inc()
}

func RecordDecode(messageType string, fields int, duration time.Duration) {
	RegisterMetrics()
	result := "fields"
	if fields == 0 {
		result = "empty"
	}
	messagesDecoded.WithLabelValues(messageType, result).Inc()
	decodeDuration.Observe(duration.Seconds())
}

func RecordQueueDrop(policy string) {
	RegisterMetrics()
	queueDropped.WithLabelValues(policy).Inc()
}

func RecordConnect(transport string, success bool) {
	RegisterMetrics()
	connectAttempts.WithLabelValues(transport, strconv.FormatBool(success)).Inc()
}
