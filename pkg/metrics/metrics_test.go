package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRecordCounters(t *testing.T) {
	labels := map[string]string{"policy": "drop_oldest"}
	before := counterValue(t, "amshan_queue_dropped_total", labels)
	RecordQueueDrop("drop_oldest")
	require.Equal(t, before+1, counterValue(t, "amshan_queue_dropped_total", labels))

	labels = map[string]string{"type": "hdlc", "result": "empty"}
	before = counterValue(t, "amshan_decoder_messages_total", labels)
	RecordDecode("hdlc", 0, time.Millisecond)
	require.Equal(t, before+1, counterValue(t, "amshan_decoder_messages_total", labels))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordFrame(true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "amshan_reader_frames_total")
}
