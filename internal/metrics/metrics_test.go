package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getGaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getHistogramSampleCount(h prometheus.Histogram) uint64 {
	var m dto.Metric
	if err := h.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_SearchesTotal(t *testing.T) {
	before := getCounterVecValue(SearchesTotal, "cache_hit")
	SearchesTotal.WithLabelValues("cache_hit").Inc()
	after := getCounterVecValue(SearchesTotal, "cache_hit")

	if after != before+1 {
		t.Errorf("Expected cache_hit counter to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_SearchesTotal_IndependentOutcomes(t *testing.T) {
	before := getCounterVecValue(SearchesTotal, "handed_off")
	SearchesTotal.WithLabelValues("completed").Inc()
	after := getCounterVecValue(SearchesTotal, "handed_off")

	if after != before {
		t.Errorf("Expected handed_off counter untouched by completed increment, got diff %.0f", after-before)
	}
}

func TestMetrics_SearchesInFlight(t *testing.T) {
	before := getGaugeValue(SearchesInFlight)
	SearchesInFlight.Inc()
	if got := getGaugeValue(SearchesInFlight); got != before+1 {
		t.Errorf("Expected in-flight gauge to increment by 1, got diff %.0f", got-before)
	}

	SearchesInFlight.Dec()
	if got := getGaugeValue(SearchesInFlight); got != before {
		t.Errorf("Expected in-flight gauge to return to %.0f, got %.0f", before, got)
	}
}

func TestMetrics_UpstreamSearchDuration(t *testing.T) {
	before := getHistogramSampleCount(UpstreamSearchDuration)
	UpstreamSearchDuration.Observe(1.5)
	after := getHistogramSampleCount(UpstreamSearchDuration)

	if after != before+1 {
		t.Errorf("Expected histogram sample count to increment by 1, got diff %d", after-before)
	}
}

func TestMetrics_SubtitleDownloadsTotal(t *testing.T) {
	before := getCounterVecValue(SubtitleDownloadsTotal, "success")
	SubtitleDownloadsTotal.WithLabelValues("success").Inc()
	after := getCounterVecValue(SubtitleDownloadsTotal, "success")

	if after != before+1 {
		t.Errorf("Expected success counter to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_SubtitleDownloadsTotal_Error(t *testing.T) {
	before := getCounterVecValue(SubtitleDownloadsTotal, "error")
	SubtitleDownloadsTotal.WithLabelValues("error").Inc()
	after := getCounterVecValue(SubtitleDownloadsTotal, "error")

	if after != before+1 {
		t.Errorf("Expected error counter to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_NewHTTPServer(t *testing.T) {
	srv := NewHTTPServer("localhost", 9090)

	if srv.Addr != "localhost:9090" {
		t.Errorf("Expected address 'localhost:9090', got '%s'", srv.Addr)
	}

	if srv.Handler == nil {
		t.Error("Expected handler to be set")
	}
}

func TestMetrics_NewHTTPServer_DefaultPort(t *testing.T) {
	srv := NewHTTPServer("0.0.0.0", 0)

	if srv.Addr != "0.0.0.0:9090" {
		t.Errorf("Expected address '0.0.0.0:9090', got '%s'", srv.Addr)
	}
}
