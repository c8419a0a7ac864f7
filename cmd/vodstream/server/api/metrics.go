package api

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sincaw/vodstream/pkg/rangeserve"
)

const namespace = "vodstream"

type metrics struct {
	responses *prometheus.CounterVec
	transfers *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	inFlight  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_total",
			Help:      "HTTP responses by route and status code.",
		}, []string{"route", "code"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "range_requests_total",
			Help:      "Range requests by route and final state.",
		}, []string{"route", "state"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "range_bytes_sent_total",
			Help:      "Body bytes written by range responses.",
		}, []string{"route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "range_requests_in_flight",
			Help:      "Range requests currently being served.",
		}),
	}
	for _, c := range []prometheus.Collector{m.responses, m.transfers, m.bytes, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) onTransition(_ *http.Request, s rangeserve.State) {
	switch s {
	case rangeserve.StateReceived:
		m.inFlight.Inc()
	case rangeserve.StateCompleted, rangeserve.StateFailed, rangeserve.StateAborted:
		m.inFlight.Dec()
	}
}

func (m *metrics) observeRange(route string, ret rangeserve.Result) {
	m.transfers.WithLabelValues(route, ret.State.String()).Inc()
	if ret.Written > 0 {
		m.bytes.WithLabelValues(route).Add(float64(ret.Written))
	}
}

// observeResponse counts a response, code 0 is a dropped connection
func (m *metrics) observeResponse(route string, code int) {
	label := "aborted"
	if code != 0 {
		label = strconv.Itoa(code)
	}
	m.responses.WithLabelValues(route, label).Inc()
}
