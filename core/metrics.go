package core

import "github.com/prometheus/client_golang/prometheus"

// Read error kinds used as the "kind" label.
const (
	readErrorBounds  = "bounds"
	readErrorCorrupt = "corrupt"
	readErrorIO      = "io"
)

// Metrics holds the segment counters. A nil *Metrics records nothing.
type Metrics struct {
	appends       prometheus.Counter
	appendedBytes prometheus.Counter
	reads         prometheus.Counter
	readErrors    *prometheus.CounterVec
}

// NewMetrics creates the segment counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bitcask",
			Subsystem: "segment",
			Name:      "appends_total",
			Help:      "Records appended to segments.",
		}),
		appendedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bitcask",
			Subsystem: "segment",
			Name:      "appended_bytes_total",
			Help:      "Bytes appended to segments, headers included.",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bitcask",
			Subsystem: "segment",
			Name:      "reads_total",
			Help:      "Successful record reads.",
		}),
		readErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bitcask",
			Subsystem: "segment",
			Name:      "read_errors_total",
			Help:      "Failed record reads by kind.",
		}, []string{"kind"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.appends, m.appendedBytes, m.reads, m.readErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordAppend(n int64) {
	if m == nil {
		return
	}
	m.appends.Inc()
	m.appendedBytes.Add(float64(n))
}

func (m *Metrics) recordRead() {
	if m == nil {
		return
	}
	m.reads.Inc()
}

func (m *Metrics) recordReadError(kind string) {
	if m == nil {
		return
	}
	m.readErrors.WithLabelValues(kind).Inc()
}
