package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the collectors of the chat service. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	gatherer    prometheus.Gatherer
	toolCalls   *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec
	chatTurns   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() (*Recorder, error) {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Recorder, error) {
	r := &Recorder{
		gatherer: gatherer,
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sei_tool_calls_total",
				Help: "Lookup tool invocations by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		toolLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sei_tool_duration_seconds",
				Help:    "Lookup tool latency.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"tool"},
		),
		chatTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sei_chat_turns_total",
				Help: "Handled chat turns by channel and result.",
			},
			[]string{"channel", "result"},
		),
	}

	for _, c := range []prometheus.Collector{r.toolCalls, r.toolLatency, r.chatTurns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveTool(tool, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
	r.toolLatency.WithLabelValues(tool).Observe(took.Seconds())
}

func (r *Recorder) ObserveTurn(channel string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.chatTurns.WithLabelValues(channel, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
