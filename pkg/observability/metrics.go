package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot.
type Metrics struct {
	MessagesHandled  *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	ExtractionCycles *prometheus.CounterVec
	MemoriesSaved    prometheus.Counter
	ReplyLatency     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		MessagesHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Inbound messages handled, by channel.",
		}, []string{"channel"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Completion provider errors by call site.",
		}, []string{"site"}),
		ExtractionCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_cycles_total",
			Help:      "Memory extraction cycles by outcome.",
		}, []string{"outcome"}),
		MemoriesSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_saved_total",
			Help:      "Memories that passed the confidence gate and were written.",
		}),
		ReplyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_latency_seconds",
			Help:      "Time from inbound message to reply text.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
	}
}

func (m *Metrics) ObserveReplyLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.ReplyLatency.Observe(d.Seconds())
}

// Handler returns the HTTP handler serving the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
