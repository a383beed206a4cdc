package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace = "apache_log_stats"

	SubProcessor = "processor"
	SubHTTP      = "http"

	LabelResult = "result"
	LabelRoute  = "route"

	ResultParsed  = "parsed"
	ResultSkipped = "skipped"
)

// CounterOpts is a type alias for prometheus.CounterOpts.
type CounterOpts = prometheus.CounterOpts

// Registry owns the collectors of one run. It is created per invocation
// and passed to the components that record into it.
type Registry struct {
	reg *prometheus.Registry

	// LinesTotal counts every input line, labelled by parse result.
	LinesTotal *prometheus.CounterVec
	// HTTPRequestsTotal counts requests served by the report server.
	HTTPRequestsTotal *prometheus.CounterVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		LinesTotal: factory.NewCounterVec(
			CounterOpts{
				Namespace: Namespace,
				Subsystem: SubProcessor,
				Name:      "lines_total",
				Help:      "Input lines read, by parse result.",
			},
			[]string{LabelResult},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			CounterOpts{
				Namespace: Namespace,
				Subsystem: SubHTTP,
				Name:      "requests_total",
				Help:      "Requests served by the report endpoint, by route.",
			},
			[]string{LabelRoute},
		),
	}
}

// Handler returns the Prometheus exposition handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
