package cli

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tus/tusc/pkg/client"
	"github.com/tus/tusc/pkg/prometheuscollector"
)

// ExposeMetrics serves the client counters in the Prometheus exposition
// format on -expose-metrics for the lifetime of the process.
func ExposeMetrics(metrics client.Metrics) {
	if Flags.MetricsAddr == "" {
		return
	}

	prometheus.MustRegister(prometheuscollector.New(metrics))
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Info().Str("address", Flags.MetricsAddr).Msg("exposing metrics")
		if err := http.ListenAndServe(Flags.MetricsAddr, nil); err != nil {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}
