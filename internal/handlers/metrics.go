package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus registry. Mounted on /metrics
// when metrics are enabled.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
