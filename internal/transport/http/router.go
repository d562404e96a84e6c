// Package httptransport assembles the public HTTP surface: the transfer API,
// health, and Prometheus metrics.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	transferhandler "petledger/internal/transfer/handler"
	"petledger/pkg/platform/httputil"
)

// NewRouter wires all public endpoints. Feature handlers register their own
// middleware stacks; only health and metrics live outside them.
func NewRouter(transfers *transferhandler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	transfers.Register(r)
	return r
}
