package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Only the header read is bounded here; request
// timeouts are applied per route group, and the transfer event stream holds
// its connection open for the life of the hand-off, so a global write
// timeout would sever it.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
