package httpserver

import (
	"net/http"
	"time"
)

// New builds the service's HTTP server. Requests carry small JSON bodies
// (photo bytes never pass through this service), so header and body reads
// are cut off early; the write timeout must outlast the router's 30s
// request timeout so the middleware gets to answer.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
}
