package service

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the default prometheus registry on /metrics
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer builds the server up front so Shutdown may run before,
// during or after Start.
func NewMetricsServer(addr string) *MetricsServer {
	m := &MetricsServer{}
	m.server = &http.Server{
		Handler: m.Handler(),
		Addr:    addr,
	}
	return m
}

func (m *MetricsServer) Handler() http.Handler {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	return hdlr
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// shutdown, including one that happened before Start.
func (m *MetricsServer) Start() error {
	return m.server.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
