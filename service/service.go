package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/gtest-runner/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = 8080

	shutdownTimeout = 5 * time.Second
)

// Config holds the listen addresses of the service endpoints
type Config struct {
	HealthzAddr string
	MetricsAddr string
}

// NewConfig builds a Config serving metrics on host:port and health checks
// on the default healthz port.
func NewConfig(metricsHost string, metricsPort int) Config {
	return Config{
		HealthzAddr: net.JoinHostPort(HealthzHost, strconv.Itoa(HealthzPort)),
		MetricsAddr: net.JoinHostPort(metricsHost, strconv.Itoa(metricsPort)),
	}
}

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer

	cfg Config
	log log.Logger
}

func New(logger log.Logger, cfg Config) *Service {
	logger = logger.New("component", "service")
	return &Service{
		Healthz: NewHealthzServer(logger, cfg.HealthzAddr),
		Metrics: NewMetricsServer(cfg.MetricsAddr),
		cfg:     cfg,
		log:     logger,
	}
}

// Start launches both servers in the background
func (s *Service) Start() {
	s.log.Info("service starting")

	go func() {
		s.log.Info("starting healthz server", "addr", s.cfg.HealthzAddr)
		if err := s.Healthz.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error starting healthz server", "err", err)
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	go func() {
		s.log.Info("starting metrics server", "addr", s.cfg.MetricsAddr)
		if err := s.Metrics.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error starting metrics server", "err", err)
			metrics.RecordErrorDetails("error starting metrics server", err)
		}
	}()

	s.log.Info("service started")
}

func (s *Service) Shutdown() {
	s.log.Info("service shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.Healthz.Shutdown(ctx)
	s.log.Info("healthz stopped")

	_ = s.Metrics.Shutdown(ctx)
	s.log.Info("metrics stopped")

	s.log.Info("service stopped")
}
