package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/c360/neurostreams/metric"
)

// Metrics is a service that provides the Prometheus metrics endpoint
type Metrics struct {
	*BaseService

	config   MetricsConfig
	server   *metric.Server          // Runtime state
	registry *metric.MetricsRegistry // Dependency
}

// MetricsConfig holds configuration for the metrics service.
// Simple struct - no UnmarshalJSON, no Enabled field.
type MetricsConfig struct {
	Port int    `json:"port"`
	Path string `json:"path"`
}

// Validate checks if the configuration is valid
func (c MetricsConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Path == "" {
		return fmt.Errorf("metrics path cannot be empty")
	}
	return nil
}

// NewMetrics creates a new metrics service using the standard constructor pattern
func NewMetrics(rawConfig json.RawMessage, deps *Dependencies) (Service, error) {
	var cfg MetricsConfig
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, fmt.Errorf("parse metrics config: %w", err)
		}
	}

	// Apply defaults - clear and visible in constructor
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate metrics config: %w", err)
	}

	var opts []Option
	var registry *metric.MetricsRegistry
	if deps != nil {
		registry = deps.MetricsRegistry
		if deps.Logger != nil {
			opts = append(opts, WithLogger(deps.Logger))
		}
		if deps.MetricsRegistry != nil {
			opts = append(opts, WithMetrics(deps.MetricsRegistry))
		}
	}
	if registry == nil {
		registry = metric.NewMetricsRegistry()
	}

	m := &Metrics{
		BaseService: NewBaseService("metrics", opts...),
		config:      cfg,
		registry:    registry,
	}

	m.SetHealthCheck(m.healthCheck)

	return m, nil
}

// Start starts the metrics HTTP server
func (m *Metrics) Start(ctx context.Context) error {
	if err := m.BaseService.Start(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return fmt.Errorf("metrics server already started")
	}

	m.server = metric.NewServer(m.config.Port, m.config.Path, m.registry)

	// metric.Server.Start blocks on ListenAndServe
	go func() {
		m.logger.Info("Starting metrics server", "port", m.config.Port, "path", m.config.Path)
		if err := m.server.Start(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server error", "error", err)
		}
	}()

	m.logger.Info("Metrics service started",
		"url", fmt.Sprintf("http://localhost:%d%s", m.config.Port, m.config.Path))

	return nil
}

// Stop stops the metrics HTTP server
func (m *Metrics) Stop(timeout time.Duration) error {
	m.mu.Lock()

	if m.server != nil {
		if err := m.server.Stop(); err != nil {
			m.logger.Error("Error stopping metrics server", "error", err)
			m.mu.Unlock()
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
		m.server = nil
	}

	m.mu.Unlock()

	if err := m.BaseService.Stop(timeout); err != nil {
		return err
	}

	m.logger.Info("Metrics service stopped")

	return nil
}

// healthCheck performs health check for the metrics service
func (m *Metrics) healthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.server == nil {
		return fmt.Errorf("metrics server not running")
	}

	return nil
}

// Port returns the port the metrics server is listening on
func (m *Metrics) Port() int {
	return m.config.Port
}

// Path returns the metrics endpoint path
func (m *Metrics) Path() string {
	return m.config.Path
}

// URL returns the full URL for the metrics endpoint
func (m *Metrics) URL() string {
	return fmt.Sprintf("http://localhost:%d%s", m.config.Port, m.config.Path)
}
