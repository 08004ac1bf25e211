package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/c360/neurostreams/types"
)

// mandatoryServices lists services that must always exist
var mandatoryServices = []string{
	"component-manager", // Always needed to manage the pipeline components
}

// Manager orchestrates service lifecycle: it creates service instances from
// registered constructors, starts them in creation order, and stops them in
// reverse. The component manager is mandatory and is created even when the
// configuration does not mention it.
type Manager struct {
	registry *Registry
	services map[string]Service
	order    []string // Track creation order for reverse shutdown
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewServiceManager creates a new service manager
func NewServiceManager(registry *Registry) *Manager {
	return &Manager{
		registry: registry,
		services: make(map[string]Service),
		logger:   slog.Default(),
	}
}

// CreateService creates a service instance using the registered constructor
func (m *Manager) CreateService(name string, rawConfig json.RawMessage, deps *Dependencies) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[name]; exists {
		return nil, fmt.Errorf("service %s already created", name)
	}

	constructor, exists := m.registry.Constructor(name)
	if !exists {
		return nil, fmt.Errorf("no constructor registered for service %s", name)
	}

	service, err := constructor(rawConfig, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create service %s: %w", name, err)
	}

	m.services[name] = service
	m.order = append(m.order, name)

	return service, nil
}

// CreateFromConfig creates every enabled service from the services
// configuration, plus the mandatory services whether configured or not.
// Mandatory services are created first so dependents can look them up.
func (m *Manager) CreateFromConfig(services types.ServiceConfigs, deps *Dependencies) error {
	if deps != nil && deps.Logger != nil {
		m.logger = deps.Logger
	}

	for _, name := range mandatoryServices {
		cfg := json.RawMessage("{}")
		if sc, ok := services[name]; ok && len(sc.Config) > 0 {
			cfg = sc.Config
		}
		m.logger.Info("Creating service", "service", name, "mandatory", true)
		if _, err := m.CreateService(name, cfg, deps); err != nil {
			return fmt.Errorf("create mandatory service %s: %w", name, err)
		}
	}

	// Remaining services in sorted order for determinism
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if isMandatory(name) {
			continue
		}
		sc := services[name]
		if !sc.Enabled {
			m.logger.Debug("Skipping disabled service", "service", name)
			continue
		}
		if _, registered := m.registry.Constructor(name); !registered {
			m.logger.Warn("No constructor for configured service", "service", name)
			continue
		}

		m.logger.Info("Creating service", "service", name)
		if _, err := m.CreateService(name, sc.Config, deps); err != nil {
			return fmt.Errorf("create service %s: %w", name, err)
		}
	}

	return nil
}

func isMandatory(name string) bool {
	for _, m := range mandatoryServices {
		if m == name {
			return true
		}
	}
	return false
}

// GetService returns a service instance by name
func (m *Manager) GetService(name string) (Service, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	service, exists := m.services[name]
	return service, exists
}

// GetAllServices returns all created service instances
func (m *Manager) GetAllServices() map[string]Service {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Service, len(m.services))
	for name, service := range m.services {
		result[name] = service
	}
	return result
}

// HasConstructor checks if a constructor is registered
func (m *Manager) HasConstructor(name string) bool {
	_, exists := m.registry.Constructor(name)
	return exists
}

// ListConstructors returns all registered constructor names
func (m *Manager) ListConstructors() []string {
	return m.registry.Services()
}

// StartAll starts all created services in creation order. The first failure
// aborts the sequence and propagates; already-started services are left for
// StopAll to unwind.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	order := make([]string, len(m.order))
	copy(order, m.order)
	services := make(map[string]Service, len(m.services))
	for name, service := range m.services {
		services[name] = service
	}
	m.mu.RUnlock()

	m.logger.Debug("Beginning service startup sequence", "service_count", len(order))

	for _, name := range order {
		service := services[name]
		m.logger.Debug("Starting service", "name", name)
		if err := service.Start(ctx); err != nil {
			m.logger.Error("Failed to start service", "name", name, "error", err)
			return fmt.Errorf("failed to start service %s: %w", name, err)
		}
		m.logger.Debug("Service started successfully", "name", name)
	}

	m.logger.Info("All services started", "count", len(order))
	return nil
}

// StopAll stops all created services in reverse creation order
func (m *Manager) StopAll(timeout time.Duration) error {
	logger := m.logger.With("operation", "services-shutdown")

	m.mu.Lock()
	reverseOrder := make([]string, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		reverseOrder[len(m.order)-1-i] = m.order[i]
	}
	services := make(map[string]Service, len(m.services))
	for name, service := range m.services {
		services[name] = service
	}
	m.mu.Unlock()

	logger.Debug("Starting service shutdown sequence",
		"count", len(services),
		"timeout", timeout,
		"order", reverseOrder,
	)
	overallStart := time.Now()

	var errs []error
	for _, name := range reverseOrder {
		service, exists := services[name]
		if !exists {
			continue
		}

		serviceStart := time.Now()
		logger.Debug("Stopping service", "service", name)

		if err := service.Stop(timeout); err != nil {
			logger.Error("Service stop failed",
				"service", name,
				"duration_ms", time.Since(serviceStart).Milliseconds(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("failed to stop service %s: %w", name, err))
		} else {
			logger.Debug("Service stopped successfully",
				"service", name,
				"duration_ms", time.Since(serviceStart).Milliseconds(),
			)
		}
	}

	m.mu.Lock()
	m.services = make(map[string]Service)
	m.order = nil
	m.mu.Unlock()

	logger.Debug("Service shutdown sequence completed",
		"duration_ms", time.Since(overallStart).Milliseconds(),
		"error_count", len(errs),
	)

	if len(errs) > 0 {
		return fmt.Errorf("stop errors: %v", errs)
	}
	return nil
}

// GetHealthyServices returns names of services that report healthy
func (m *Manager) GetHealthyServices() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var healthy []string
	for name, service := range m.services {
		if service.IsHealthy() {
			healthy = append(healthy, name)
		}
	}
	return healthy
}

// GetUnhealthyServices returns names of services that report unhealthy
func (m *Manager) GetUnhealthyServices() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var unhealthy []string
	for name, service := range m.services {
		if !service.IsHealthy() {
			unhealthy = append(unhealthy, name)
		}
	}
	return unhealthy
}

// GetAllServiceStatus returns runtime information for every service
func (m *Manager) GetAllServiceStatus() map[string]Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Info, len(m.services))
	for name, service := range m.services {
		result[name] = service.GetStatus()
	}
	return result
}
