package component

import (
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/types"
)

// Factory builds a component instance from its raw JSON config. Factories
// parse and validate config only; sockets and subscriptions wait for the
// component's Start.
type Factory func(rawConfig json.RawMessage, deps Dependencies) (Discoverable, error)

// Registration describes one component type: its factory plus the static
// metadata discovery serves without instantiating anything.
type Registration struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`     // "input", "processor", or "output"
	Protocol    string       `json:"protocol"` // wire protocol: udp, websocket, intent
	Domain      string       `json:"domain"`   // business domain: neuro, network
	Description string       `json:"description"`
	Version     string       `json:"version"`
	Schema      ConfigSchema `json:"schema"`
	Factory     Factory      `json:"-"`
}

// RegistrationConfig is the argument block for RegisterWithConfig. It maps
// one to one onto Registration.
type RegistrationConfig struct {
	Name        string
	Factory     Factory
	Schema      ConfigSchema
	Type        string
	Protocol    string
	Domain      string
	Description string
	Version     string
}

// Registry holds component factories and the instances built from them.
// Factories are looked up by component name ("udp", "intent", "websocket");
// instances by the unique name the pipeline config assigns. Exclusive
// resources like UDP listen ports are tracked so two instances cannot claim
// the same socket.
type Registry struct {
	mu             sync.RWMutex
	factories      map[string]*Registration
	instances      map[string]Discoverable
	resourceOwners map[string]string // resource ID -> owning instance
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:      make(map[string]*Registration),
		instances:      make(map[string]Discoverable),
		resourceOwners: make(map[string]string),
	}
}

// RegisterFactory adds a component factory under the given name. A second
// registration with the same name is rejected.
func (r *Registry) RegisterFactory(name string, registration *Registration) error {
	switch {
	case name == "":
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory name validation")
	case registration == nil:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "registration validation")
	case registration.Factory == nil:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	case registration.Type == "":
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "component type validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("factory %q is already registered", name),
			"Registry", "RegisterFactory", "duplicate factory check")
	}

	r.factories[name] = registration
	return nil
}

// RegisterWithConfig wraps RegisterFactory for the common case:
//
//	registry.RegisterWithConfig(component.RegistrationConfig{
//	    Name:        "intent",
//	    Factory:     CreateProcessor,
//	    Schema:      intentSchema,
//	    Type:        "processor",
//	    Protocol:    "intent",
//	    Domain:      "neuro",
//	    Description: "Mental command filter with hysteresis and debounce",
//	    Version:     "1.0.0",
//	})
func (r *Registry) RegisterWithConfig(config RegistrationConfig) error {
	return r.RegisterFactory(config.Name, &Registration{
		Name:        config.Name,
		Factory:     config.Factory,
		Schema:      config.Schema,
		Type:        config.Type,
		Protocol:    config.Protocol,
		Domain:      config.Domain,
		Description: config.Description,
		Version:     config.Version,
	})
}

// ListFactories returns a snapshot of every registration with the factory
// function stripped. Static metadata survives the copy, the config schema
// included; the schema exporter and discovery read it from here.
func (r *Registry) ListFactories() map[string]*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Registration, len(r.factories))
	for name, registration := range r.factories {
		copied := *registration
		copied.Factory = nil
		result[name] = &copied
	}
	return result
}

// GetComponentSchema returns the config schema for a component type from
// registration metadata. No instance is built.
func (r *Registry) GetComponentSchema(name string) (ConfigSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registration, exists := r.factories[name]
	if !exists {
		return ConfigSchema{}, errors.WrapInvalid(
			fmt.Errorf("component type %q not found", name),
			"Registry", "GetComponentSchema", "type lookup")
	}
	return registration.Schema, nil
}

// CreateComponent builds a component through its registered factory and
// records the instance under instanceName. The instance name is the unique
// identifier from the pipeline config ("udp-headset-main"); config.Name
// picks the factory.
func (r *Registry) CreateComponent(
	instanceName string, config types.ComponentConfig, deps Dependencies,
) (Discoverable, error) {
	if err := ValidateComponentName(instanceName); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "instance name validation")
	}
	if config.Type == "" {
		return nil, errors.WrapInvalid(
			errors.ErrInvalidConfig, "Registry", "CreateComponent", "component type validation")
	}
	if err := ValidateComponentName(config.Name); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "factory name validation")
	}
	if deps.NATSClient == nil {
		return nil, errors.WrapInvalid(
			errors.ErrInvalidConfig, "Registry", "CreateComponent", "NATS client validation")
	}

	// The raw config passes the platform limits before any factory sees it.
	if err := ValidateFactoryConfig(config.Config); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "config security validation")
	}

	r.mu.RLock()
	registration, exists := r.factories[config.Name]
	r.mu.RUnlock()
	if !exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown component factory %q", config.Name),
			"Registry", "CreateComponent", "factory lookup")
	}

	if registration.Type != string(config.Type) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("component %q is type %q, not %q", config.Name, registration.Type, config.Type),
			"Registry", "CreateComponent", "type validation")
	}

	instance, err := registration.Factory(config.Config, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "factory execution")
	}

	if err := r.RegisterInstance(instanceName, instance); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "instance registration")
	}
	return instance, nil
}

// RegisterInstance records a running component so discovery and the
// component manager can reach it. Exclusive resources are claimed here; a
// second instance wanting an already-held UDP port is rejected.
func (r *Registry) RegisterInstance(name string, instance Discoverable) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterInstance", "instance name validation")
	}
	if instance == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterInstance", "component validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("instance %q is already registered", name),
			"Registry", "RegisterInstance", "duplicate instance check")
	}
	if err := r.claimResources(name, instance); err != nil {
		return errors.Wrap(err, "Registry", "RegisterInstance", "resource conflict check")
	}

	r.instances[name] = instance
	return nil
}

// UnregisterInstance drops an instance and releases its exclusive
// resources. Unknown names are a no-op so shutdown paths can call it
// unconditionally.
func (r *Registry) UnregisterInstance(name string) {
	if name == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	instance, exists := r.instances[name]
	if !exists {
		return
	}

	for _, port := range append(instance.InputPorts(), instance.OutputPorts()...) {
		if port.Config == nil || !port.Config.IsExclusive() {
			continue
		}
		id := port.Config.ResourceID()
		if r.resourceOwners[id] == name {
			delete(r.resourceOwners, id)
		}
	}
	delete(r.instances, name)
}

// Component returns the instance registered under name, or nil.
func (r *Registry) Component(name string) Discoverable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instances[name]
}

// ListComponents returns a snapshot of all registered instances.
func (r *Registry) ListComponents() map[string]Discoverable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Discoverable, len(r.instances))
	maps.Copy(result, r.instances)
	return result
}

// claimResources reserves every exclusive resource the instance's ports
// declare. All ports are checked before any claim is recorded so a conflict
// leaves the tracker untouched. Caller holds r.mu.
func (r *Registry) claimResources(name string, instance Discoverable) error {
	ports := append(instance.InputPorts(), instance.OutputPorts()...)

	for _, port := range ports {
		if port.Config == nil || !port.Config.IsExclusive() {
			continue
		}
		if networkPort, ok := port.Config.(NetworkPort); ok {
			if err := ValidatePortNumber(networkPort.Port); err != nil {
				return errors.Wrap(err, "Registry", "claimResources", "network port validation")
			}
		}
		if owner, taken := r.resourceOwners[port.Config.ResourceID()]; taken {
			return errors.WrapInvalid(
				fmt.Errorf("resource %s already used by component %q", port.Config.ResourceID(), owner),
				"Registry", "claimResources", "exclusive resource check")
		}
	}

	for _, port := range ports {
		if port.Config != nil && port.Config.IsExclusive() {
			r.resourceOwners[port.Config.ResourceID()] = name
		}
	}
	return nil
}
