package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/config"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/types"
)

// eventLog records lifecycle events in order across goroutines
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// index returns the position of the first matching event, or -1
func (l *eventLog) index(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

// fakeComponent is a minimal lifecycle component for manager tests
type fakeComponent struct {
	name    string
	typ     types.ComponentType
	ports   []component.Port
	log     *eventLog
	healthy atomic.Bool

	initErr  error
	startErr error
	stopErr  error
}

func (f *fakeComponent) Meta() component.Metadata {
	return component.Metadata{
		Name:        f.name,
		Type:        string(f.typ),
		Description: "fake component",
		Version:     "0.0.1",
	}
}

func (f *fakeComponent) InputPorts() []component.Port {
	var in []component.Port
	for _, p := range f.ports {
		if p.Direction == component.DirectionInput {
			in = append(in, p)
		}
	}
	return in
}

func (f *fakeComponent) OutputPorts() []component.Port {
	var out []component.Port
	for _, p := range f.ports {
		if p.Direction == component.DirectionOutput {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeComponent) ConfigSchema() component.ConfigSchema {
	return component.ConfigSchema{}
}

func (f *fakeComponent) Health() component.HealthStatus {
	return component.HealthStatus{Healthy: f.healthy.Load(), LastCheck: time.Now()}
}

func (f *fakeComponent) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{}
}

func (f *fakeComponent) Initialize() error {
	if f.log != nil {
		f.log.add("init:" + f.name)
	}
	return f.initErr
}

func (f *fakeComponent) Start(_ context.Context) error {
	if f.startErr != nil {
		if f.log != nil {
			f.log.add("failstart:" + f.name)
		}
		return f.startErr
	}
	f.healthy.Store(true)
	if f.log != nil {
		f.log.add("start:" + f.name)
	}
	return nil
}

func (f *fakeComponent) Stop(_ time.Duration) error {
	f.healthy.Store(false)
	if f.log != nil {
		f.log.add("stop:" + f.name)
	}
	return f.stopErr
}

// fakeSettings is the per-instance config the fake factories understand
type fakeSettings struct {
	Label     string `json:"label"`
	Port      int    `json:"port,omitempty"`
	InitFail  bool   `json:"initFail,omitempty"`
	StartFail bool   `json:"startFail,omitempty"`
	StopFail  bool   `json:"stopFail,omitempty"`
}

// fakeFactory builds a component.Factory producing fakeComponents of one type
func fakeFactory(typ types.ComponentType, log *eventLog) component.Factory {
	return func(rawConfig json.RawMessage, _ component.Dependencies) (component.Discoverable, error) {
		var settings fakeSettings
		if len(rawConfig) > 0 {
			if err := json.Unmarshal(rawConfig, &settings); err != nil {
				return nil, err
			}
		}

		fc := &fakeComponent{name: settings.Label, typ: typ, log: log}
		if settings.Port > 0 {
			fc.ports = append(fc.ports, component.Port{
				Name:      "listen",
				Direction: component.DirectionInput,
				Required:  true,
				Config:    component.NetworkPort{Protocol: "udp", Host: "0.0.0.0", Port: settings.Port},
			})
		}
		if settings.InitFail {
			fc.initErr = errors.New("initialize failed")
		}
		if settings.StartFail {
			fc.startErr = errors.New("start failed")
		}
		if settings.StopFail {
			fc.stopErr = errors.New("stop failed")
		}
		return fc, nil
	}
}

// newFakeRegistry registers fake input/processor/output factories
func newFakeRegistry(t *testing.T, log *eventLog) *component.Registry {
	t.Helper()

	registry := component.NewRegistry()
	for _, rc := range []struct {
		name string
		typ  types.ComponentType
	}{
		{"fake-input", types.ComponentTypeInput},
		{"fake-processor", types.ComponentTypeProcessor},
		{"fake-output", types.ComponentTypeOutput},
	} {
		require.NoError(t, registry.RegisterWithConfig(component.RegistrationConfig{
			Name:        rc.name,
			Factory:     fakeFactory(rc.typ, log),
			Schema:      component.ConfigSchema{},
			Type:        string(rc.typ),
			Protocol:    "test",
			Domain:      "test",
			Description: "fake component for lifecycle tests",
			Version:     "0.0.1",
		}))
	}
	return registry
}

// fakeInstance builds a ComponentConfig for a fake factory
func fakeInstance(t *testing.T, typ types.ComponentType, settings fakeSettings) types.ComponentConfig {
	t.Helper()

	raw, err := json.Marshal(settings)
	require.NoError(t, err)

	factory := map[types.ComponentType]string{
		types.ComponentTypeInput:     "fake-input",
		types.ComponentTypeProcessor: "fake-processor",
		types.ComponentTypeOutput:    "fake-output",
	}[typ]

	return types.ComponentConfig{Type: typ, Name: factory, Enabled: true, Config: raw}
}

// newFakeManager assembles a ComponentManager over fake factories
func newFakeManager(
	t *testing.T, rawConfig json.RawMessage, log *eventLog, components config.ComponentConfigs,
) *ComponentManager {
	t.Helper()

	svc, err := NewComponentManager(rawConfig, &Dependencies{
		NATSClient:        &natsclient.Client{},
		Config:            &config.Config{Components: components},
		ComponentRegistry: newFakeRegistry(t, log),
	})
	require.NoError(t, err)

	cm, ok := svc.(*ComponentManager)
	require.True(t, ok)
	return cm
}

// Test config validation
func TestComponentManagerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ComponentManagerConfig
		wantErr bool
	}{
		{"empty config", ComponentManagerConfig{}, false},
		{"populated filter", ComponentManagerConfig{EnabledComponents: []string{"udp-input"}}, false},
		{"empty entry", ComponentManagerConfig{EnabledComponents: []string{"udp-input", ""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Test the EnabledComponents filter semantics
func TestComponentManagerConfig_Allows(t *testing.T) {
	empty := ComponentManagerConfig{}
	assert.True(t, empty.allows("anything"), "empty filter allows every instance")

	filtered := ComponentManagerConfig{EnabledComponents: []string{"udp-input", "websocket-output"}}
	assert.True(t, filtered.allows("udp-input"))
	assert.True(t, filtered.allows("websocket-output"))
	assert.False(t, filtered.allows("intent-processor"))
}

// Test phase ranking for start ordering
func TestPhaseRank(t *testing.T) {
	assert.Equal(t, 0, phaseRank(types.ComponentTypeOutput))
	assert.Equal(t, 1, phaseRank(types.ComponentTypeProcessor))
	assert.Equal(t, 2, phaseRank(types.ComponentTypeInput))
	assert.Equal(t, len(startPhases), phaseRank(types.ComponentType("mystery")))
}

// Test manager creation with no component configuration
func TestComponentManager_NewDefaults(t *testing.T) {
	svc, err := NewComponentManager(nil, &Dependencies{})
	require.NoError(t, err)

	cm, ok := svc.(*ComponentManager)
	require.True(t, ok)

	assert.Equal(t, "component-manager", cm.Name())
	assert.True(t, cm.IsInitialized(), "no configs still initializes")
	assert.False(t, cm.IsStarted())
	assert.Empty(t, cm.GetManagedComponents())
	assert.NotNil(t, cm.GetRegistry())
}

// Test constructor config error paths
func TestComponentManager_NewConfigErrors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		_, err := NewComponentManager(json.RawMessage(`{not json`), &Dependencies{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse component-manager config")
	})

	t.Run("invalid filter entry", func(t *testing.T) {
		_, err := NewComponentManager(json.RawMessage(`{"enabled_components": [""]}`), &Dependencies{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validate component-manager config")
	})
}

// Test component creation from configuration
func TestComponentManager_InitializeCreatesConfiguredComponents(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"a-input":     fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "a-input"}),
		"m-processor": fakeInstance(t, types.ComponentTypeProcessor, fakeSettings{Label: "m-processor"}),
		"z-output":    fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "z-output"}),
	})

	managed := cm.GetManagedComponents()
	require.Len(t, managed, 3)
	for name, mc := range managed {
		assert.Equal(t, component.StateInitialized, mc.State, "component %s", name)
	}

	// Initialize() ran on every created component
	assert.GreaterOrEqual(t, log.index("init:a-input"), 0)
	assert.GreaterOrEqual(t, log.index("init:m-processor"), 0)
	assert.GreaterOrEqual(t, log.index("init:z-output"), 0)
}

// Test disabled instances are skipped at creation
func TestComponentManager_InitializeSkipsDisabled(t *testing.T) {
	log := &eventLog{}
	disabled := fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "off-input"})
	disabled.Enabled = false

	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"on-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "on-output"}),
		"off-input": disabled,
	})

	managed := cm.GetManagedComponents()
	require.Len(t, managed, 1)
	_, exists := managed["on-output"]
	assert.True(t, exists)
	assert.Equal(t, -1, log.index("init:off-input"), "disabled component must never be constructed")
}

// Test the EnabledComponents allowlist restricts creation
func TestComponentManager_InitializeAppliesFilter(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, json.RawMessage(`{"enabled_components": ["keep-output"]}`), log,
		config.ComponentConfigs{
			"keep-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "keep-output"}),
			"drop-input":  fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "drop-input"}),
		})

	managed := cm.GetManagedComponents()
	require.Len(t, managed, 1)
	_, exists := managed["keep-output"]
	assert.True(t, exists)
	assert.Equal(t, -1, log.index("init:drop-input"))
}

// Test creation failures are logged and skipped, not fatal
func TestComponentManager_InitializeToleratesFactoryFailure(t *testing.T) {
	log := &eventLog{}
	ghost := types.ComponentConfig{
		Type:    types.ComponentTypeInput,
		Name:    "ghost",
		Enabled: true,
		Config:  json.RawMessage(`{}`),
	}

	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"ghost-input": ghost,
		"real-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "real-output"}),
	})

	assert.True(t, cm.IsInitialized())
	managed := cm.GetManagedComponents()
	require.Len(t, managed, 1)
	_, exists := managed["real-output"]
	assert.True(t, exists)
}

// Test components start outputs first, then processors, then inputs, and
// stop in the reverse order
func TestComponentManager_PhasedStartAndReverseStop(t *testing.T) {
	log := &eventLog{}
	// Instance names sort against the phase order on purpose: lexical order
	// would start a-input first, phase order must not.
	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"a-input":     fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "a-input"}),
		"m-processor": fakeInstance(t, types.ComponentTypeProcessor, fakeSettings{Label: "m-processor"}),
		"z-output":    fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "z-output"}),
	})

	require.NoError(t, cm.Start(context.Background()))
	assert.True(t, cm.IsStarted())

	outStart := log.index("start:z-output")
	procStart := log.index("start:m-processor")
	inStart := log.index("start:a-input")
	require.GreaterOrEqual(t, outStart, 0)
	require.GreaterOrEqual(t, procStart, 0)
	require.GreaterOrEqual(t, inStart, 0)
	assert.Less(t, outStart, procStart, "output phase starts before processor phase")
	assert.Less(t, procStart, inStart, "processor phase starts before input phase")

	managed := cm.GetManagedComponents()
	require.Len(t, managed, 3)
	for name, mc := range managed {
		assert.Equal(t, component.StateStarted, mc.State, "component %s", name)
		assert.NotNil(t, mc.Context, "component %s should have a runtime context", name)
	}
	assert.Equal(t, 0, managed["z-output"].StartOrder)
	assert.Equal(t, 1, managed["m-processor"].StartOrder)
	assert.Equal(t, 2, managed["a-input"].StartOrder)

	require.NoError(t, cm.Stop(5*time.Second))
	assert.False(t, cm.IsStarted())

	inStop := log.index("stop:a-input")
	procStop := log.index("stop:m-processor")
	outStop := log.index("stop:z-output")
	require.GreaterOrEqual(t, inStop, 0)
	require.GreaterOrEqual(t, procStop, 0)
	require.GreaterOrEqual(t, outStop, 0)
	assert.Less(t, inStop, procStop, "inputs stop before processors")
	assert.Less(t, procStop, outStop, "processors stop before outputs")

	for name, mc := range cm.GetManagedComponents() {
		assert.Equal(t, component.StateStopped, mc.State, "component %s", name)
	}
}

// Test a start failure propagates and unwinds already-started components
func TestComponentManager_StartFailureUnwinds(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"ok-output":    fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "ok-output"}),
		"ok-processor": fakeInstance(t, types.ComponentTypeProcessor, fakeSettings{Label: "ok-processor"}),
		"bad-input":    fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "bad-input", StartFail: true}),
	})

	err := cm.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start component 'bad-input'")
	assert.False(t, cm.IsStarted())

	// Earlier phases came up before the failure, then got unwound
	require.GreaterOrEqual(t, log.index("start:ok-output"), 0)
	require.GreaterOrEqual(t, log.index("start:ok-processor"), 0)
	assert.Greater(t, log.index("stop:ok-output"), log.index("start:ok-output"))
	assert.Greater(t, log.index("stop:ok-processor"), log.index("start:ok-processor"))

	for name, mc := range cm.GetManagedComponents() {
		assert.NotEqual(t, component.StateStarted, mc.State,
			"component %s must not stay started after a failed boot", name)
	}
}

// Test starting an uninitialized manager fails
func TestComponentManager_StartNotInitialized(t *testing.T) {
	cm := &ComponentManager{BaseService: NewBaseService("component-manager")}

	err := cm.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

// Test Start is idempotent while running
func TestComponentManager_StartIdempotent(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"only-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "only-output"}),
	})

	require.NoError(t, cm.Start(context.Background()))
	require.NoError(t, cm.Start(context.Background()))

	starts := 0
	for _, event := range log.all() {
		if event == "start:only-output" {
			starts++
		}
	}
	assert.Equal(t, 1, starts, "second Start must not restart components")

	require.NoError(t, cm.Stop(5*time.Second))
}

// Test stopping before starting is a no-op
func TestComponentManager_StopBeforeStart(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, nil)
	assert.NoError(t, cm.Stop(time.Second))
}

// Test stop errors are collected and reported
func TestComponentManager_StopReportsErrors(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"good-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "good-output"}),
		"bad-input":   fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "bad-input", StopFail: true}),
	})

	require.NoError(t, cm.Start(context.Background()))

	err := cm.Stop(5 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-input")

	// The failing component is marked, the good one still stopped cleanly
	managed := cm.GetManagedComponents()
	assert.Equal(t, component.StateFailed, managed["bad-input"].State)
	assert.Equal(t, component.StateStopped, managed["good-output"].State)
}

// Test runtime component creation validation
func TestComponentManager_CreateComponentValidation(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, nil)
	deps := component.Dependencies{NATSClient: &natsclient.Client{}}
	valid := fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "extra-output"})

	t.Run("empty instance name", func(t *testing.T) {
		err := cm.CreateComponent(context.Background(), "", valid, deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "instance name cannot be empty")
	})

	t.Run("empty factory name", func(t *testing.T) {
		cfg := valid
		cfg.Name = ""
		err := cm.CreateComponent(context.Background(), "x-output", cfg, deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "factory name cannot be empty")
	})

	t.Run("empty type", func(t *testing.T) {
		cfg := valid
		cfg.Type = ""
		err := cm.CreateComponent(context.Background(), "x-output", cfg, deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type cannot be empty")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := cm.CreateComponent(ctx, "x-output", valid, deps)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown factory", func(t *testing.T) {
		cfg := valid
		cfg.Name = "ghost"
		err := cm.CreateComponent(context.Background(), "x-output", cfg, deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown component factory")
	})

	t.Run("duplicate instance", func(t *testing.T) {
		require.NoError(t, cm.CreateComponent(context.Background(), "extra-output", valid, deps))
		err := cm.CreateComponent(context.Background(), "extra-output", valid, deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}

// Test a failed Initialize rolls the component back out of every tracker
func TestComponentManager_CreateComponentInitializeRollback(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, nil)
	deps := component.Dependencies{NATSClient: &natsclient.Client{}}

	cfg := fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "broken-input", InitFail: true})
	err := cm.CreateComponent(context.Background(), "broken-input", cfg, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize component 'broken-input'")

	assert.Empty(t, cm.GetManagedComponents())
	assert.Nil(t, cm.Component("broken-input"), "registry entry must be rolled back")

	cm.mu.RLock()
	assert.Empty(t, cm.resources, "port registrations must be rolled back")
	cm.mu.RUnlock()
}

// Test exclusive port tracking at the manager level
func TestComponentManager_PortConflictTracking(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, nil)

	claimed := component.Port{
		Name:      "udp_socket",
		Direction: component.DirectionInput,
		Config:    component.NetworkPort{Protocol: "udp", Host: "0.0.0.0", Port: 7500},
	}
	first := &fakeComponent{name: "first-input", typ: types.ComponentTypeInput, ports: []component.Port{claimed}}
	second := &fakeComponent{name: "second-input", typ: types.ComponentTypeInput, ports: []component.Port{claimed}}
	shared := &fakeComponent{name: "bus-output", typ: types.ComponentTypeOutput, ports: []component.Port{{
		Name:      "nats_output",
		Direction: component.DirectionOutput,
		Config:    component.NATSPort{Subject: "neuro.samples.decoded"},
	}}}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	require.NoError(t, cm.checkPortConflicts(first))
	cm.registerPorts("first-input", first)

	err := cm.checkPortConflicts(second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclusive resource")

	// Non-exclusive NATS subjects are shareable
	assert.NoError(t, cm.checkPortConflicts(shared))

	cm.unregisterPortsFor("first-input", first)
	assert.NoError(t, cm.checkPortConflicts(second), "released ports are claimable again")
}

// Test two components claiming the same network port cannot both be created
func TestComponentManager_ExclusivePortCreateConflict(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, nil)
	deps := component.Dependencies{NATSClient: &natsclient.Client{}}

	first := fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "first-input", Port: 7501})
	second := fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "second-input", Port: 7501})

	require.NoError(t, cm.CreateComponent(context.Background(), "first-input", first, deps))

	err := cm.CreateComponent(context.Background(), "second-input", second, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resource conflict")

	managed := cm.GetManagedComponents()
	require.Len(t, managed, 1)
	_, exists := managed["first-input"]
	assert.True(t, exists)
}

// Test component removal
func TestComponentManager_RemoveComponent(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"gone-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "gone-output"}),
	})

	require.NoError(t, cm.RemoveComponent("gone-output"))
	assert.GreaterOrEqual(t, log.index("stop:gone-output"), 0, "removal stops the component")
	assert.Empty(t, cm.GetManagedComponents())
	assert.Nil(t, cm.Component("gone-output"))

	err := cm.RemoveComponent("gone-output")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = cm.RemoveComponent("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

// Test the manager health check across lifecycle states
func TestComponentManager_HealthCheck(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		cm := &ComponentManager{BaseService: NewBaseService("component-manager")}
		err := cm.healthCheck()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not initialized")
	})

	t.Run("initialized but not started", func(t *testing.T) {
		cm := newFakeManager(t, nil, &eventLog{}, nil)
		assert.NoError(t, cm.healthCheck())
	})

	t.Run("started and healthy", func(t *testing.T) {
		cm := newFakeManager(t, nil, &eventLog{}, config.ComponentConfigs{
			"good-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "good-output"}),
		})
		require.NoError(t, cm.Start(context.Background()))
		defer cm.Stop(time.Second)

		assert.NoError(t, cm.healthCheck())
	})

	t.Run("failed component reported", func(t *testing.T) {
		cm := newFakeManager(t, nil, &eventLog{}, config.ComponentConfigs{
			"good-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "good-output"}),
		})
		require.NoError(t, cm.Start(context.Background()))
		defer cm.Stop(time.Second)

		cm.updateComponentState("good-output", component.StateFailed, errors.New("socket lost"))

		err := cm.healthCheck()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "good-output failed")
	})

	t.Run("cancelled component context reported", func(t *testing.T) {
		cm := newFakeManager(t, nil, &eventLog{}, config.ComponentConfigs{
			"good-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "good-output"}),
		})
		require.NoError(t, cm.Start(context.Background()))
		defer cm.Stop(time.Second)

		cm.mu.RLock()
		cancel := cm.components["good-output"].Cancel
		cm.mu.RUnlock()
		require.NotNil(t, cancel)
		cancel()

		err := cm.healthCheck()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "context cancelled")
	})
}

// Test health and status views over managed components
func TestComponentManager_StatusViews(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, nil, log, config.ComponentConfigs{
		"a-input":  fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "a-input"}),
		"z-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "z-output"}),
	})

	// Before start, fakes report unhealthy
	assert.Len(t, cm.GetUnhealthyComponents(), 2)
	assert.Empty(t, cm.GetHealthyComponents())

	require.NoError(t, cm.Start(context.Background()))
	defer cm.Stop(time.Second)

	health := cm.GetComponentHealth()
	require.Len(t, health, 2)
	assert.True(t, health["a-input"].Healthy)
	assert.True(t, health["z-output"].Healthy)
	assert.Len(t, cm.GetHealthyComponents(), 2)

	status := cm.GetComponentStatus()
	require.Len(t, status, 2)
	assert.Equal(t, "a-input", status["a-input"].Name)
	assert.Equal(t, component.StateStarted, status["a-input"].State)
	assert.True(t, status["z-output"].Health.Healthy)
}

// Test configured instances are ordered by phase, then name
func TestComponentManager_OrderedInstanceNames(t *testing.T) {
	cm := &ComponentManager{componentConfigs: config.ComponentConfigs{
		"b-input":  {Type: types.ComponentTypeInput},
		"a-output": {Type: types.ComponentTypeOutput},
		"c-proc":   {Type: types.ComponentTypeProcessor},
		"d-output": {Type: types.ComponentTypeOutput},
	}}

	assert.Equal(t, []string{"a-output", "d-output", "c-proc", "b-input"}, cm.orderedInstanceNames())
}

// Test GetManagedComponents returns copies, not live entries
func TestComponentManager_GetManagedComponentsCopy(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, config.ComponentConfigs{
		"z-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "z-output"}),
	})

	managed := cm.GetManagedComponents()
	require.Len(t, managed, 1)
	managed["z-output"].State = component.StateFailed
	delete(managed, "z-output")

	fresh := cm.GetManagedComponents()
	require.Len(t, fresh, 1)
	assert.Equal(t, component.StateInitialized, fresh["z-output"].State)
}

// Test platform identity flows into component dependencies
func TestComponentManager_BuildComponentDependencies(t *testing.T) {
	t.Run("platform from config snapshot", func(t *testing.T) {
		svc, err := NewComponentManager(nil, &Dependencies{
			NATSClient: &natsclient.Client{},
			Config: &config.Config{
				Platform: config.PlatformConfig{Org: "neurolab", ID: "headset1"},
			},
		})
		require.NoError(t, err)
		cm := svc.(*ComponentManager)

		deps := cm.buildComponentDependencies()
		assert.Equal(t, "neurolab", deps.Platform.Org)
		assert.Equal(t, "headset1", deps.Platform.Platform)
		assert.NotNil(t, deps.NATSClient)
	})

	t.Run("fallback to injected platform", func(t *testing.T) {
		svc, err := NewComponentManager(nil, &Dependencies{
			Platform: types.PlatformMeta{Org: "c360", Platform: "rig-alpha"},
		})
		require.NoError(t, err)
		cm := svc.(*ComponentManager)

		deps := cm.buildComponentDependencies()
		assert.Equal(t, "c360", deps.Platform.Org)
		assert.Equal(t, "rig-alpha", deps.Platform.Platform)
	})
}

// Test a started manager reports healthy through the service interface
func TestComponentManager_ServiceHealthReporting(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, config.ComponentConfigs{
		"z-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "z-output"}),
	})

	// Shorten the monitor interval so the test observes a check quickly
	cm.healthInterval = 20 * time.Millisecond

	require.NoError(t, cm.Start(context.Background()))
	defer cm.Stop(time.Second)

	assert.True(t, waitForHealthy(cm, time.Second), "manager should report healthy once components run")

	h := cm.Health()
	assert.True(t, h.IsHealthy())
	assert.Equal(t, "component-manager", h.Component)
}

// Test concurrent status reads during start and stop
func TestComponentManager_ConcurrentAccess(t *testing.T) {
	cm := newFakeManager(t, nil, &eventLog{}, config.ComponentConfigs{
		"a-input":  fakeInstance(t, types.ComponentTypeInput, fakeSettings{Label: "a-input"}),
		"z-output": fakeInstance(t, types.ComponentTypeOutput, fakeSettings{Label: "z-output"}),
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = cm.GetManagedComponents()
				_ = cm.GetComponentHealth()
				_ = cm.GetComponentStatus()
				_ = cm.ListComponents()
				_ = cm.IsStarted()
				_ = cm.healthCheck()
			}
		}()
	}

	require.NoError(t, cm.Start(context.Background()))
	require.NoError(t, cm.Stop(5*time.Second))
	wg.Wait()
}

// Test unknown component types start last rather than blocking the pipeline
func TestComponentManager_UnknownTypePhasedLast(t *testing.T) {
	log := &eventLog{}
	cm := newFakeManager(t, nil, &eventLog{}, nil)

	// Seed an odd-typed component directly; configs only admit known types
	odd := &fakeComponent{name: "odd", typ: types.ComponentType("sidecar"), log: log}
	out := &fakeComponent{name: "late-output", typ: types.ComponentTypeOutput, log: log}
	cm.mu.Lock()
	require.NoError(t, cm.registry.RegisterInstance("odd", odd))
	require.NoError(t, cm.registry.RegisterInstance("late-output", out))
	cm.components["odd"] = &component.ManagedComponent{Component: odd, State: component.StateInitialized}
	cm.components["late-output"] = &component.ManagedComponent{Component: out, State: component.StateInitialized}
	cm.mu.Unlock()

	require.NoError(t, cm.Start(context.Background()))
	defer cm.Stop(time.Second)

	assert.Less(t, log.index("start:late-output"), log.index("start:odd"),
		"unknown types start after every pipeline phase")
}

var _ component.LifecycleComponent = (*fakeComponent)(nil)
