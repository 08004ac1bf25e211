package config

import (
	"encoding/json"
	"fmt"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/types"
)

// Standard instance names for the materialized pipeline components
const (
	UDPInputInstance        = "udp-input"
	IntentProcessorInstance = "intent-processor"
	WebSocketOutputInstance = "websocket-output"
)

// PipelineConfig is the startup tuning contract for the whole pipeline:
// hysteresis thresholds, debounce window, broadcast rate, action remapping,
// and the two network ports. It is the surface operators actually touch;
// the per-component configurations are derived from it at load time.
type PipelineConfig struct {
	OnThreshold  float64           `json:"onThreshold"`
	OffThreshold float64           `json:"offThreshold"`
	DebounceMs   int64             `json:"debounceMs"`
	RateHz       int               `json:"rateHz"`
	ActionMap    map[string]string `json:"actionMap,omitempty"`
	UDPPort      int               `json:"udpPort"`
	PushPort     int               `json:"pushPort"`
}

// DefaultPipelineConfig returns the default pipeline tuning
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		OnThreshold:  0.6,
		OffThreshold: 0.4,
		DebounceMs:   150,
		RateHz:       15,
		ActionMap:    map[string]string{"push": "moveForward"},
		UDPPort:      7400,
		PushPort:     8181,
	}
}

// Validate rejects tunings that cannot produce a working pipeline. An
// inverted hysteresis band (onThreshold at or below offThreshold) would
// never latch, so it fails here rather than producing a silently dead
// filter.
func (p PipelineConfig) Validate() error {
	if p.OnThreshold <= 0 || p.OnThreshold > 1 {
		return fmt.Errorf("onThreshold %v out of range (0, 1]", p.OnThreshold)
	}
	if p.OffThreshold < 0 || p.OffThreshold >= 1 {
		return fmt.Errorf("offThreshold %v out of range [0, 1)", p.OffThreshold)
	}
	if p.OnThreshold <= p.OffThreshold {
		return fmt.Errorf("onThreshold %v must be greater than offThreshold %v",
			p.OnThreshold, p.OffThreshold)
	}
	if p.DebounceMs < 0 {
		return fmt.Errorf("debounceMs %d cannot be negative", p.DebounceMs)
	}
	if p.RateHz < 1 {
		return fmt.Errorf("rateHz %d must be at least 1", p.RateHz)
	}
	if p.UDPPort < 1024 || p.UDPPort > 65535 {
		return fmt.Errorf("udpPort %d out of range (1024-65535)", p.UDPPort)
	}
	if p.PushPort < 1024 || p.PushPort > 65535 {
		return fmt.Errorf("pushPort %d out of range (1024-65535)", p.PushPort)
	}
	if p.UDPPort == p.PushPort {
		return fmt.Errorf("udpPort and pushPort cannot both be %d", p.UDPPort)
	}
	return nil
}

// MaterializeComponents projects the pipeline section into the Components
// map. Instances already present in Components are left untouched, so a
// config file can still override any single component wholesale.
func (c *Config) MaterializeComponents() error {
	derived, err := c.Pipeline.components()
	if err != nil {
		return err
	}

	if c.Components == nil {
		c.Components = make(ComponentConfigs, len(derived))
	}
	for name, cfg := range derived {
		if _, exists := c.Components[name]; !exists {
			c.Components[name] = cfg
		}
	}
	return nil
}

// components builds the standard three-component pipeline from the tuning
// section
func (p PipelineConfig) components() (ComponentConfigs, error) {
	udpConfig, err := json.Marshal(map[string]any{
		"ports": component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:     "udp_socket",
					Type:     "network",
					Subject:  fmt.Sprintf("udp://0.0.0.0:%d", p.UDPPort),
					Required: true,
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:     "nats_output",
					Type:     "nats",
					Subject:  "neuro.samples.decoded",
					Required: true,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal udp config: %w", err)
	}

	intentSettings := map[string]any{
		"onThreshold":  p.OnThreshold,
		"offThreshold": p.OffThreshold,
		"debounceMs":   p.DebounceMs,
		"rateHz":       p.RateHz,
	}
	if len(p.ActionMap) > 0 {
		intentSettings["actionMap"] = p.ActionMap
	}
	intentConfig, err := json.Marshal(intentSettings)
	if err != nil {
		return nil, fmt.Errorf("marshal intent config: %w", err)
	}

	websocketConfig, err := json.Marshal(map[string]any{
		"ports": component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:     "event_input",
					Type:     "nats",
					Subject:  "neuro.events.command",
					Required: true,
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:    "websocket_server",
					Type:    "network",
					Subject: fmt.Sprintf("http://0.0.0.0:%d/ws", p.PushPort),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal websocket config: %w", err)
	}

	return ComponentConfigs{
		UDPInputInstance: {
			Type:    types.ComponentTypeInput,
			Name:    "udp",
			Enabled: true,
			Config:  udpConfig,
		},
		IntentProcessorInstance: {
			Type:    types.ComponentTypeProcessor,
			Name:    "intent",
			Enabled: true,
			Config:  intentConfig,
		},
		WebSocketOutputInstance: {
			Type:    types.ComponentTypeOutput,
			Name:    "websocket",
			Enabled: true,
			Config:  websocketConfig,
		},
	}, nil
}
