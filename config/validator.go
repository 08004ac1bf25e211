package config

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/c360/neurostreams/component"
)

// ComponentRegistry defines the interface needed for schema validation.
// This allows dependency injection and testing.
type ComponentRegistry interface {
	GetComponentSchema(componentType string) (component.ConfigSchema, error)
}

// ValidateAgainstSchemas checks every enabled component configuration
// against the schema its factory declares. Returns a map of instance name
// to validation errors; an empty map means everything validated. Called at
// startup before any component is built, so a typo in the config file
// fails fast instead of surfacing as a half-started pipeline.
func (c *Config) ValidateAgainstSchemas(
	registry ComponentRegistry,
	logger *slog.Logger,
) map[string][]component.ValidationError {
	if logger == nil {
		logger = slog.Default()
	}

	failures := make(map[string][]component.ValidationError)

	if registry == nil {
		logger.Warn("Registry is nil, skipping schema validation")
		return failures
	}

	for instanceName, instanceCfg := range c.Components {
		if !instanceCfg.Enabled {
			continue
		}

		errs := validateComponentConfig(registry, instanceCfg.Name, instanceCfg.Config, logger)
		if len(errs) > 0 {
			failures[instanceName] = errs
			logger.Info("Configuration validation failed",
				"instance", instanceName,
				"component", instanceCfg.Name,
				"error_count", len(errs))
		}
	}

	return failures
}

// validateComponentConfig validates one raw component config against the
// registered schema for its factory
func validateComponentConfig(
	registry ComponentRegistry,
	componentName string,
	configJSON json.RawMessage,
	logger *slog.Logger,
) []component.ValidationError {
	if len(configJSON) == 0 {
		return nil
	}

	var cfg map[string]any
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return []component.ValidationError{
			{
				Field:   "",
				Message: fmt.Sprintf("Invalid JSON configuration: %v", err),
				Code:    "type",
			},
		}
	}

	schema, err := registry.GetComponentSchema(componentName)
	if err != nil {
		// Component type not found or error retrieving schema.
		// Log but don't fail validation; the factory itself still rejects
		// unknown components.
		logger.Warn("Failed to get component schema for validation",
			"component", componentName,
			"error", err)
		return nil
	}

	if len(schema.Properties) == 0 {
		logger.Debug("Component has no schema defined, skipping validation",
			"component", componentName)
		return nil
	}

	return component.ValidateConfig(cfg, schema)
}
