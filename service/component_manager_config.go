package service

import "fmt"

// ComponentManagerConfig configures the ComponentManager service.
// Simple struct - no UnmarshalJSON, no Enabled field.
type ComponentManagerConfig struct {
	// EnabledComponents restricts which configured component instances are
	// created. Empty means every enabled instance in the configuration.
	EnabledComponents []string `json:"enabled_components"`
}

// Validate checks if the configuration is valid
func (c ComponentManagerConfig) Validate() error {
	for _, name := range c.EnabledComponents {
		if name == "" {
			return fmt.Errorf("enabled_components entries cannot be empty")
		}
	}
	return nil
}

// allows reports whether the instance passes the EnabledComponents filter.
func (c ComponentManagerConfig) allows(instanceName string) bool {
	if len(c.EnabledComponents) == 0 {
		return true
	}
	for _, name := range c.EnabledComponents {
		if name == instanceName {
			return true
		}
	}
	return false
}
