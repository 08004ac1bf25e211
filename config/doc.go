// Package config provides configuration management for the NeuroStreams
// pipeline.
//
// This package handles loading and validation of application configuration
// from JSON files and environment variables. Configuration is loaded once at
// startup into an immutable snapshot; there is no hot reload.
//
// # Core Components
//
// Config: Main configuration structure containing platform identity, NATS
// connection details, the pipeline tuning section, service settings, and
// component definitions.
//
// PipelineConfig: The operator-facing tuning contract — hysteresis
// thresholds, debounce window, broadcast rate, action remapping, UDP and
// push ports. At load time it is materialized into the standard
// three-component pipeline (udp-input, intent-processor, websocket-output)
// unless a config file defines those instances itself.
//
// SafeConfig: Thread-safe wrapper using RWMutex and deep cloning to prevent
// concurrent access issues and accidental mutations.
//
// Loader: Loads configuration with layer merging (base + overrides) and
// environment variable substitution for flexible deployment scenarios.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/neurostreams.json")
//	loader.AddLayer("configs/local.json") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Overrides
//
// Configuration values can be overridden using environment variables:
//
//	# Override platform identity
//	export NEUROSTREAMS_PLATFORM_ORG="neurolab"
//	export NEUROSTREAMS_PLATFORM_ID="headset1"
//
//	# Override NATS URLs (comma-separated)
//	export NEUROSTREAMS_NATS_URLS="nats://server1:4222,nats://server2:4222"
//
//	# Override pipeline tuning
//	export NEUROSTREAMS_ON_THRESHOLD="0.7"
//	export NEUROSTREAMS_UDP_PORT="7500"
//
// # Layer Merging
//
// Configuration layers are merged with last-wins semantics:
//
//	base.json:
//	  {"pipeline": {"onThreshold": 0.6, "rateHz": 15}}
//
//	local.json:
//	  {"pipeline": {"onThreshold": 0.7}}
//
//	Result:
//	  {"pipeline": {"onThreshold": 0.7, "rateHz": 15}}
//
// # Validation
//
// Validate() runs at load time and rejects configurations that cannot run:
// a hysteresis band with onThreshold at or below offThreshold, a zero
// broadcast rate, out-of-range or colliding ports. Component configurations
// can additionally be checked against their factory schemas with
// ValidateAgainstSchemas before any component is constructed.
//
// # Security
//
// The package includes security validation:
//   - File size limits (10MB max) to prevent memory exhaustion
//   - JSON depth validation (100 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
package config
