package service

import (
	"encoding/json"
	"log/slog"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/config"
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/types"
)

// Dependencies provides the standard dependencies that all services receive.
// Services get the loaded configuration snapshot rather than reaching for
// globals; the snapshot is immutable for the life of the process.
type Dependencies struct {
	NATSClient        *natsclient.Client
	MetricsRegistry   *metric.MetricsRegistry
	Logger            *slog.Logger
	Platform          types.PlatformMeta  // Platform identity
	Config            *config.Config      // Loaded configuration snapshot
	ComponentRegistry *component.Registry // Component registry for ComponentManager
}

// Constructor defines the standard constructor signature for all services.
// Every service must have a constructor that follows this pattern.
// The constructor receives raw JSON config and must handle its own parsing.
type Constructor func(rawConfig json.RawMessage, deps *Dependencies) (Service, error)
