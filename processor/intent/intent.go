package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/message"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/pkg/timestamp"
)

// Config holds configuration for the intent processor.
type Config struct {
	Ports        *component.PortConfig `json:"ports"        schema:"type:ports,description:Port configuration,category:basic"`
	OnThreshold  float64               `json:"onThreshold"  schema:"type:float,description:Confidence required to propose a non-neutral action,default:0.6,min:0,max:1,category:basic"`
	OffThreshold float64               `json:"offThreshold" schema:"type:float,description:Confidence below which the action releases to neutral,default:0.4,min:0,max:1,category:basic"`
	DebounceMs   int64                 `json:"debounceMs"   schema:"type:int,description:Stability window a candidate must survive before committing,default:150,min:0,category:basic"`
	RateHz       int                   `json:"rateHz"       schema:"type:int,description:Upper bound on broadcast rate,default:15,min:1,category:basic"`
	ActionMap    map[string]string     `json:"actionMap"    schema:"type:object,description:Remapping from raw classifier actions to published labels,category:basic"`
}

// DefaultConfig returns the default configuration for the intent processor.
// Thresholds and timing match the reference headset tuning.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "sample_input",
					Type:        "nats",
					Subject:     "neuro.samples.decoded",
					Required:    true,
					Description: "Decoded classifier samples from ingestion",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "event_output",
					Type:        "nats",
					Subject:     "neuro.events.command",
					Required:    true,
					Description: "Broadcast-ready mental-command events",
				},
			},
		},
		OnThreshold:  0.6,
		OffThreshold: 0.4,
		DebounceMs:   150,
		RateHz:       15,
		ActionMap:    map[string]string{},
	}
}

// intentSchema defines the configuration schema for the intent processor
var intentSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Validate implements component.Validatable. The filter parameters are
// checked here at load time; the state machine itself never validates.
func (c *Config) Validate() error {
	if err := c.filterConfig().Validate(); err != nil {
		return err
	}

	if c.Ports != nil {
		for _, input := range c.Ports.Inputs {
			if input.Type == "nats" && input.Subject == "" {
				return errors.WrapInvalid(errors.ErrInvalidConfig,
					"IntentConfig", "Validate", "NATS input subject validation")
			}
		}
		for _, output := range c.Ports.Outputs {
			if output.Type == "nats" && output.Subject == "" {
				return errors.WrapInvalid(errors.ErrInvalidConfig,
					"IntentConfig", "Validate", "NATS output subject validation")
			}
		}
	}

	return nil
}

func (c *Config) filterConfig() FilterConfig {
	return FilterConfig{
		OnThreshold:  c.OnThreshold,
		OffThreshold: c.OffThreshold,
		DebounceMs:   c.DebounceMs,
		RateHz:       c.RateHz,
		ActionMap:    c.ActionMap,
	}
}

// getSubjects extracts the input and output subjects, falling back to the
// defaults when ports are not configured.
func (c *Config) getSubjects() (input, output string) {
	if c.Ports != nil {
		for _, in := range c.Ports.Inputs {
			if in.Type == "nats" {
				input = in.Subject
				break
			}
		}
		for _, out := range c.Ports.Outputs {
			if out.Type == "nats" {
				output = out.Subject
				break
			}
		}
	}

	if input == "" {
		input = "neuro.samples.decoded"
	}
	if output == "" {
		output = "neuro.events.command"
	}
	return input, output
}

// Processor turns the decoded sample stream into a debounced,
// rate-limited mental-command event stream. It subscribes to the sample
// subject — the ordered, serial NATS delivery makes the handler the
// single owner of the FilterState — and publishes final event bytes that
// the hub forwards verbatim. Publishing is fire-and-forget: the sample
// path never waits on fan-out.
type Processor struct {
	name          string
	inputSubject  string
	outputSubject string
	filter        *FilterState
	natsClient    *natsclient.Client
	logger        *slog.Logger

	// Lifecycle management. The shared NATS client keeps subscriptions
	// until it closes, so Stop pauses the handler rather than
	// unsubscribing, and a restart must not subscribe twice.
	subscribed  bool
	running     bool
	paused      bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Counters (atomic for DataFlow)
	samplesProcessed int64
	broadcasts       int64
	suppressed       int64
	parseFailures    int64
	errors           int64
	lastActivity     time.Time

	// Prometheus metrics
	metrics *intentMetrics
}

// NewProcessor creates an intent processor from configuration.
func NewProcessor(
	rawConfig json.RawMessage, deps component.Dependencies,
) (component.Discoverable, error) {
	cfg := DefaultConfig()

	if len(rawConfig) > 0 {
		// Unmarshal onto the defaults so partial configs override only
		// the fields they name; Validate runs on the merged result.
		if err := component.SafeUnmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.Wrap(err, "IntentProcessor", "NewProcessor", "config parsing")
		}
	}

	inputSubject, outputSubject := cfg.getSubjects()

	metrics, err := newIntentMetrics(deps.MetricsRegistry, "intent-processor")
	if err != nil {
		deps.GetLogger().Error("Failed to initialize intent metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &Processor{
		name:          "intent-processor",
		inputSubject:  inputSubject,
		outputSubject: outputSubject,
		filter:        NewFilterState(cfg.filterConfig(), timestamp.Now()),
		natsClient:    deps.NATSClient,
		logger:        deps.GetLoggerWithComponent("intent-processor"),
		metrics:       metrics,
	}, nil
}

// Initialize prepares the processor (no-op for intent)
func (p *Processor) Initialize() error {
	return nil
}

// Start subscribes to the sample stream
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "IntentProcessor", "Start", "check running state")
	}

	if p.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "IntentProcessor", "Start", "NATS client required")
	}

	// Subscribe once; subsequent starts reuse the live subscription.
	if !p.subscribed {
		if err := p.natsClient.Subscribe(ctx, p.inputSubject, p.handleSample); err != nil {
			return errors.WrapTransient(err, "IntentProcessor", "Start",
				fmt.Sprintf("subscribe to %s", p.inputSubject))
		}
		p.subscribed = true
	}

	p.mu.Lock()
	p.running = true
	p.paused = false
	p.startTime = time.Now()
	p.mu.Unlock()

	p.logger.Info("Intent processor started",
		"component", p.name,
		"input_subject", p.inputSubject,
		"output_subject", p.outputSubject,
		"active", p.filter.ActiveAction())

	return nil
}

// Stop gates the handler off and waits for in-flight samples to drain.
// The subscription itself stays registered with the shared client until
// the client closes.
func (p *Processor) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	// Pause before waiting: handlers register with the WaitGroup under
	// the same lock, so after this no new work can begin.
	p.running = false
	p.paused = true
	p.mu.Unlock()

	waitCh := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		// Clean shutdown
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("shutdown timeout after %v", timeout),
			"IntentProcessor", "Stop", "graceful shutdown")
	}

	return nil
}

// handleSample runs one decoded sample through the filter. The NATS
// subscription delivers serially, so this is the only goroutine touching
// FilterState through Process.
func (p *Processor) handleSample(ctx context.Context, data []byte) {
	p.mu.Lock()
	if p.paused {
		// Stopped but still subscribed; drop until the next Start.
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.lastActivity = time.Now()
	p.mu.Unlock()
	defer p.wg.Done()

	atomic.AddInt64(&p.samplesProcessed, 1)

	var sample message.RawSample
	if err := json.Unmarshal(data, &sample); err != nil {
		atomic.AddInt64(&p.parseFailures, 1)
		atomic.AddInt64(&p.errors, 1)
		p.metrics.recordError(p.name, "parse")
		p.logger.Debug("Dropping unparseable sample",
			"component", p.name,
			"size_bytes", len(data),
			"error", err)
		return
	}

	before := p.filter.ActiveAction()

	start := time.Now()
	payload, err := p.filter.Process(sample.Action, sample.Confidence, sample.Source, timestamp.Now())
	duration := time.Since(start)

	if after := p.filter.ActiveAction(); after != before {
		p.metrics.recordTransition(p.name)
		p.logger.Info("Action transition",
			"component", p.name,
			"from", before,
			"to", after,
			"confidence", sample.Confidence)
	}

	if err != nil {
		atomic.AddInt64(&p.errors, 1)
		p.metrics.recordError(p.name, "serialize")
		p.logger.Warn("Skipping broadcast for unserializable event",
			"component", p.name,
			"action", sample.Action,
			"confidence", sample.Confidence,
			"error", err)
		return
	}

	if payload == nil {
		atomic.AddInt64(&p.suppressed, 1)
		p.metrics.recordSample(p.name, false, duration)
		return
	}

	if err := p.natsClient.Publish(ctx, p.outputSubject, payload); err != nil {
		atomic.AddInt64(&p.errors, 1)
		p.metrics.recordError(p.name, "publish")
		p.logger.Error("Failed to publish event",
			"component", p.name,
			"output_subject", p.outputSubject,
			"error", err)
		return
	}

	atomic.AddInt64(&p.broadcasts, 1)
	p.metrics.recordSample(p.name, true, duration)
	p.logger.Debug("Published event",
		"component", p.name,
		"output_subject", p.outputSubject,
		"active", p.filter.ActiveAction(),
		"size_bytes", len(payload))
}

// Read-only surface. The hub and status reporters poll these; none of
// them mutate state.

// ActiveAction returns the currently committed action.
func (p *Processor) ActiveAction() string {
	return p.filter.ActiveAction()
}

// LastConfidence returns the confidence of the most recent sample.
func (p *Processor) LastConfidence() float64 {
	return p.filter.LastConfidence()
}

// StateChanges returns how many transitions have committed.
func (p *Processor) StateChanges() int64 {
	return p.filter.StateChanges()
}

// SamplesProcessed returns how many samples the handler has seen.
func (p *Processor) SamplesProcessed() int64 {
	return atomic.LoadInt64(&p.samplesProcessed)
}

// Snapshot serializes current state as a broadcast-shaped event for late
// joiners and "state" queries.
func (p *Processor) Snapshot() ([]byte, error) {
	return p.filter.Snapshot()
}

// Discoverable interface implementation

// Meta returns metadata describing this processor component.
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "Hysteresis and debounce filter turning classifier samples into stable mental-command events",
		Version:     "1.0.0",
	}
}

// InputPorts returns the NATS input port this processor subscribes to.
func (p *Processor) InputPorts() []component.Port {
	return []component.Port{
		{
			Name:      "sample_input",
			Direction: component.DirectionInput,
			Required:  true,
			Config: component.NATSPort{
				Subject: p.inputSubject,
			},
		},
	}
}

// OutputPorts returns the NATS output port for command events.
func (p *Processor) OutputPorts() []component.Port {
	return []component.Port{
		{
			Name:      "event_output",
			Direction: component.DirectionOutput,
			Required:  true,
			Config: component.NATSPort{
				Subject: p.outputSubject,
			},
		},
	}
}

// ConfigSchema returns the configuration schema for this processor.
func (p *Processor) ConfigSchema() component.ConfigSchema {
	return intentSchema
}

// Health returns the current health status of this processor.
func (p *Processor) Health() component.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    p.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errors)),
		Uptime:     time.Since(p.startTime),
	}
}

// DataFlow returns current data flow metrics for this processor.
func (p *Processor) DataFlow() component.FlowMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	processed := atomic.LoadInt64(&p.samplesProcessed)
	errorCount := atomic.LoadInt64(&p.errors)

	var samplesPerSecond float64
	var errorRate float64

	if uptime := time.Since(p.startTime).Seconds(); p.running && uptime > 0 {
		samplesPerSecond = float64(processed) / uptime
	}
	if processed > 0 {
		errorRate = float64(errorCount) / float64(processed)
	}

	return component.FlowMetrics{
		MessagesPerSecond: samplesPerSecond,
		BytesPerSecond:    0,
		ErrorRate:         errorRate,
		LastActivity:      p.lastActivity,
	}
}

// Register registers the intent processor component with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "intent",
		Factory:     NewProcessor,
		Schema:      intentSchema,
		Type:        "processor",
		Protocol:    "intent",
		Domain:      "processing",
		Description: "Action filter turning noisy classifier samples into debounced command events",
		Version:     "1.0.0",
	})
}
