package udp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/message"
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/pkg/buffer"
	"github.com/c360/neurostreams/pkg/retry"
	"github.com/c360/neurostreams/pkg/timestamp"
	"github.com/c360/neurostreams/pkg/wire"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the UDP sample listener
type Metrics struct {
	packetsReceived   prometheus.Counter
	bytesReceived     prometheus.Counter
	samplesDecoded    prometheus.Counter
	decodeFailures    prometheus.Counter
	packetsDropped    prometheus.Counter
	bufferUtilization prometheus.Gauge
	batchSize         prometheus.Histogram
	publishLatency    prometheus.Histogram
	socketErrors      prometheus.Counter
	lastActivity      prometheus.Gauge
}

// newMetrics creates and registers UDP listener metrics. The port label
// keeps multiple listeners in one process from colliding in Prometheus.
func newMetrics(registry *metric.MetricsRegistry, port int) *Metrics {
	// Return nil if no registry provided (nil input = nil feature pattern)
	if registry == nil {
		return nil
	}

	portLabel := prometheus.Labels{"port": strconv.Itoa(port)}

	metrics := &Metrics{
		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "packets_received_total",
			Help:        "Total UDP datagrams received",
			ConstLabels: portLabel,
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "bytes_received_total",
			Help:        "Total bytes received from UDP",
			ConstLabels: portLabel,
		}),
		samplesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "samples_decoded_total",
			Help:        "Datagrams decoded into classifier samples",
			ConstLabels: portLabel,
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "decode_failures_total",
			Help:        "Datagrams dropped because no codec accepted them",
			ConstLabels: portLabel,
		}),
		packetsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "packets_dropped_total",
			Help:        "Decoded samples dropped due to buffer full",
			ConstLabels: portLabel,
		}),
		bufferUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "buffer_utilization_ratio",
			Help:        "Buffer usage (0-1) showing backpressure",
			ConstLabels: portLabel,
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "batch_size",
			Help:        "Distribution of publish batch sizes",
			Buckets:     []float64{1, 5, 10, 20, 50, 100, 200, 500},
			ConstLabels: portLabel,
		}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "publish_duration_seconds",
			Help:        "Time to publish samples to NATS",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			ConstLabels: portLabel,
		}),
		socketErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "socket_errors_total",
			Help:        "Socket read errors encountered",
			ConstLabels: portLabel,
		}),
		lastActivity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "neurostreams",
			Subsystem:   "udp",
			Name:        "last_activity_timestamp",
			Help:        "Unix timestamp of last received datagram",
			ConstLabels: portLabel,
		}),
	}

	serviceName := fmt.Sprintf("udp_%d", port)
	registry.RegisterCounter(serviceName, "packets_received", metrics.packetsReceived)
	registry.RegisterCounter(serviceName, "bytes_received", metrics.bytesReceived)
	registry.RegisterCounter(serviceName, "samples_decoded", metrics.samplesDecoded)
	registry.RegisterCounter(serviceName, "decode_failures", metrics.decodeFailures)
	registry.RegisterCounter(serviceName, "packets_dropped", metrics.packetsDropped)
	registry.RegisterGauge(serviceName, "buffer_utilization", metrics.bufferUtilization)
	registry.RegisterHistogram(serviceName, "batch_size", metrics.batchSize)
	registry.RegisterHistogram(serviceName, "publish_latency", metrics.publishLatency)
	registry.RegisterCounter(serviceName, "socket_errors", metrics.socketErrors)
	registry.RegisterGauge(serviceName, "last_activity", metrics.lastActivity)

	return metrics
}

// Input owns the UDP socket classifier datagrams arrive on. Every
// datagram is decoded through the wire codecs; samples that decode are
// published to NATS as RawSample JSON, datagrams that do not are
// dropped with a debug diagnostic and the loop keeps reading.
type Input struct {
	name       string
	port       int
	bind       string
	subject    string
	natsClient *natsclient.Client
	logger     *slog.Logger

	// Decoded payloads waiting to be published
	buffer buffer.Buffer[[]byte]

	// Retry configuration
	retryConfig retry.Config

	// Lifecycle management. lifecycleMu serializes Start and Stop; the
	// read loop gets its shutdown channel as a parameter and closes done
	// when it exits, so Stop can wait on a stable channel.
	shutdown    chan struct{}
	done        chan struct{}
	running     atomic.Bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	conn        *net.UDPConn

	// Counters (atomic for thread safety)
	packetsReceived atomic.Int64
	bytesReceived   atomic.Int64
	samplesDecoded  atomic.Int64
	decodeFailures  atomic.Int64
	errors          atomic.Int64
	lastActivity    atomic.Value // stores time.Time

	// Prometheus metrics
	metrics *Metrics
}

// Ensure Input implements all required interfaces
var _ component.Discoverable = (*Input)(nil)
var _ component.LifecycleComponent = (*Input)(nil)

// udpSchema defines the configuration schema for the UDP listener
// Generated from InputConfig struct tags using reflection
var udpSchema = component.GenerateConfigSchema(reflect.TypeOf(InputConfig{}))

// InputConfig holds configuration for the UDP listener
type InputConfig struct {
	// Port configuration for inputs and outputs
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`
}

// Validate implements component.Validatable interface for secure config validation
func (c *InputConfig) Validate() error {
	if c.Ports == nil {
		return nil
	}

	// Check input ports
	for _, input := range c.Ports.Inputs {
		if input.Type == "network" && input.Subject != "" {
			// Parse network port from subject (udp://host:port format)
			if len(input.Subject) > 6 && input.Subject[:6] == "udp://" {
				hostPort := input.Subject[6:]
				host, portStr, err := net.SplitHostPort(hostPort)
				if err != nil {
					return errors.WrapInvalid(
						fmt.Errorf("invalid UDP address format: %s", input.Subject),
						"InputConfig", "Validate", "address parsing")
				}
				port, err := strconv.Atoi(portStr)
				if err != nil {
					return errors.WrapInvalid(
						fmt.Errorf("invalid port number: %s", portStr),
						"InputConfig", "Validate", "port parsing")
				}
				if err := component.ValidateNetworkConfig(port, host); err != nil {
					return errors.Wrap(err, "InputConfig", "Validate", "network port validation")
				}
			}
		}
	}

	// Check output ports
	for _, output := range c.Ports.Outputs {
		if output.Type == "nats" && output.Subject == "" {
			return errors.WrapInvalid(
				errors.ErrInvalidConfig,
				"InputConfig", "Validate", "NATS output subject validation")
		}
	}

	return nil
}

// DefaultConfig returns sensible defaults for the UDP listener
func DefaultConfig() InputConfig {
	return InputConfig{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "udp_socket",
					Type:        "network",
					Subject:     "udp://0.0.0.0:7400",
					Required:    true,
					Description: "UDP socket listening for classifier datagrams",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "nats_output",
					Type:        "nats",
					Subject:     "neuro.samples.decoded",
					Required:    true,
					Description: "NATS subject for publishing decoded samples",
				},
			},
		},
	}
}

// getConfiguredPorts extracts port configuration from config
func (c *InputConfig) getConfiguredPorts() (port int, bind, subject string) {
	var hasPortsConfig bool

	if c.Ports != nil {
		hasPortsConfig = true

		// Extract UDP network port from input port subject (udp://host:port format)
		for _, input := range c.Ports.Inputs {
			if input.Type == "network" && input.Subject != "" {
				if len(input.Subject) > 6 && input.Subject[:6] == "udp://" {
					hostPort := input.Subject[6:]
					if host, portStr, err := net.SplitHostPort(hostPort); err == nil {
						if parsedPort, err := strconv.Atoi(portStr); err == nil {
							port = parsedPort
							bind = host
						}
					}
				}
				break
			}
		}
		// Extract NATS output subject (including empty ones for validation)
		for _, output := range c.Ports.Outputs {
			if output.Type == "nats" {
				subject = output.Subject
				break
			}
		}
	}

	if port == 0 {
		port = 7400
	}
	if bind == "" {
		bind = "0.0.0.0"
	}
	// When port config exists, keep subject as-is (including empty) for
	// validation to reject; otherwise apply the default.
	if !hasPortsConfig && subject == "" {
		subject = "neuro.samples.decoded"
	}

	return port, bind, subject
}

// InputDeps holds runtime dependencies for the UDP listener
type InputDeps struct {
	Name            string                  // Instance name
	Config          InputConfig             // Business logic configuration
	NATSClient      *natsclient.Client      // Runtime dependency
	MetricsRegistry *metric.MetricsRegistry // Runtime dependency
	Logger          *slog.Logger            // Runtime dependency
}

// NewInput creates a new UDP listener component
func NewInput(deps InputDeps) *Input {
	var bufferOpts []buffer.Option[[]byte]
	bufferOpts = append(bufferOpts, buffer.WithOverflowPolicy[[]byte](buffer.DropOldest))

	if deps.MetricsRegistry != nil {
		bufferOpts = append(bufferOpts, buffer.WithMetrics[[]byte](deps.MetricsRegistry, "udp_input"))
	}

	port, bind, subject := deps.Config.getConfiguredPorts()

	var metrics *Metrics
	if deps.MetricsRegistry != nil {
		metrics = newMetrics(deps.MetricsRegistry, port)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "udp-input", "port", port)
	}

	// Bounded queue between the socket loop and NATS publishing. The
	// oldest sample is the least valuable under burst, so overflow
	// drops from the tail.
	sampleBuffer, err := buffer.NewCircularBuffer(5000, bufferOpts...)
	if err != nil {
		logger.Error("Failed to create sample buffer", "error", err)
		return nil
	}

	u := &Input{
		name:        deps.Name,
		port:        port,
		bind:        bind,
		subject:     subject,
		natsClient:  deps.NATSClient,
		logger:      logger,
		buffer:      sampleBuffer,
		retryConfig: retry.DefaultConfig(),
		startTime:   time.Now(),
		metrics:     metrics,
	}
	u.lastActivity.Store(time.Time{})
	return u
}

// Meta returns the component metadata
func (u *Input) Meta() component.Metadata {
	name := u.name
	if name == "" {
		name = fmt.Sprintf("udp-input-%d", u.port)
	}

	return component.Metadata{
		Name:        name,
		Type:        "input",
		Description: fmt.Sprintf("UDP sample listener on %s:%d publishing decoded samples to %s", u.bind, u.port, u.subject),
		Version:     "1.0.0",
	}
}

// InputPorts returns the input ports for this component
func (u *Input) InputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "udp_socket",
			Direction:   component.DirectionInput,
			Required:    true,
			Description: fmt.Sprintf("UDP socket listening on %s:%d", u.bind, u.port),
			Config: component.NetworkPort{
				Protocol: "udp",
				Host:     u.bind,
				Port:     u.port,
			},
		},
	}
}

// OutputPorts returns the output ports for this component
func (u *Input) OutputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "nats_output",
			Direction:   component.DirectionOutput,
			Required:    true,
			Description: "NATS subject for publishing decoded samples",
			Config: component.NATSPort{
				Subject: u.subject,
			},
		},
	}
}

// ConfigSchema returns the configuration schema for this component
func (u *Input) ConfigSchema() component.ConfigSchema {
	return udpSchema
}

// Health returns the current health status of the component
func (u *Input) Health() component.HealthStatus {
	u.mu.RLock()
	running := u.running.Load()
	connected := u.conn != nil
	u.mu.RUnlock()

	errorCount := u.errors.Load()
	healthy := running && connected

	return component.HealthStatus{
		Healthy:    healthy,
		LastCheck:  time.Now(),
		ErrorCount: int(errorCount),
		LastError:  "",
		Uptime:     time.Since(u.startTime),
	}
}

// DataFlow returns the current data flow metrics
func (u *Input) DataFlow() component.FlowMetrics {
	packets := u.packetsReceived.Load()
	bytes := u.bytesReceived.Load()
	// Decode failures are routine stray traffic, not errors; they have
	// their own counter and metric.
	errorCount := u.errors.Load()
	lastActivity, _ := u.lastActivity.Load().(time.Time)

	var packetsPerSecond float64
	var bytesPerSecond float64
	var errorRate float64

	if uptime := time.Since(u.startTime).Seconds(); uptime > 0 {
		packetsPerSecond = float64(packets) / uptime
		bytesPerSecond = float64(bytes) / uptime
	}

	if packets > 0 {
		errorRate = float64(errorCount) / float64(packets)
	}

	return component.FlowMetrics{
		MessagesPerSecond: packetsPerSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

// PacketsReceived reports how many datagrams the socket has delivered,
// including ones that later failed to decode.
func (u *Input) PacketsReceived() int64 {
	return u.packetsReceived.Load()
}

// SamplesDecoded reports how many datagrams decoded into samples.
func (u *Input) SamplesDecoded() int64 {
	return u.samplesDecoded.Load()
}

// DecodeFailures reports how many datagrams were dropped because no
// codec accepted them.
func (u *Input) DecodeFailures() int64 {
	return u.decodeFailures.Load()
}

// Initialize prepares the UDP listener but does not start it
func (u *Input) Initialize() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	// Validate configuration (0 is allowed for OS auto-assignment)
	if u.port < 0 || u.port > 65535 {
		return errors.WrapInvalid(fmt.Errorf("invalid port %d", u.port),
			"udp-input", "Initialize", "port validation")
	}

	if u.subject == "" {
		return errors.WrapInvalid(fmt.Errorf("empty subject"),
			"udp-input", "Initialize", "subject validation")
	}

	if u.natsClient == nil {
		return errors.WrapInvalid(fmt.Errorf("nil NATS client"),
			"udp-input", "Initialize", "NATS client validation")
	}

	return nil
}

// Start binds the UDP socket and begins the receive loop. A bind
// failure after retries is fatal: the port belongs to this pipeline or
// the process has no reason to run.
func (u *Input) Start(ctx context.Context) error {
	u.lifecycleMu.Lock()
	defer u.lifecycleMu.Unlock()

	if u.running.Load() {
		return nil // Already running, idempotent
	}

	var conn *net.UDPConn
	bindOperation := func() error {
		bound, err := u.bindSocket()
		if err != nil {
			return err
		}
		conn = bound
		return nil
	}

	if err := retry.Do(ctx, u.retryConfig, bindOperation); err != nil {
		return errors.WrapFatal(err, "udp-input", "Start", "socket binding")
	}

	shutdown := make(chan struct{})
	done := make(chan struct{})

	u.mu.Lock()
	u.conn = conn
	u.shutdown = shutdown
	u.done = done
	u.startTime = time.Now()
	u.mu.Unlock()

	u.running.Store(true)

	go func() {
		defer close(done)
		u.readLoop(ctx, shutdown)
	}()

	return nil
}

// bindSocket creates and binds the UDP socket
func (u *Input) bindSocket() (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", u.bind, u.port))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address %s:%d: %w", u.bind, u.port, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: port %d: %v", errors.ErrBindFailed, u.port, err)
	}

	// Increase OS socket buffer to ride out classifier bursts
	const socketBufferSize = 2 * 1024 * 1024 // 2MB buffer
	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		// Log warning but don't fail - some systems limit buffer size
		if u.logger != nil {
			u.logger.Warn("Could not set UDP buffer size",
				"buffer_size", socketBufferSize,
				"port", u.port,
				"error", err)
		}
	}

	return conn, nil
}

// Stop gracefully stops the UDP listener with the specified timeout
func (u *Input) Stop(timeout time.Duration) error {
	return u.StopWithTimeout(timeout)
}

// StopWithTimeout gracefully stops the UDP listener with the specified timeout
func (u *Input) StopWithTimeout(timeout time.Duration) error {
	u.lifecycleMu.Lock()
	defer u.lifecycleMu.Unlock()

	if !u.running.Load() {
		return nil
	}

	u.running.Store(false)

	// Signal shutdown and close the socket to unblock the read loop
	u.mu.Lock()
	done := u.done
	if u.shutdown != nil {
		close(u.shutdown)
	}
	if u.conn != nil {
		_ = u.conn.Close()
	}
	u.mu.Unlock()

	if done != nil {
		select {
		case <-done:
			// Goroutine finished cleanly
		case <-time.After(timeout):
			return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
				"udp-input", "Stop", "graceful shutdown")
		}
	}

	u.cleanup()
	return nil
}

// cleanup clears lifecycle state so a later Start begins fresh
func (u *Input) cleanup() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.shutdown = nil
	u.done = nil
	if u.conn != nil {
		_ = u.conn.Close()
		u.conn = nil
	}
	// Drain rather than close: a restarted input reuses the buffer, and
	// samples queued before the stop are stale by the next session.
	if u.buffer != nil {
		u.buffer.Clear()
	}
}

// readLoop receives one datagram at a time, decodes it, and queues the
// decoded sample for publishing. Decode failures are dropped with a
// debug diagnostic only; the loop never stops over a bad datagram.
func (u *Input) readLoop(ctx context.Context, shutdown <-chan struct{}) {
	udpBuffer := make([]byte, 65536) // Largest possible UDP payload

	for u.running.Load() {
		// Check if we should stop
		select {
		case <-ctx.Done():
			return
		case <-shutdown:
			return
		default:
		}

		// Get connection under lock and check if we should continue
		u.mu.RLock()
		if !u.running.Load() || u.conn == nil {
			u.mu.RUnlock()
			return
		}
		conn := u.conn
		u.mu.RUnlock()

		// Set read deadline to check shutdown periodically
		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

		n, _, err := conn.ReadFromUDP(udpBuffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				// Timeout is expected, continue the loop
				continue
			}

			// Check if stopped
			select {
			case <-ctx.Done():
				return
			case <-shutdown:
				return
			default:
				u.errors.Add(1)

				if u.metrics != nil {
					u.metrics.socketErrors.Inc()
				}

				// For non-recoverable errors, exit gracefully
				if !errors.IsTransient(err) {
					return
				}
				continue
			}
		}

		// Update counters atomically
		u.packetsReceived.Add(1)
		u.bytesReceived.Add(int64(n))
		now := time.Now()
		u.lastActivity.Store(now)

		if u.metrics != nil {
			u.metrics.packetsReceived.Inc()
			u.metrics.bytesReceived.Add(float64(n))
			u.metrics.lastActivity.Set(float64(now.Unix()))
		}

		// Decode before buffering so garbage never costs a publish.
		// Stray traffic on the port is routine, not an error.
		sample, err := wire.Decode(udpBuffer[:n])
		if err != nil {
			u.decodeFailures.Add(1)
			if u.metrics != nil {
				u.metrics.decodeFailures.Inc()
			}
			u.logger.Debug("Dropping undecodable datagram", "bytes", n, "error", err)
			continue
		}

		raw := message.RawSample{
			Action:     sample.Action,
			Confidence: sample.Confidence,
			Source:     sample.Source,
			ReceivedAt: timestamp.Now(),
		}
		payload, err := json.Marshal(raw)
		if err != nil {
			u.errors.Add(1)
			u.logger.Debug("Failed to encode sample", "action", raw.Action, "error", err)
			continue
		}

		u.samplesDecoded.Add(1)
		if u.metrics != nil {
			u.metrics.samplesDecoded.Inc()
		}

		// Queue the payload
		if err := u.buffer.Write(payload); err != nil {
			if u.metrics != nil {
				u.metrics.packetsDropped.Inc()
			}
			continue
		}

		if u.metrics != nil {
			u.metrics.bufferUtilization.Set(float64(u.buffer.Size()) / float64(u.buffer.Capacity()))
		}

		// Publish queued samples
		u.processBufferedSamples(ctx)
	}
}

// processBufferedSamples drains queued payloads and publishes to NATS
func (u *Input) processBufferedSamples(ctx context.Context) {
	// Process payloads in batches to avoid holding the buffer for too long
	const maxBatchSize = 100
	payloads := u.buffer.ReadBatch(maxBatchSize)

	if u.metrics != nil && len(payloads) > 0 {
		u.metrics.batchSize.Observe(float64(len(payloads)))
	}

	for _, payload := range payloads {
		if !u.running.Load() {
			break
		}

		publishOperation := func() error {
			return u.publishToNATS(ctx, payload)
		}

		if err := retry.Do(ctx, u.retryConfig, publishOperation); err != nil {
			u.errors.Add(1)
			// Continue processing other payloads even if one fails
		}
	}
}

// publishToNATS publishes a decoded sample to the configured NATS subject
func (u *Input) publishToNATS(_ context.Context, payload []byte) error {
	if u.natsClient == nil {
		return errors.WrapInvalid(fmt.Errorf("NATS client not available"),
			"udp-input", "publishToNATS", "NATS client check")
	}

	nc := u.natsClient.GetConnection()
	if nc == nil {
		return errors.WrapTransient(fmt.Errorf("NATS connection not available"),
			"udp-input", "publishToNATS", "NATS connection check")
	}

	var start time.Time
	if u.metrics != nil {
		start = time.Now()
	}

	if err := nc.Publish(u.subject, payload); err != nil {
		return errors.WrapTransient(err, "udp-input", "publishToNATS", "NATS publish")
	}

	if u.metrics != nil {
		u.metrics.publishLatency.Observe(time.Since(start).Seconds())
	}

	return nil
}

// CreateInput creates a UDP listener component following service pattern
func CreateInput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Use SafeUnmarshal to validate and parse config before accepting it
	if len(rawConfig) > 0 {
		var userConfig InputConfig
		if err := component.SafeUnmarshal(rawConfig, &userConfig); err != nil {
			return nil, errors.Wrap(err, "udp-input-factory", "create", "secure config parsing")
		}

		// Apply user overrides (already validated by SafeUnmarshal)
		if userConfig.Ports != nil {
			cfg.Ports = userConfig.Ports
		}
	}

	// Validate required dependencies
	if deps.NATSClient == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("NATS client is required"),
			"udp-input-factory", "create", "NATS client validation")
	}

	inputDeps := InputDeps{
		Name:            "udp-input", // Default name, will be overridden by ComponentManager
		Config:          cfg,
		NATSClient:      deps.NATSClient,
		MetricsRegistry: deps.MetricsRegistry,
		Logger:          deps.GetLoggerWithComponent("udp-input"),
	}

	return NewInput(inputDeps), nil
}

// Register registers the UDP listener component with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "udp",
		Factory:     CreateInput,
		Schema:      udpSchema,
		Type:        "input",
		Protocol:    "udp",
		Domain:      "network",
		Description: "UDP listener decoding OSC and CSV classifier datagrams",
		Version:     "1.0.0",
	})
}
