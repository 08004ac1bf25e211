// Package websocket provides the push hub that broadcasts mental-command
// events to connected WebSocket subscribers
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	// sweepInterval is how often the hub pings subscribers and evicts the
	// silent ones.
	sweepInterval = 30 * time.Second

	// staleAfter is how long a subscriber may go without a pong before the
	// sweep closes it. Two sweep cycles, so a subscriber that answered the
	// previous sweep is never evicted by jitter.
	staleAfter = 2 * sweepInterval

	// writeWait bounds every write to a subscriber.
	writeWait = 5 * time.Second

	// pongWait is the read deadline, refreshed by pongs and inbound
	// messages. The sweep evicts stale subscribers well before this.
	pongWait = 90 * time.Second
)

// Config holds configuration for the WebSocket hub component
type Config struct {
	// Port configuration for inputs and outputs
	Ports *component.PortConfig `json:"ports"                           schema:"type:ports,description:Port configuration,category:basic"`
	// StateQueriesPerSecond bounds how often a single subscriber can ask
	// for a state snapshot
	StateQueriesPerSecond float64 `json:"stateQueriesPerSecond,omitempty" schema:"type:float,description:Per-subscriber budget for state queries,default:5,min:1,max:100,category:advanced"`
}

// DefaultConfig returns the default configuration for the WebSocket hub
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "event_input",
					Type:        "nats",
					Subject:     "neuro.events.command",
					Required:    true,
					Description: "Serialized command events to fan out",
				},
			},
			Outputs: []component.PortDefinition{
				{
					// Network endpoints are encoded as URLs in the
					// Subject field
					Name:        "websocket_server",
					Type:        "network",
					Subject:     "http://0.0.0.0:8181/ws",
					Required:    false,
					Description: "WebSocket endpoint subscribers connect to",
				},
			},
		},
		StateQueriesPerSecond: 5,
	}
}

// websocketSchema defines the configuration schema for the hub component
var websocketSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// StateSource supplies the current pipeline state as a broadcast-shaped
// payload. The hub sends it to new subscribers on connect and on "state"
// queries, so late joiners never wait for the next transition.
type StateSource interface {
	Snapshot() ([]byte, error)
}

// ConstructorConfig holds all configuration needed to construct an Output
// instance
type ConstructorConfig struct {
	Name                  string                  // Component name (empty = auto-generate)
	Port                  int                     // WebSocket server port
	Path                  string                  // WebSocket endpoint path
	Subject               string                  // NATS subject carrying event payloads
	StateQueriesPerSecond float64                 // Per-subscriber state query budget
	NATSClient            *natsclient.Client      // NATS client for messaging
	MetricsRegistry       *metric.MetricsRegistry // Optional Prometheus metrics registry
	Logger                *slog.Logger            // Optional structured logger
	StateSource           StateSource             // Optional snapshot provider, may be wired later
}

// DefaultConstructorConfig returns sensible defaults for Output construction
func DefaultConstructorConfig() ConstructorConfig {
	return ConstructorConfig{
		Port:                  8181,
		Path:                  "/ws",
		Subject:               "neuro.events.command",
		StateQueriesPerSecond: 5,
	}
}

// Output is the WebSocket hub: it subscribes to the command-event subject
// and forwards every payload, byte for byte, to all connected
// subscribers. The event bytes are serialized exactly once upstream;
// the hub never re-encodes them, so every subscriber sees identical
// frames. A failing subscriber is evicted without disturbing the rest.
type Output struct {
	name       string
	port       int
	path       string
	subject    string
	stateQPS   float64
	natsClient *natsclient.Client
	logger     *slog.Logger

	// Snapshot state for late joiners
	stateMu     sync.RWMutex
	stateSource StateSource
	lastEvent   []byte

	// WebSocket server
	server        *http.Server
	listener      net.Listener
	upgrader      websocket.Upgrader
	subscribers   map[*websocket.Conn]*subscriber
	subscribersMu sync.RWMutex

	// Lifecycle management. The shared NATS client holds subscriptions
	// until it closes, so a restart must not subscribe twice.
	shutdown       chan struct{}
	done           chan struct{}
	running        bool
	natsSubscribed bool
	startTime      time.Time
	mu             sync.RWMutex
	lifecycleMu    sync.Mutex      // Serializes Start/Stop
	wg             *sync.WaitGroup // Fresh per start cycle

	// Counters
	eventsReceived int64
	messagesSent   int64
	bytesSent      int64
	errors         int64
	lastActivity   time.Time

	// Prometheus metrics
	metrics *Metrics
}

// subscriber is one connected WebSocket client.
type subscriber struct {
	id           string
	conn         *websocket.Conn
	connectedAt  time.Time
	lastPong     atomic.Value // stores time.Time
	closed       atomic.Bool
	closeOnce    sync.Once
	writeMu      sync.Mutex // gorilla/websocket allows a single writer per connection
	stateLimiter *rate.Limiter
}

// Ensure Output implements all required interfaces
var _ component.Discoverable = (*Output)(nil)
var _ component.LifecycleComponent = (*Output)(nil)

// Metrics holds Prometheus metrics for the hub component
type Metrics struct {
	eventsReceived      prometheus.Counter
	messagesSent        prometheus.Counter
	bytesSent           prometheus.Counter
	subscribersActive   prometheus.Gauge
	connectionsTotal    prometheus.Counter
	disconnectionsTotal *prometheus.CounterVec
	broadcastDuration   prometheus.Histogram
	messageSizeBytes    prometheus.Histogram
	errorsTotal         *prometheus.CounterVec
	serverUptimeSeconds prometheus.Gauge
}

// newMetrics creates and registers hub metrics
func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	// Return nil if no registry provided (nil input = nil feature pattern)
	if registry == nil {
		return nil
	}

	metrics := &Metrics{
		eventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "events_received_total",
			Help:      "Command events received from NATS",
		}),

		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "messages_sent_total",
			Help:      "Messages delivered to subscribers",
		}),

		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "bytes_sent_total",
			Help:      "Bytes delivered to subscribers",
		}),

		subscribersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "subscribers_connected",
			Help:      "Currently connected subscribers",
		}),

		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "subscriber_connections_total",
			Help:      "Total subscriber connections, including disconnected",
		}),

		disconnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "subscriber_disconnections_total",
			Help:      "Total subscriber disconnections",
		}, []string{"reason"}),

		broadcastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Time to fan one event out to all subscribers",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),

		messageSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "message_size_bytes",
			Help:      "Size distribution of outgoing messages",
			Buckets:   []float64{64, 128, 256, 512, 1024, 2048, 5000},
		}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "errors_total",
			Help:      "Hub server errors",
		}, []string{"error_type"}),

		serverUptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neurostreams",
			Subsystem: "websocket",
			Name:      "server_uptime_seconds",
			Help:      "Hub server uptime in seconds",
		}),
	}

	registry.PrometheusRegistry().MustRegister(
		metrics.eventsReceived,
		metrics.messagesSent,
		metrics.bytesSent,
		metrics.subscribersActive,
		metrics.connectionsTotal,
		metrics.disconnectionsTotal,
		metrics.broadcastDuration,
		metrics.messageSizeBytes,
		metrics.errorsTotal,
		metrics.serverUptimeSeconds,
	)

	return metrics
}

// NewOutput creates a WebSocket hub with minimal configuration.
// For more control over configuration, use NewOutputFromConfig().
func NewOutput(port int, path, subject string, natsClient *natsclient.Client) *Output {
	cfg := DefaultConstructorConfig()
	cfg.Port = port
	cfg.Path = path
	cfg.Subject = subject
	cfg.NATSClient = natsClient
	return NewOutputFromConfig(cfg)
}

// NewOutputFromConfig creates a WebSocket hub from ConstructorConfig.
func NewOutputFromConfig(cfg ConstructorConfig) *Output {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "websocket-output")
	}

	stateQPS := cfg.StateQueriesPerSecond
	if stateQPS <= 0 {
		stateQPS = 5
	}

	upgrader := websocket.Upgrader{
		// The hub carries no credentials and serves local tooling, so any
		// origin may connect
		CheckOrigin:     func(_ *http.Request) bool { return true },
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	return &Output{
		name:        cfg.Name,
		port:        cfg.Port,
		path:        cfg.Path,
		subject:     cfg.Subject,
		stateQPS:    stateQPS,
		natsClient:  cfg.NATSClient,
		logger:      logger,
		stateSource: cfg.StateSource,
		upgrader:    upgrader,
		subscribers: make(map[*websocket.Conn]*subscriber),
		startTime:   time.Now(),
		metrics:     newMetrics(cfg.MetricsRegistry),
	}
}

// SetStateSource wires the snapshot provider. Called once during pipeline
// assembly, before Start; the hub falls back to the last broadcast event
// when no source is set.
func (w *Output) SetStateSource(src StateSource) {
	w.stateMu.Lock()
	w.stateSource = src
	w.stateMu.Unlock()
}

// ConnectedSubscriberCount returns the number of currently connected
// subscribers.
func (w *Output) ConnectedSubscriberCount() int {
	w.subscribersMu.RLock()
	defer w.subscribersMu.RUnlock()
	return len(w.subscribers)
}

// snapshotPayload returns the best available state payload: a fresh
// snapshot from the state source, or the last event that went out.
func (w *Output) snapshotPayload() []byte {
	w.stateMu.RLock()
	src := w.stateSource
	last := w.lastEvent
	w.stateMu.RUnlock()

	if src != nil {
		payload, err := src.Snapshot()
		if err == nil {
			return payload
		}
		atomic.AddInt64(&w.errors, 1)
		if w.metrics != nil {
			w.metrics.errorsTotal.WithLabelValues("snapshot").Inc()
		}
		w.logger.Warn("State snapshot failed, falling back to last event", "error", err)
	}
	return last
}

// Meta returns the component metadata
func (w *Output) Meta() component.Metadata {
	name := w.name
	if name == "" {
		name = fmt.Sprintf("websocket-output-%d", w.port)
	}

	return component.Metadata{
		Name:        name,
		Type:        "output",
		Description: fmt.Sprintf("WebSocket hub on %s:%d broadcasting events from %s", w.path, w.port, w.subject),
		Version:     "1.0.0",
	}
}

// InputPorts returns the input ports for this component
func (w *Output) InputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "event_input",
			Direction:   component.DirectionInput,
			Required:    true,
			Description: fmt.Sprintf("NATS subscription for %s", w.subject),
			Config: component.NATSPort{
				Subject: w.subject,
			},
		},
	}
}

// OutputPorts returns the output ports for this component
func (w *Output) OutputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "websocket_endpoint",
			Direction:   component.DirectionOutput,
			Required:    false,
			Description: fmt.Sprintf("WebSocket endpoint at ws://localhost:%d%s", w.port, w.path),
			Config: component.NetworkPort{
				Protocol: "websocket",
				Host:     "localhost",
				Port:     w.port,
			},
		},
	}
}

// ConfigSchema returns the configuration schema for this component
func (w *Output) ConfigSchema() component.ConfigSchema {
	return websocketSchema
}

// Health returns the current health status of the component
func (w *Output) Health() component.HealthStatus {
	w.mu.RLock()
	running := w.running
	serverRunning := w.server != nil
	w.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    running && serverRunning,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&w.errors)),
		Uptime:     time.Since(w.startTime),
	}
}

// DataFlow returns the current data flow metrics
func (w *Output) DataFlow() component.FlowMetrics {
	messages := atomic.LoadInt64(&w.messagesSent)
	bytes := atomic.LoadInt64(&w.bytesSent)
	errCount := atomic.LoadInt64(&w.errors)

	w.mu.RLock()
	lastActivity := w.lastActivity
	w.mu.RUnlock()

	var messagesPerSecond float64
	var bytesPerSecond float64
	var errorRate float64

	if uptime := time.Since(w.startTime).Seconds(); uptime > 0 {
		messagesPerSecond = float64(messages) / uptime
		bytesPerSecond = float64(bytes) / uptime
	}
	if messages > 0 {
		errorRate = float64(errCount) / float64(messages)
	}

	return component.FlowMetrics{
		MessagesPerSecond: messagesPerSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

// Initialize validates configuration but does not start the server
func (w *Output) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Port 0 binds a random port, used by tests
	if w.port != 0 && (w.port < 1024 || w.port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "Initialize",
			fmt.Sprintf("invalid port %d (out of range 1024-65535)", w.port))
	}

	if w.path == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "Initialize", "WebSocket path cannot be empty")
	}

	if w.subject == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "Initialize", "event subject cannot be empty")
	}

	// NATS client is optional for testing - broadcasts can be driven
	// directly

	return nil
}

// Start binds the listener, subscribes to the event subject, and begins
// serving subscribers. A bind failure is fatal: the push port belongs to
// this pipeline, and starting without it would leave a hub nobody can
// reach.
func (w *Output) Start(ctx context.Context) error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := w.validateContext(ctx); err != nil {
		return err
	}

	w.setupShutdownChannels()

	var cleanupErr error
	defer func() {
		if cleanupErr != nil {
			w.cleanupOnError()
		}
	}()

	// Bind synchronously so a port conflict aborts startup here instead
	// of surfacing later from the serve loop
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", w.port))
	if err != nil {
		cleanupErr = err
		return errors.WrapFatal(err, "Output", "Start",
			fmt.Sprintf("bind push port %d", w.port))
	}
	w.listener = listener

	w.setupHTTPServer()

	if err := w.subscribeToNATS(ctx); err != nil {
		cleanupErr = err
		return errors.Wrap(err, "Output", "Start",
			fmt.Sprintf("subscribe to %s", w.subject))
	}

	w.running = true
	w.startTime = time.Now()
	w.startBackgroundGoroutines(ctx)

	w.logger.Info("WebSocket hub started",
		"addr", listener.Addr().String(),
		"path", w.path,
		"subject", w.subject)

	return nil
}

// validateContext checks if the provided context is valid
func (w *Output) validateContext(ctx context.Context) error {
	if ctx == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "Start", "context cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "Output", "Start", "context already cancelled or timed out")
	}
	return nil
}

// setupShutdownChannels creates channels for coordinated shutdown
func (w *Output) setupShutdownChannels() {
	w.shutdown = make(chan struct{})
	w.done = make(chan struct{})
}

// cleanupOnError releases resources when Start fails partway
func (w *Output) cleanupOnError() {
	if w.shutdown != nil {
		close(w.shutdown)
		w.shutdown = nil
	}
	if w.done != nil {
		close(w.done)
		w.done = nil
	}
	if w.listener != nil {
		_ = w.listener.Close()
		w.listener = nil
	}
	w.server = nil
}

// setupHTTPServer configures the HTTP server with the WebSocket endpoint
func (w *Output) setupHTTPServer() {
	mux := http.NewServeMux()
	mux.HandleFunc(w.path, w.handleWebSocket)

	w.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// startBackgroundGoroutines starts the serve loop and the liveness sweep.
// The wait group and shutdown channel are handed to each goroutine
// directly; Stop clears the fields, so goroutines never read them back.
func (w *Output) startBackgroundGoroutines(ctx context.Context) {
	// Fresh wait group per start cycle to avoid reuse issues
	w.wg = &sync.WaitGroup{}
	shutdown := w.shutdown

	goroutineCount := 2 // runServer + maintainSubscribers
	if w.metrics != nil {
		goroutineCount++
	}
	w.wg.Add(goroutineCount)

	if w.metrics != nil {
		go w.trackUptime(ctx, w.wg, shutdown)
	}
	go w.runServer(w.wg, w.server, w.listener)
	go w.maintainSubscribers(ctx, w.wg, shutdown)
}

// trackUptime periodically updates the server uptime metric
func (w *Output) trackUptime(ctx context.Context, wg *sync.WaitGroup, shutdown <-chan struct{}) {
	defer wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.RLock()
			running := w.running
			started := w.startTime
			w.mu.RUnlock()
			if running {
				w.metrics.serverUptimeSeconds.Set(time.Since(started).Seconds())
			}
		case <-ctx.Done():
			return
		case <-shutdown:
			return
		}
	}
}

// runServer serves WebSocket upgrades until shutdown
func (w *Output) runServer(wg *sync.WaitGroup, server *http.Server, listener net.Listener) {
	defer wg.Done()

	if server == nil || listener == nil {
		return
	}

	// Serve blocks until Shutdown is called
	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		w.logger.Error("Hub HTTP server failed", "error", err)
		atomic.AddInt64(&w.errors, 1)
	}
}

// Stop gracefully stops the hub and closes all subscriber connections
func (w *Output) Stop(timeout time.Duration) error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false

	if w.shutdown != nil {
		close(w.shutdown)
	}

	wg := w.wg
	server := w.server
	w.mu.Unlock()

	// Shut the HTTP server down first, outside the locks; this unblocks
	// the serve loop and stops new upgrades
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			w.logger.Warn("Hub HTTP server shutdown error", "error", err)
		}
	}

	// Close remaining subscribers so their read loops return
	w.closeAllSubscribers()

	if wg != nil {
		waitCh := make(chan struct{})
		go func() {
			wg.Wait()
			close(waitCh)
		}()

		select {
		case <-waitCh:
		case <-time.After(timeout):
			w.logger.Warn("Hub goroutines did not exit within timeout", "timeout", timeout)
		}
	}

	w.mu.Lock()
	w.server = nil
	w.listener = nil
	if w.done != nil {
		close(w.done)
		w.done = nil
	}
	w.shutdown = nil
	w.wg = nil
	w.mu.Unlock()

	return nil
}

// subscribeToNATS subscribes to the command-event subject. The
// subscription is made once; restarts reuse it and the running flag in
// handleEvent gates delivery.
func (w *Output) subscribeToNATS(ctx context.Context) error {
	// Skip NATS subscription if client is nil (for testing)
	if w.natsClient == nil || w.natsSubscribed {
		return nil
	}
	if err := w.natsClient.Subscribe(ctx, w.subject, w.handleEvent); err != nil {
		return err
	}
	w.natsSubscribed = true
	return nil
}

// handleEvent receives one serialized event from NATS and fans it out.
// The payload is already final: it is stored for late joiners and
// forwarded verbatim.
func (w *Output) handleEvent(ctx context.Context, data []byte) {
	if ctx.Err() != nil {
		return
	}

	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		return
	}

	w.mu.Lock()
	w.lastActivity = time.Now()
	w.mu.Unlock()

	w.stateMu.Lock()
	w.lastEvent = data
	w.stateMu.Unlock()

	atomic.AddInt64(&w.eventsReceived, 1)
	if w.metrics != nil {
		w.metrics.eventsReceived.Inc()
	}

	w.broadcast(ctx, data)
}

// broadcast sends data to all connected subscribers concurrently. Each
// failing subscriber is evicted on its own; the rest keep receiving.
func (w *Output) broadcast(ctx context.Context, data []byte) {
	start := time.Now()

	subs := w.snapshotSubscribers()

	if ctx.Err() != nil {
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		if sub.closed.Load() {
			continue
		}
		wg.Add(1)
		go func(sub *subscriber) {
			defer wg.Done()
			if err := w.send(sub, data); err != nil {
				w.evict(sub, "send_error")
				atomic.AddInt64(&w.errors, 1)
				if w.metrics != nil {
					w.metrics.errorsTotal.WithLabelValues("subscriber_send").Inc()
				}
				w.logger.Debug("Dropping subscriber after failed send",
					"subscriber_id", sub.id,
					"error", err)
				return
			}
			atomic.AddInt64(&w.messagesSent, 1)
			atomic.AddInt64(&w.bytesSent, int64(len(data)))
			if w.metrics != nil {
				w.metrics.messagesSent.Inc()
				w.metrics.bytesSent.Add(float64(len(data)))
				w.metrics.messageSizeBytes.Observe(float64(len(data)))
			}
		}(sub)
	}
	wg.Wait()

	if w.metrics != nil {
		w.metrics.broadcastDuration.Observe(time.Since(start).Seconds())
	}
}

// snapshotSubscribers returns the current subscribers without holding the
// lock during sends
func (w *Output) snapshotSubscribers() []*subscriber {
	w.subscribersMu.RLock()
	defer w.subscribersMu.RUnlock()

	subs := make([]*subscriber, 0, len(w.subscribers))
	for _, sub := range w.subscribers {
		if !sub.closed.Load() {
			subs = append(subs, sub)
		}
	}
	return subs
}

// send writes one text frame to a subscriber. The per-connection mutex
// serializes writers; gorilla/websocket panics on concurrent writes.
func (w *Output) send(sub *subscriber, data []byte) error {
	sub.writeMu.Lock()
	defer sub.writeMu.Unlock()

	_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sub.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWebSocket upgrades a new subscriber connection
func (w *Output) handleWebSocket(wr http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(wr, r, nil)
	if err != nil {
		atomic.AddInt64(&w.errors, 1)
		if w.metrics != nil {
			w.metrics.errorsTotal.WithLabelValues("connection_upgrade").Inc()
		}
		return
	}

	w.mu.RLock()
	running := w.running
	wg := w.wg
	shutdown := w.shutdown
	w.mu.RUnlock()
	if !running || wg == nil {
		_ = conn.Close()
		return
	}

	sub := &subscriber{
		id:          uuid.New().String(),
		conn:        conn,
		connectedAt: time.Now(),
		// Burst of 1: a subscriber polling "state" faster than the budget
		// just gets silence, not a backlog
		stateLimiter: rate.NewLimiter(rate.Limit(w.stateQPS), 1),
	}
	sub.lastPong.Store(time.Now())

	w.subscribersMu.Lock()
	w.subscribers[conn] = sub
	count := len(w.subscribers)
	w.subscribersMu.Unlock()

	if w.metrics != nil {
		w.metrics.connectionsTotal.Inc()
		w.metrics.subscribersActive.Set(float64(count))
	}

	w.logger.Debug("Subscriber connected",
		"subscriber_id", sub.id,
		"remote_addr", r.RemoteAddr,
		"subscribers", count)

	// Welcome snapshot: new subscribers learn the current state
	// immediately instead of waiting for the next broadcast
	if payload := w.snapshotPayload(); payload != nil {
		if err := w.send(sub, payload); err != nil {
			w.evict(sub, "send_error")
			return
		}
	}

	wg.Add(1)
	go w.readLoop(wg, sub, shutdown)
}

// readLoop reads inbound messages from one subscriber until the
// connection drops
func (w *Output) readLoop(wg *sync.WaitGroup, sub *subscriber, shutdown <-chan struct{}) {
	defer wg.Done()
	defer w.evict(sub, "normal")

	sub.conn.SetPongHandler(func(string) error {
		sub.lastPong.Store(time.Now())
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-shutdown:
			return
		default:
		}

		_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))

		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			return
		}

		w.handleInbound(sub, data)
	}
}

// handleInbound processes one message from a subscriber. The protocol is
// two literal text commands; everything else is logged and ignored.
func (w *Output) handleInbound(sub *subscriber, data []byte) {
	switch msg := strings.TrimSpace(string(data)); msg {
	case "ping":
		if err := w.send(sub, []byte("pong")); err != nil {
			w.evict(sub, "send_error")
		}

	case "state":
		if !sub.stateLimiter.Allow() {
			w.logger.Debug("State query rate limited", "subscriber_id", sub.id)
			return
		}
		payload := w.snapshotPayload()
		if payload == nil {
			return
		}
		if err := w.send(sub, payload); err != nil {
			w.evict(sub, "send_error")
		}

	default:
		w.logger.Debug("Ignoring unknown subscriber message",
			"subscriber_id", sub.id,
			"size_bytes", len(data))
	}
}

// maintainSubscribers runs the periodic liveness sweep
func (w *Output) maintainSubscribers(ctx context.Context, wg *sync.WaitGroup, shutdown <-chan struct{}) {
	defer wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-shutdown:
			return
		case <-ticker.C:
			w.sweepSubscribers()
		}
	}
}

// sweepSubscribers pings every subscriber and evicts the ones that have
// gone silent. A dead TCP peer otherwise lingers until the OS notices.
func (w *Output) sweepSubscribers() {
	for _, sub := range w.snapshotSubscribers() {
		lastPong, _ := sub.lastPong.Load().(time.Time)
		if time.Since(lastPong) > staleAfter {
			w.logger.Debug("Evicting silent subscriber",
				"subscriber_id", sub.id,
				"last_pong", lastPong)
			w.evict(sub, "stale")
			continue
		}

		// WriteControl is safe concurrently with other writes
		deadline := time.Now().Add(writeWait)
		if err := sub.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			w.evict(sub, "send_error")
			atomic.AddInt64(&w.errors, 1)
		}
	}
}

// evict removes a subscriber with atomic cleanup. Safe to call from any
// goroutine, any number of times.
func (w *Output) evict(sub *subscriber, reason string) {
	sub.closeOnce.Do(func() {
		sub.closed.Store(true)

		w.subscribersMu.Lock()
		delete(w.subscribers, sub.conn)
		count := len(w.subscribers)
		w.subscribersMu.Unlock()

		if w.metrics != nil {
			w.metrics.disconnectionsTotal.WithLabelValues(reason).Inc()
			w.metrics.subscribersActive.Set(float64(count))
		}

		_ = sub.conn.Close()

		w.logger.Debug("Subscriber removed",
			"subscriber_id", sub.id,
			"reason", reason,
			"subscribers", count)
	})
}

// closeAllSubscribers evicts every remaining subscriber during shutdown
func (w *Output) closeAllSubscribers() {
	for _, sub := range w.snapshotSubscribers() {
		w.evict(sub, "shutdown")
	}
}

// Register registers the WebSocket hub component with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "websocket",
		Factory:     CreateOutput,
		Schema:      websocketSchema,
		Type:        "output",
		Protocol:    "websocket",
		Domain:      "network",
		Description: "WebSocket hub broadcasting command events to connected clients",
		Version:     "1.0.0",
	})
}

// CreateOutput creates a WebSocket hub component following service pattern
func CreateOutput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()

	if len(rawConfig) > 0 {
		if err := component.SafeUnmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "websocket-output-factory", "create", "parse config")
		}
	}

	// Extract configuration from Ports (single source of truth)
	var port int
	var path string
	var subject string

	if cfg.Ports != nil {
		if len(cfg.Ports.Outputs) > 0 && cfg.Ports.Outputs[0].Subject != "" {
			// Parse URL-encoded endpoint from Subject (e.g. "http://0.0.0.0:8181/ws")
			url := cfg.Ports.Outputs[0].Subject
			var parsedPort int
			var parsedPath string
			if _, err := fmt.Sscanf(url, "http://0.0.0.0:%d%s", &parsedPort, &parsedPath); err == nil {
				port = parsedPort
				path = parsedPath
			}
		}

		for _, input := range cfg.Ports.Inputs {
			if input.Type == "nats" && input.Subject != "" {
				subject = input.Subject
				break
			}
		}
	}

	// Apply defaults if not configured
	if port == 0 {
		port = 8181
	}
	if path == "" {
		path = "/ws"
	}
	if subject == "" {
		subject = "neuro.events.command"
	}

	// Validate port range (allow 0 for random port in tests)
	if port != 0 && (port < 1024 || port > 65535) {
		return nil, errors.WrapInvalid(fmt.Errorf("port %d out of range", port),
			"websocket-output-factory", "create", "port range validation")
	}

	if deps.NATSClient == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("NATS client is required"),
			"websocket-output-factory", "create", "NATS client validation")
	}

	ctorCfg := ConstructorConfig{
		Name:                  "websocket-output",
		Port:                  port,
		Path:                  path,
		Subject:               subject,
		StateQueriesPerSecond: cfg.StateQueriesPerSecond,
		NATSClient:            deps.NATSClient,
		MetricsRegistry:       deps.MetricsRegistry,
		Logger:                deps.GetLoggerWithComponent("websocket-output"),
	}

	return NewOutputFromConfig(ctorCfg), nil
}
