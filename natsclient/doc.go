// Package natsclient wraps the NATS Go client with a circuit breaker,
// health monitoring, and connection metrics.
//
// Every hop in the pipeline rides on one shared Client: the UDP input
// publishes decoded samples, the intent processor subscribes to them and
// publishes command events, and the WebSocket output subscribes to those.
// If this connection misbehaves the whole pipeline does, so the wrapper
// concentrates the reliability work in one place.
//
// # Connecting
//
//	client, err := natsclient.NewClient("nats://localhost:4222")
//	if err != nil {
//	    return err
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	err = client.Publish(ctx, "neuro.samples.decoded", payload)
//
//	err = client.Subscribe(ctx, "neuro.events.command", func(msgCtx context.Context, data []byte) {
//	    // msgCtx carries a 30s processing timeout
//	})
//
// Publish and Subscribe fail immediately with ErrNotConnected while the
// connection is down. Sample traffic is continuous; queueing during an
// outage would only deliver stale samples later.
//
// # Circuit Breaker
//
// Five consecutive connection failures (configurable) open the circuit:
// Connect then fails fast with ErrCircuitOpen instead of dialing. The
// backoff doubles per failed round up to a cap, and once it elapses the
// circuit half-opens so the next attempt can probe the server. Any
// successful connection resets the breaker.
//
//	if errors.Is(client.Connect(ctx), natsclient.ErrCircuitOpen) {
//	    time.Sleep(client.Backoff())
//	    // try again later
//	}
//
// Tuning:
//
//	client, err := natsclient.NewClient(url,
//	    natsclient.WithCircuitBreakerThreshold(10),
//	    natsclient.WithMaxBackoff(time.Minute),
//	)
//
// # Health and Status
//
// Status reports where the client is in its lifecycle (disconnected,
// connecting, connected, reconnecting, circuit_open); IsHealthy collapses
// that to a boolean for health checks. A background monitor polls the
// connection (default every 10s) and corrects the status when the link
// dies without NATS firing an event. Callbacks hook state changes:
//
//	client, err := natsclient.NewClient(url,
//	    natsclient.WithHealthInterval(10*time.Second),
//	    natsclient.WithHealthChangeCallback(func(healthy bool) {
//	        slog.Info("NATS health changed", "healthy", healthy)
//	    }),
//	)
//
// WaitForConnection blocks until healthy, which startup code uses so
// components never see a half-connected client.
//
// # Metrics
//
// WithMetrics registers connection status, RTT, reconnect, failure, and
// async-error metrics against the shared Prometheus registry. RTT is
// polled in the background while connected.
//
// # Testing
//
// TestClient runs a real NATS server in a container, so integration tests
// exercise actual pub/sub rather than mocks:
//
//	func TestMyComponent(t *testing.T) {
//	    tc := natsclient.NewTestClient(t, natsclient.WithMinimalFeatures())
//	    err := tc.Client.Publish(ctx, "neuro.samples.decoded", payload)
//	    require.NoError(t, err)
//	}
//
// NewSharedTestClient is the TestMain variant: it returns errors instead
// of failing a test, letting a package share one server across all of its
// tests.
//
// # Thread Safety
//
// All public methods are safe for concurrent use. Connection state uses
// atomics, subscriptions are tracked under a mutex and torn down by Close,
// and Close itself is idempotent.
package natsclient
