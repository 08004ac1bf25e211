// Package buffer provides thread-safe circular buffers with configurable
// overflow policies, built-in statistics tracking, and optional Prometheus
// metrics integration.
//
// # Overview
//
// The pipeline uses these buffers to decouple hot receive loops from slower
// downstream work. The UDP input, for example, queues decoded samples here so
// the socket read loop never stalls on a publish. Buffers are generic and
// safe for concurrent producers and consumers.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[int](1000)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = buf.Write(42)
//	value, ok := buf.Read()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[[]byte](5000,
//		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
//		buffer.WithMetrics[[]byte](registry, "udp_input"),
//	)
//
// # Overflow Policies
//
// Three behaviors are available when capacity is reached:
//
//   - DropOldest: remove the oldest item to make room (default)
//   - DropNewest: reject new items when full
//   - Block: Write operations wait for available space
//
// With the Block policy, WriteWithTimeout and WriteWithContext bound how long
// a writer will wait:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	err := buf.WriteWithContext(ctx, sample)
//
// # Observability
//
// Statistics are always collected via atomic counters and available through
// buf.Stats(); they carry computed values (throughput, drop rate, utilization)
// with no external dependencies. Prometheus metrics are opt-in via
// WithMetrics() and export the same activity as counters and gauges labeled
// with the owning component. The two trackers are independent so statistics
// keep working in deployments without a metrics registry.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Internal state is protected by
// a sync.RWMutex; the Block policy waits on sync.Cond. Write, Read, and Peek
// are O(1).
package buffer
