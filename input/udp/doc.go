// Package udp provides the UDP listener that feeds the command pipeline.
//
// # Overview
//
// The listener owns one UDP socket, receives classifier datagrams one at
// a time, decodes each through the wire codecs (binary OSC first, CSV
// text fallback), and publishes every decoded sample to NATS as
// RawSample JSON. It implements the component interfaces for lifecycle
// management and observability.
//
// # Message Flow
//
//	UDP Socket → wire.Decode → RawSample JSON → Buffer → NATS Subject
//	                  ↓
//	          drop + debug log (undecodable datagram)
//
// A datagram neither codec accepts is dropped with a debug-level
// diagnostic as the only side effect; the receive loop keeps running.
// Stray traffic on the port is routine, not an error.
//
// # Configuration
//
// Configuration uses the shared ports model. The network input port
// carries the socket address as a udp:// subject; the NATS output port
// names the subject decoded samples are published to:
//
//	{
//	  "ports": {
//	    "inputs": [
//	      {"name": "udp_socket", "type": "network", "subject": "udp://0.0.0.0:7400", "required": true}
//	    ],
//	    "outputs": [
//	      {"name": "nats_output", "type": "nats", "subject": "neuro.samples.decoded", "required": true}
//	    ]
//	  }
//	}
//
// Defaults: bind 0.0.0.0:7400, publish to neuro.samples.decoded.
//
// # Backpressure
//
// Decoded payloads pass through a bounded circular buffer (capacity
// 5000, drop-oldest) between the socket loop and NATS publishing, so a
// slow bus never blocks the receive path. Drops are counted and exposed
// through the buffer's own metrics and the packets_dropped counter.
//
// # Error Handling
//
//   - Bind failure: fatal after retries. The port belongs to this
//     pipeline; startup must abort, not limp.
//   - Decode failure: dropped datagram, debug log, decode_failures
//     counter. Never propagates.
//   - NATS publish failure: retried with backoff, then counted and
//     skipped. Other queued samples still publish.
//
// # Observability
//
// The component exposes Health and DataFlow through the component
// interfaces, plain counters through PacketsReceived, SamplesDecoded,
// and DecodeFailures, and Prometheus metrics under neurostreams_udp_*
// when a metrics registry is supplied.
//
// # Testing
//
//	go test ./input/udp -v                      # Unit tests
//	go test ./input/udp -race                   # Race detector
//	go test ./input/udp -run Integration -v     # Real socket + NATS container
package udp
