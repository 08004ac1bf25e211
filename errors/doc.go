// Package errors provides standardized error handling patterns for NeuroStreams components.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// the event pipeline: Transient (temporary, retryable), Invalid (bad input,
// non-retryable), and Fatal (unrecoverable, stop processing).
//
// Classification lets components make informed decisions about retries and
// failure recovery without hardcoded error string matching. The pipeline's
// error taxonomy maps onto the classes directly: a malformed datagram is
// Invalid and only ever logged; a NATS publish hiccup is Transient and
// retried; a socket bind collision is Fatal and aborts startup.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if !connected {
//	    return errors.ErrNoConnection
//	}
//
// Wrap errors with component context for debugging:
//
//	if err := conn.WriteMessage(data); err != nil {
//	    return errors.Wrap(err, "WebSocketOutput", "sendToClient", "write frame")
//	}
//
// Check classification for retry and escalation logic:
//
//	if err := op(); err != nil {
//	    switch {
//	    case errors.IsTransient(err):
//	        // retry with backoff
//	    case errors.IsFatal(err):
//	        // surface to the operator, abort startup
//	    default:
//	        // invalid input: drop and log
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// The format keeps log lines greppable across the pipeline. Three wrapper
// functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The generic Wrap() preserves the original error's classification through
// the chain, so a Fatal bind error stays Fatal however many layers wrap it.
package errors
