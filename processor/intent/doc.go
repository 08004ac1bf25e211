// Package intent implements the action filter state machine: the sole
// authority converting noisy per-packet classifier samples into a
// stable, debounced, rate-limited stream of mental-command events.
//
// # The Three Stages
//
// Every decoded sample runs through three stages against a single
// FilterState:
//
//  1. Hysteresis. Two thresholds split confidence into three zones. A
//     sample above onThreshold proposes its action; below offThreshold
//     it proposes neutral; inside the band the current state holds.
//     The band is what keeps borderline confidence from flapping.
//
//  2. Debounce. The proposed action must stay unchanged for debounceMs
//     before it commits. Any change of mind restarts the timer, so
//     alternating proposals never commit at all.
//
//  3. Rate limit and dedupe. Committed or not, every sample is a
//     broadcast candidate. Candidates inside the minimum broadcast
//     interval (1000/rateHz ms) are dropped outright. Surviving
//     candidates are serialized and dropped again if nothing
//     meaningful changed since the last broadcast — unless a second
//     has passed, in which case one goes out anyway as a liveness
//     heartbeat. The heartbeat never overrides the interval check.
//
// The emitted event carries the remapped action label (actionMap), the
// triggering sample's raw confidence, and how long the action has been
// active.
//
// # Message Flow
//
//	neuro.samples.decoded → handleSample → FilterState.Process → neuro.events.command
//
// The NATS subscription delivers samples serially and in order, which
// makes the handler the single owner of FilterState; accessors used by
// the hub (ActiveAction, LastConfidence, StateChanges, Snapshot) read
// behind the state lock. Publishing an event is fire-and-forget — the
// sample path never waits for fan-out.
//
// # Configuration
//
//	{
//	  "onThreshold": 0.6,
//	  "offThreshold": 0.4,
//	  "debounceMs": 150,
//	  "rateHz": 15,
//	  "actionMap": {"push": "moveForward"}
//	}
//
// onThreshold must exceed offThreshold; the combination is rejected at
// load time rather than left to misbehave silently. Confidence values
// themselves are never validated — NaN and out-of-range samples flow
// through the comparisons, which treat them as no new evidence.
//
// # Observability
//
// Prometheus metrics under neurostreams_intent_*: samples by outcome
// (broadcast/suppressed/error), committed transitions, per-sample
// processing duration. Committed transitions additionally log at Info;
// everything per-sample logs at Debug.
package intent
