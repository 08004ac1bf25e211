package intent

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/message"
	"github.com/c360/neurostreams/pkg/timestamp"
)

// ActionNeutral is the rest state. Every filter starts here and returns
// here when confidence drops below the release threshold.
const ActionNeutral = "neutral"

// heartbeatMs forces a broadcast once state has been silent this long,
// so subscribers can tell an idle pipeline from a dead one.
const heartbeatMs = 1000

// FilterConfig are the tuning parameters of the action filter, taken as
// an immutable snapshot at construction. OnThreshold is the confidence a
// sample must reach to propose a non-neutral action; OffThreshold is the
// level below which the state releases back to neutral. The gap between
// them is the hysteresis band.
type FilterConfig struct {
	OnThreshold  float64
	OffThreshold float64
	DebounceMs   int64
	RateHz       int
	ActionMap    map[string]string
}

// Validate rejects parameter combinations the state machine cannot run
// with. The hysteresis logic silently misbehaves when the thresholds are
// inverted, so that is caught here at load time instead.
func (c FilterConfig) Validate() error {
	if c.OnThreshold <= c.OffThreshold {
		return errors.WrapInvalid(
			fmt.Errorf("onThreshold %.2f must exceed offThreshold %.2f", c.OnThreshold, c.OffThreshold),
			"FilterConfig", "Validate", "threshold ordering")
	}
	if c.OffThreshold < 0 || c.OnThreshold > 1 {
		return errors.WrapInvalid(
			fmt.Errorf("thresholds %.2f/%.2f outside [0,1]", c.OnThreshold, c.OffThreshold),
			"FilterConfig", "Validate", "threshold range")
	}
	if c.DebounceMs < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("debounceMs %d is negative", c.DebounceMs),
			"FilterConfig", "Validate", "debounce range")
	}
	if c.RateHz < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("rateHz %d must be at least 1", c.RateHz),
			"FilterConfig", "Validate", "rate range")
	}
	return nil
}

// FilterState is the single mutable state of the action filter. Process
// mutates it and runs on one goroutine only (the ordered NATS
// subscription handler); the accessors take a read lock so the hub and
// status reporters can observe state from elsewhere.
type FilterState struct {
	cfg        FilterConfig
	intervalMs int64

	mu             sync.RWMutex
	active         string
	activeSince    int64
	candidate      string
	candidateSince int64
	lastConfidence float64
	lastSource     string

	// Broadcast bookkeeping. lastPayloadKey covers the fields that make
	// a broadcast meaningfully new: ts and durationMs advance with every
	// sample, so byte equality of full payloads would never hold.
	lastBroadcastAt int64
	lastPayloadKey  string

	stateChanges int64
}

// NewFilterState creates a filter at rest. now is the creation time in
// Unix milliseconds; tests drive a synthetic clock through it.
func NewFilterState(cfg FilterConfig, now int64) *FilterState {
	rate := cfg.RateHz
	if rate < 1 {
		rate = 1
	}
	intervalMs := int64(1000 / rate)
	if intervalMs < 1 {
		intervalMs = 1
	}

	return &FilterState{
		cfg:            cfg,
		intervalMs:     intervalMs,
		active:         ActionNeutral,
		activeSince:    now,
		candidate:      ActionNeutral,
		candidateSince: now,
	}
}

// Process runs one decoded sample through the three stages: hysteresis,
// debounce, and rate limiting with duplicate suppression. It returns the
// serialized event to broadcast, or nil when the sample produced none.
// A non-nil error means the event could not be serialized (non-finite
// confidence); the caller logs and moves on.
//
// Confidence is deliberately not validated: NaN and out-of-range values
// flow through the comparisons, which treat them as "no new evidence".
func (f *FilterState) Process(rawAction string, confidence float64, source string, now int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastConfidence = confidence
	f.lastSource = source

	// Stage 1: hysteresis. A sample proposes a new action only above
	// OnThreshold, and releases to neutral only below OffThreshold.
	// Inside the band the current action holds.
	desired := f.active
	switch {
	case confidence >= f.cfg.OnThreshold && rawAction != ActionNeutral:
		desired = rawAction
	case confidence < f.cfg.OffThreshold:
		desired = ActionNeutral
	}

	// Stage 2: debounce. A changed desired action restarts the stability
	// timer; only a candidate that survives DebounceMs unchanged commits.
	if desired != f.candidate {
		f.candidate = desired
		f.candidateSince = now
	} else if now-f.candidateSince >= f.cfg.DebounceMs && f.candidate != f.active {
		f.active = f.candidate
		f.activeSince = now
		f.stateChanges++
	}

	// Stage 3: every sample is a broadcast candidate regardless of
	// whether a transition committed. The interval check runs first; the
	// heartbeat can bypass only the duplicate check, never the interval.
	if now-f.lastBroadcastAt < f.intervalMs {
		return nil, nil
	}

	event := message.BrainEvent{
		Timestamp:  now,
		Type:       message.TypeMentalCommand,
		Action:     f.mappedAction(),
		Confidence: confidence,
		DurationMs: now - f.activeSince,
		Source:     source,
	}
	payload, err := event.Marshal()
	if err != nil {
		return nil, err
	}

	key := dedupeKey(event.Action, confidence, source)
	heartbeat := now-f.lastBroadcastAt > heartbeatMs
	if key == f.lastPayloadKey && !heartbeat {
		return nil, nil
	}

	f.lastBroadcastAt = now
	f.lastPayloadKey = key
	return payload, nil
}

// mappedAction resolves the published action label. Unmapped actions
// pass through under their raw name. Callers hold f.mu.
func (f *FilterState) mappedAction() string {
	if mapped, ok := f.cfg.ActionMap[f.active]; ok && mapped != "" {
		return mapped
	}
	return f.active
}

func dedupeKey(action string, confidence float64, source string) string {
	return action + "|" + source + "|" + strconv.FormatFloat(confidence, 'g', -1, 64)
}

// ActiveAction returns the committed action, "neutral" at rest.
func (f *FilterState) ActiveAction() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

// LastConfidence returns the confidence of the most recent sample,
// whatever it was — including NaN from misbehaving senders.
func (f *FilterState) LastConfidence() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastConfidence
}

// StateChanges returns how many transitions have committed.
func (f *FilterState) StateChanges() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stateChanges
}

// Snapshot serializes the current state as a broadcast-shaped event, for
// late joiners and "state" queries. It fails only when the last seen
// confidence cannot be represented in JSON.
func (f *FilterState) Snapshot() ([]byte, error) {
	return f.snapshotAt(timestamp.Now())
}

func (f *FilterState) snapshotAt(now int64) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	event := message.BrainEvent{
		Timestamp:  now,
		Type:       message.TypeMentalCommand,
		Action:     f.mappedAction(),
		Confidence: f.lastConfidence,
		DurationMs: now - f.activeSince,
		Source:     f.lastSource,
	}
	return event.Marshal()
}
