// Package message defines the data types that flow through the pipeline.
//
// Two types cross component boundaries:
//
// RawSample is the internal hand-off between the UDP input and the intent
// processor: one decoded headset reading with its arrival time. It rides the
// internal NATS subject as JSON. Confidence is transported as null when the
// headset reported a non-finite value, so NaN survives the trip instead of
// killing the encoder.
//
// BrainEvent is the external contract: the JSON object broadcast to every
// connected push client. Its field set is fixed — ts, type, action,
// confidence, durationMs, source — with no envelope and no extras, so
// downstream consumers (key mappers, overlays, loggers) can parse it without
// version negotiation.
package message
