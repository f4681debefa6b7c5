// Package event provides change-notification plumbing for the engine.
//
// There is no global bus. Each state holder owns its own Emitter;
// subscribers register with the holder they care about and values are
// enqueued to subscribers in registration order. Delivery is decoupled
// from the emitting goroutine by a per-subscriber queue, so a slow
// subscriber can never stall the producer. When a subscriber's queue
// overflows, the oldest queued value is dropped in favor of the newest:
// emitted values are snapshots, and the newest one supersedes anything
// a lagging subscriber has not yet seen.
package event
