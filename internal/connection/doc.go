// Package connection implements the Connection Manager component.
//
// One Manager owns one persistent WebSocket channel per logical topic
// (notifications, order updates, flash-sale feed). It builds the target
// address, attaches the credential, detects loss, and re-establishes the
// channel with a bounded, observable retry policy:
//
//	Disconnected -> Connecting -> Connected
//	Connected    -> Disconnected on any closure
//	Disconnected -> Reconnecting(n) automatically, unless the closure was
//	                manual or n reached max_attempts (then Errored)
//
// Retries fire at a fixed interval rather than exponentially: attempts are
// capped, so the schedule stays predictable for status display.
package connection
