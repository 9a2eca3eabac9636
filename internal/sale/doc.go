// Package sale implements the Sale Lifecycle Store component.
//
// The store is the authoritative in-memory view of all flash sales. Two
// inputs feed it: push events from the flash-sale topic (incremental) and
// REST snapshots from the catalog (full replace, never a merge). Phase is
// a pure function of the clock by default, but a push event for a
// different phase wins immediately: the server knows catalog and inventory
// conditions the local clock cannot.
//
// Countdown is centralized in a timer arena keyed by sale ID, driven by a
// single scheduler tick against an injected clock, so boundary transitions
// are testable without wall-clock waits. A sale whose timer reaches zero
// transitions locally and schedules a deferred snapshot refresh in case
// the push channel silently dropped the boundary-crossing event.
package sale
