// Package dispatch implements the Message Dispatcher component.
//
// Inbound frames are JSON envelopes {"type": ..., "payload": ...}. The
// dispatcher decodes the envelope, routes recognized types to their
// handlers, ignores unknown types (forward compatibility), and hands
// anything undecodable to the unparsed-frame handler so diagnostics
// upstream stay possible. Nothing is silently dropped.
package dispatch
