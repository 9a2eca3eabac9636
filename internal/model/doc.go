// Package model defines shared data types used across the sale sync engine.
//
// Conventions:
//   - Prices: integer minor units (cents)
//   - Timestamps: time.Time, RFC 3339 on the wire
//   - IDs: opaque strings assigned by the catalog service
package model
