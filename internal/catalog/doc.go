// Package catalog provides the REST client for the catalog/cart collaborator.
//
// The engine only consumes two read endpoints:
//   - GET /flash-sales/active lists active (running + upcoming) sales
//   - GET /flash-sales/{id} gets one sale with its products
//
// Both may return either a bare array/object or a {data: ...} envelope,
// depending on the gateway in front of the service; the client accepts both.
package catalog
