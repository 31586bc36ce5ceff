// Package throttle limits repeated attempts per key within a time window,
// bounding memory with least-recently-used eviction.
package throttle
