// Package types provides domain models shared across checkpoint components.
//
// Zero-dependency design: types.go, paths.go and errors.go use only the
// standard library so the rules package can depend on them without pulling
// in infrastructure. ID utilities in ids.go import uuid but are isolated.
package types

// RunID identifies a single validate call in logs and API responses.
type RunID string

// Resource limits enforced by the engine.
const (
	// MaxPathDepth prevents stack overflow during recursive path resolution.
	MaxPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion to prevent combinatorial explosion.
	// 2 wildcards allow patterns like orders.*.items.*.price without exponential fan-out.
	MaxNestedWildcards = 2

	// MaxRecordFields caps the number of leaves produced by flattening one record.
	MaxRecordFields = 10000
)
