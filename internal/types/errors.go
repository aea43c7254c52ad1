package types

import "errors"

// Sentinel errors shared by the checkpoint engine.
var (
	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyWildcards indicates a field path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("field path has too many wildcards")

	// ErrEmptyPath indicates a field path with no segments or an empty segment.
	ErrEmptyPath = errors.New("field path is empty")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrRecordTooLarge indicates a record exceeds MaxRecordFields after flattening.
	ErrRecordTooLarge = errors.New("record exceeds maximum field count")
)
