package vm

import "errors"

// Reference errors
var (
	// ErrNegativePosition indicates an LxmReference built from a negative heap position.
	ErrNegativePosition = errors.New("negative heap position")
)

// Snapshot errors
var (
	// ErrForeignSnapshot indicates a snapshot handle taken from another heap.
	ErrForeignSnapshot = errors.New("snapshot belongs to another heap")

	// ErrStaleSnapshot indicates a snapshot whose BigNode was already rolled back or committed.
	ErrStaleSnapshot = errors.New("snapshot is no longer on the chain")

	// ErrNoSnapshot indicates a rollback deeper than the chain.
	ErrNoSnapshot = errors.New("no snapshot to roll back")

	// ErrNegativeRollback indicates a rollback by a negative number of BigNodes.
	ErrNegativeRollback = errors.New("negative rollback count")
)

// Image errors
var (
	// ErrImageValue indicates an image value that cannot be turned back into a primitive.
	ErrImageValue = errors.New("malformed image value")
)
