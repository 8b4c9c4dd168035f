// Package progress implements the Progress Registry: a fast, ephemeral
// key/integer store tracking how many providers remain before an item's
// current update is complete.
package progress

import "context"

// Registry is the opaque service interface the design calls for: the
// core only requires atomic decrement, so both an in-memory and an
// external key/value-backed implementation satisfy callers identically.
type Registry interface {
	// Set initialises tiid's counter to n.
	Set(ctx context.Context, tiid string, n int) error
	// Decr atomically decrements tiid's counter by one and returns the new
	// value. May return a transient negative value.
	Decr(ctx context.Context, tiid string) (int, error)
	// Get returns the counter and whether it is present at all; a missing
	// counter means "not currently updating".
	Get(ctx context.Context, tiid string) (int, bool, error)
	// Clear removes tiid's counter entirely.
	Clear(ctx context.Context, tiid string) error
}
