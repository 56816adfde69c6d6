package annotation

import "context"

// Store is the persistence contract for annotation sets.  Keys are derived
// text identifiers (see DeriveKey); values are whole annotation lists,
// replaced atomically on every save.  There is no schema versioning.
//
// Implementations must tolerate absent keys by returning an empty list, and
// wrap backend failures in PST_* error codes.  Callers treat store failures
// as no-ops: user-visible in-memory state is never rolled back on a
// persistence error.
type Store interface {
	// Save replaces the full annotation list stored under key.
	Save(ctx context.Context, key string, list []*Annotation) error

	// Load returns the annotation list stored under key, or an empty list
	// when the key is absent.
	Load(ctx context.Context, key string) ([]*Annotation, error)

	// Delete removes the single annotation with the given id from the list
	// under key.  Deleting a missing id is a no-op.
	Delete(ctx context.Context, key, id string) error

	// Clear removes the entire list under key.
	Clear(ctx context.Context, key string) error
}
