package client

// URLStore persists the mapping from a file fingerprint to the upload URL
// the server assigned for it. An entry is created when an upload is created,
// consulted when a client starts, and removed on completion or cancellation.
// Implementations must be safe for concurrent use by multiple sessions.
type URLStore interface {
	// Put inserts the mapping, overwriting any previous entry.
	Put(fingerprint string, uploadURL string) error

	// Get returns the stored upload URL for the fingerprint. Absence is
	// reported through ok, not through an error.
	Get(fingerprint string) (uploadURL string, ok bool, err error)

	// Delete removes the entry if present. Deleting an absent entry is not
	// an error.
	Delete(fingerprint string) error
}
