// Package filestore provides an upload URL store backed by the local file
// system, allowing uploads to be resumed after a process restart.
//
// For every fingerprint a single regular file is kept at [directory]/[fingerprint]
// whose entire content is the upload URL as UTF-8 text. No other state is
// written, so entries can be inspected and removed with ordinary shell tools.
package filestore

import (
	"os"
	"path/filepath"
)

var defaultFilePerm = os.FileMode(0664)

// FileStore persists upload URLs as one file per fingerprint inside a
// directory. FileStore does not check whether the directory exists, use
// os.MkdirAll in this case on your own.
type FileStore struct {
	// Relative or absolute path to store entries in.
	Path string
}

// New creates a new file based upload URL store. The directory specified
// will be used as the only storage entry. This method does not check whether
// the path exists, use os.MkdirAll to ensure.
func New(path string) FileStore {
	return FileStore{path}
}

// Put writes the upload URL for the fingerprint, replacing a previous entry.
func (store FileStore) Put(fingerprint string, uploadURL string) error {
	return os.WriteFile(store.entryPath(fingerprint), []byte(uploadURL), defaultFilePerm)
}

// Get reads the upload URL stored for the fingerprint. A missing entry file
// is reported as absence, not as an error.
func (store FileStore) Get(fingerprint string) (string, bool, error) {
	content, err := os.ReadFile(store.entryPath(fingerprint))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}

	return string(content), true, nil
}

// Delete removes the entry file for the fingerprint. Only the single entry
// file is removed, the containing directory is left alone. Deleting an
// absent entry is a no-op.
func (store FileStore) Delete(fingerprint string) error {
	err := os.Remove(store.entryPath(fingerprint))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (store FileStore) entryPath(fingerprint string) string {
	return filepath.Join(store.Path, fingerprint)
}
