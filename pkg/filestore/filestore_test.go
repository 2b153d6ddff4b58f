package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tus/tusc/pkg/client"
)

// Test interface implementation of FileStore
var _ client.URLStore = FileStore{}

func TestFilestore(t *testing.T) {
	a := assert.New(t)

	tmp := t.TempDir()
	store := New(tmp)

	a.NoError(store.Put("my.file", "https://example.com/files/abc"))

	// The entry is a single regular file whose content is the URL.
	content, err := os.ReadFile(filepath.Join(tmp, "my.file"))
	a.NoError(err)
	a.Equal("https://example.com/files/abc", string(content))

	uploadURL, ok, err := store.Get("my.file")
	a.NoError(err)
	a.True(ok)
	a.Equal("https://example.com/files/abc", uploadURL)

	a.NoError(store.Delete("my.file"))

	_, ok, err = store.Get("my.file")
	a.NoError(err)
	a.False(ok)

	// Deleting an absent entry is a no-op.
	a.NoError(store.Delete("my.file"))
}

func TestFilestoreSurvivesReopen(t *testing.T) {
	a := assert.New(t)

	tmp := t.TempDir()

	a.NoError(New(tmp).Put("my.file", "https://example.com/files/abc"))

	// A fresh store over the same directory sees the entry, as a new
	// process would after a restart.
	uploadURL, ok, err := New(tmp).Get("my.file")
	a.NoError(err)
	a.True(ok)
	a.Equal("https://example.com/files/abc", uploadURL)
}

func TestFilestoreDeleteKeepsDirectory(t *testing.T) {
	a := assert.New(t)

	tmp := t.TempDir()
	store := New(tmp)

	a.NoError(store.Put("first", "https://example.com/files/1"))
	a.NoError(store.Put("second", "https://example.com/files/2"))

	a.NoError(store.Delete("first"))

	// Only the single entry file is removed, sibling entries and the
	// directory stay intact.
	_, ok, err := store.Get("second")
	a.NoError(err)
	a.True(ok)

	stat, err := os.Stat(tmp)
	a.NoError(err)
	a.True(stat.IsDir())
}

func TestFilestoreMissingDirectory(t *testing.T) {
	a := assert.New(t)

	store := New(filepath.Join(t.TempDir(), "does-not-exist"))

	a.Error(store.Put("my.file", "https://example.com/files/abc"))

	// A missing directory reads as absence, not as an error.
	_, ok, err := store.Get("my.file")
	a.NoError(err)
	a.False(ok)
}
