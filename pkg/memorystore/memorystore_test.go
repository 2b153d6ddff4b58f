package memorystore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tus/tusc/pkg/client"
)

// Test interface implementation of MemoryStore
var _ client.URLStore = &MemoryStore{}

func TestMemoryStore(t *testing.T) {
	a := assert.New(t)

	store := New()

	a.NoError(store.Put("test", "https://example.com/files/pic.jpg?token=987298374"))

	uploadURL, ok, err := store.Get("test")
	a.NoError(err)
	a.True(ok)
	a.Equal("https://example.com/files/pic.jpg?token=987298374", uploadURL)

	a.NoError(store.Delete("test"))

	_, ok, err = store.Get("test")
	a.NoError(err)
	a.False(ok)

	// Deleting an absent entry is a no-op.
	a.NoError(store.Delete("test"))
}

func TestMemoryStoreOverwrite(t *testing.T) {
	a := assert.New(t)

	store := New()

	a.NoError(store.Put("fp", "https://example.com/files/a"))
	a.NoError(store.Put("fp", "https://example.com/files/b"))

	uploadURL, ok, err := store.Get("fp")
	a.NoError(err)
	a.True(ok)
	a.Equal("https://example.com/files/b", uploadURL)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	a := assert.New(t)

	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.NoError(store.Put("shared", "https://example.com/files/x"))
			_, _, err := store.Get("shared")
			a.NoError(err)
			a.NoError(store.Delete("shared"))
		}()
	}
	wg.Wait()
}
