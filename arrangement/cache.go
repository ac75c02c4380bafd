package arrangement

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Store is the backing map of a Cache
type Store interface {
	Get(id string) (*Data, bool)
	Put(id string, data *Data)
}

// MapStore is an in-memory Store safe for concurrent use
type MapStore struct {
	mu   sync.RWMutex
	data map[string]*Data
}

func NewMapStore() *MapStore {
	return &MapStore{data: make(map[string]*Data)}
}

func (s *MapStore) Get(id string) (*Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[id]
	return d, ok
}

func (s *MapStore) Put(id string, data *Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = data
}

// Cache memoizes extracted arrangement data per source identity. An entry is
// only returned while its version matches the source's current version.
//
// Entries are stored fully built, so a lookup sees either a complete Data or
// a miss. Two callers missing on the same id at once both rebuild; the last
// write wins.
type Cache struct {
	source  Source
	store   Store
	Verbose bool
}

// NewCache creates a cache over the given source. A nil store uses a MapStore.
func NewCache(source Source, store Store) *Cache {
	if store == nil {
		store = NewMapStore()
	}
	return &Cache{source: source, store: store}
}

// Get returns the cached data for id if it was built from the given version
func (c *Cache) Get(id string, version time.Time) (*Data, bool) {
	data, ok := c.store.Get(id)
	if !ok || !data.Version.Equal(version) {
		return nil, false
	}
	return data, true
}

// Put stores data for id, replacing any previous entry
func (c *Cache) Put(id string, data *Data) {
	c.store.Put(id, data)
}

// Load returns the data for id, extracting it from the source when the cache
// has no entry for the current version.
func (c *Cache) Load(id string) (*Data, error) {
	version, err := c.source.Version(id)
	if err != nil {
		return nil, err
	}

	if data, ok := c.Get(id, version); ok {
		if c.Verbose {
			log.Printf("Using cached arrangement data for %s", id)
		}
		return data, nil
	}

	arr, err := c.source.Load(id)
	if err != nil {
		return nil, err
	}

	data, err := Extract(arr, version)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", id, err)
	}

	if c.Verbose {
		log.Printf("Extracted %d notes from %s", len(data.MidiNotes), id)
	}
	c.Put(id, data)
	return data, nil
}
