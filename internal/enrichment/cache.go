package enrichment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rpattn/regwatch/internal/domain"
)

const cacheFileName = "enrichment_cache.json"

// Cache is a CIN-keyed enrichment cache backed by one JSON file. Load and
// Save bracket a run; lookups in between are in-memory and safe for
// concurrent use.
type Cache struct {
	path string

	mu      sync.RWMutex
	records map[string]domain.EnrichedRecord
}

// NewCache creates a cache stored under dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create enrichment directory: %w", err)
	}
	return &Cache{
		path:    filepath.Join(dir, cacheFileName),
		records: make(map[string]domain.EnrichedRecord),
	}, nil
}

// Load reads the cache file. A missing file leaves the cache empty.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read enrichment cache: %w", err)
	}

	records := make(map[string]domain.EnrichedRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to decode enrichment cache: %w", err)
	}

	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
	return nil
}

// Save writes the cache in full, then promotes it into place.
func (c *Cache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.records, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode enrichment cache: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(c.path), "enrichment_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write enrichment cache: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync enrichment cache: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close enrichment cache: %w", err)
	}

	if err := os.Rename(tempPath, c.path); err != nil {
		return fmt.Errorf("failed to promote enrichment cache: %w", err)
	}
	cleanup = false
	return nil
}

// Get returns the cached record for a CIN, if present.
func (c *Cache) Get(cin string) (domain.EnrichedRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[cin]
	return record, ok
}

// Put stores a record under its CIN.
func (c *Cache) Put(record domain.EnrichedRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[record.CIN] = record
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
