// ABOUTME: Call index persistence with atomic writes and merge-by-id upsert
// ABOUTME: Owns the on-disk JSON document that is the cache's source of truth
package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/salesdesk/models"
)

const indexFileName = "calls-index.json"

// Store owns the persisted CacheIndex at a single well-known path. It holds
// no in-memory state between calls: callers load a snapshot, mutate their
// copy, and save it back. Not designed for concurrent writers.
type Store struct {
	path string
}

// NewStore creates a store for the index file inside dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, indexFileName)}
}

// Path returns the index file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted index. A missing or unparsable file yields an
// empty index rather than an error; a corrupt file is renamed aside first so
// it can be inspected later.
func (s *Store) Load() (*models.CacheIndex, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyIndex(), nil
		}
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}

	var index models.CacheIndex
	if err := json.Unmarshal(data, &index); err != nil {
		backup := s.backupCorrupt()
		log.Printf("Warning: cache index unparsable, starting fresh (saved as %s): %v", backup, err)
		return emptyIndex(), nil
	}

	if index.Version == 0 {
		index.Version = models.SchemaVersion
	}
	index.TotalCalls = len(index.Calls)

	return &index, nil
}

// Upsert merges records into the index by id. New ids are appended; existing
// ids are replaced in place, preserving position. Records without an id are
// dropped with a warning since id is the merge key. Pure in-memory merge;
// the caller persists afterward.
func (s *Store) Upsert(index *models.CacheIndex, records []models.CallRecord) (newCount, updatedCount int) {
	position := make(map[string]int, len(index.Calls))
	for i, call := range index.Calls {
		position[call.ID] = i
	}

	for _, record := range records {
		if record.ID == "" {
			log.Printf("Warning: dropping call record with no id (title %q)", record.Title)
			continue
		}

		if i, ok := position[record.ID]; ok {
			index.Calls[i] = record
			updatedCount++
		} else {
			position[record.ID] = len(index.Calls)
			index.Calls = append(index.Calls, record)
			newCount++
		}
	}

	index.TotalCalls = len(index.Calls)
	return newCount, updatedCount
}

// Save writes the full index document, recomputing TotalCalls. The write
// goes to a temp file in the same directory and is renamed into place, so a
// concurrent reader observes either the old or the new document, never a
// truncated one. Write failures propagate; the previous file is untouched.
func (s *Store) Save(index *models.CacheIndex) error {
	index.TotalCalls = len(index.Calls)
	if index.Version == 0 {
		index.Version = models.SchemaVersion
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, indexFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache index: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache index: %w", err)
	}

	return nil
}

// backupCorrupt moves an unparsable index file aside under a sortable
// timestamped name. Returns the new path, or the original on failure.
func (s *Store) backupCorrupt() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)

	backup := s.path + ".corrupt-" + id.String()
	if err := os.Rename(s.path, backup); err != nil {
		log.Printf("Warning: could not move corrupt index aside: %v", err)
		return s.path
	}
	return backup
}

func emptyIndex() *models.CacheIndex {
	return &models.CacheIndex{
		Calls:      []models.CallRecord{},
		LastSyncAt: time.Unix(0, 0).UTC(),
		TotalCalls: 0,
		Version:    models.SchemaVersion,
	}
}
