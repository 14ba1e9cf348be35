package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/ppiankov/lifestory/internal/cache"
	"github.com/ppiankov/lifestory/internal/logging"
)

// Store loads datasets on every call but only re-parses a file whose
// identity (path, mtime, size, charset) changed since the last parse.
type Store struct {
	encoding string
	cache    cache.Cache // nil disables byte caching

	mu      sync.Mutex
	lastKey string
	last    *Dataset
}

// NewStore creates a store. A nil cache makes every Load parse the file.
func NewStore(c cache.Cache, encoding string) *Store {
	return &Store{encoding: encoding, cache: c}
}

type snapshot struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Load returns the dataset at path
func (s *Store) Load(path string) (*Dataset, error) {
	if s.cache == nil {
		return Load(path, s.encoding)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	key := cache.DatasetKey(abs, info.ModTime(), info.Size(), s.encoding)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil && s.lastKey == key {
		return s.last, nil
	}

	if raw, ok := s.cache.Get(key); ok {
		var snap snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			logging.Debugf("dataset cache hit for %s", path)
			return s.remember(key, New(snap.Columns, snap.Rows)), nil
		}
		logging.Warnf("discarding unreadable dataset cache entry for %s", path)
		_ = s.cache.Delete(key)
	}

	ds, err := Load(path, s.encoding)
	if err != nil {
		return nil, err
	}
	logging.Debugf("parsed %s: %d rows, %d columns", path, ds.Len(), len(ds.Columns()))

	raw, err := json.Marshal(snapshot{Columns: ds.columns, Rows: ds.rows})
	if err == nil {
		err = s.cache.Set(key, raw, 0)
	}
	if err != nil {
		logging.Warnf("dataset cache write failed: %v", err)
	}

	return s.remember(key, ds), nil
}

func (s *Store) remember(key string, ds *Dataset) *Dataset {
	s.lastKey = key
	s.last = ds
	return ds
}
