// Package cache stores serialized datasets between runs so an unchanged CSV
// is parsed once.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the byte-level cache used by the dataset store
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// DatasetKey derives a cache key from the identity of a dataset file.
// Any change to path, modification time, size or charset yields a new key.
func DatasetKey(path string, modTime time.Time, size int64, encoding string) string {
	id := fmt.Sprintf("%s|%d|%d|%s", path, modTime.UnixNano(), size, encoding)
	hash := sha256.Sum256([]byte(id))
	return "lifestory-dataset-v1-" + hex.EncodeToString(hash[:])
}
