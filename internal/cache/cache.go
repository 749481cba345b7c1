package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "ticketdebate:v1:"

// Key derives a stable cache key for a namespace from arbitrary parts.
// Parts are length-prefixed so ("ab", "c") and ("a", "bc") never collide.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s|", len(p), p)
	}
	return keyPrefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// BytesKey keys raw content such as an uploaded ticket image.
func BytesKey(namespace string, data []byte) string {
	sum := sha256.Sum256(data)
	return keyPrefix + namespace + ":" + hex.EncodeToString(sum[:])
}

// GetJSON decodes a cached JSON value into T.
// A corrupt entry is treated as a miss and evicted.
func GetJSON[T any](c Cache, key string) (T, bool) {
	var out T
	raw, ok := c.Get(key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		_ = c.Delete(key)
		return out, false
	}
	return out, true
}

// SetJSON encodes v and stores it under key.
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(key, raw, ttl)
}

// Nop is a cache that stores nothing; used when caching is disabled
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }

// fileName turns a key into a safe file name
func fileName(key string) string {
	return strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key) + ".cache"
}
