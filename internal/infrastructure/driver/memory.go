package driver

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// memoryCleanupInterval how often expired keys are purged in the background
const memoryCleanupInterval = time.Minute

// MemoryKV in-process KeyValueDB for single node deployments without redis
type MemoryKV struct {
	store *cache.Cache
}

var _ KeyValueDB = &MemoryKV{}

// NewMemoryKV create an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{cache.New(cache.NoExpiration, memoryCleanupInterval)}
}

// SetEX implement KeyValueDB, zero expiration means no expiry
func (m *MemoryKV) SetEX(key string, value string, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	m.store.Set(key, value, expiration)
	return nil
}

// Get implement KeyValueDB
func (m *MemoryKV) Get(key string) (string, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return "", ErrKeyNotFound
	}
	return v.(string), nil
}

// Exists implement KeyValueDB
func (m *MemoryKV) Exists(key string) (bool, error) {
	_, ok := m.store.Get(key)
	return ok, nil
}

// Delete implement KeyValueDB
func (m *MemoryKV) Delete(key string) error {
	m.store.Delete(key)
	return nil
}

func (m *MemoryKV) Ping() error {
	return nil
}

func (m *MemoryKV) Close() error {
	m.store.Flush()
	return nil
}
