// Package transient is a short-lived key/value store whose entries expire on
// their own.
package transient

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type Store interface {
	Put(key, value string, ttl time.Duration)
	Get(key string) (string, bool)
	Delete(key string)
	// Pop returns the value and removes it in one step; of several concurrent
	// callers at most one sees ok.
	Pop(key string) (string, bool)
}

var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemoryStore starts a background sweeper; call Close to stop it.
func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New[string, string](
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()

	return &MemoryStore{cache: cache}
}

func (s *MemoryStore) Put(key, value string, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

func (s *MemoryStore) Get(key string) (string, bool) {
	item := s.cache.Get(key)
	if item == nil || item.IsExpired() {
		return "", false
	}
	return item.Value(), true
}

func (s *MemoryStore) Delete(key string) {
	s.cache.Delete(key)
}

func (s *MemoryStore) Pop(key string) (string, bool) {
	item, ok := s.cache.GetAndDelete(key)
	if !ok || item == nil || item.IsExpired() {
		return "", false
	}
	return item.Value(), true
}

func (s *MemoryStore) Close() {
	s.cache.Stop()
}
