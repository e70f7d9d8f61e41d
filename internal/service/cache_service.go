package service

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// CacheService - in-memory кеш с TTL. Используется как журнал погашенных
// токенов подтверждения.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
	clock clockwork.Clock
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

func NewCacheService(clock clockwork.Clock) *CacheService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CacheService{
		cache: make(map[string]*cacheEntry),
		clock: clock,
	}
}

// SetIfAbsent записывает ключ, только если живой записи ещё нет.
func (cs *CacheService) SetIfAbsent(key string, value interface{}, ttl time.Duration) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.clock.Now()
	if entry, ok := cs.cache[key]; ok && !now.After(entry.expiresAt) {
		return false
	}
	cs.cache[key] = &cacheEntry{data: value, expiresAt: now.Add(ttl)}
	return true
}

func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// Cleanup удаляет просроченные записи и возвращает их количество.
func (cs *CacheService) Cleanup() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.clock.Now()
	removed := 0
	for key, entry := range cs.cache {
		if now.After(entry.expiresAt) {
			delete(cs.cache, key)
			removed++
		}
	}
	return removed
}

func UsedTokenCacheKey(jti string) string {
	return "verification:used:" + jti
}
