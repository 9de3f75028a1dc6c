package db

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MockRedisClient is an in-memory RedisClient. It backs the store when
// Redis is disabled and in tests.
type MockRedisClient struct {
	mu      sync.RWMutex
	data    map[string]entry
	geoData map[string]map[string]orb.Point
	now     func() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewMockRedisClient initializes a new MockRedisClient.
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		data:    make(map[string]entry),
		geoData: make(map[string]map[string]orb.Point),
		now:     time.Now,
	}
}

func (m *MockRedisClient) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

// Set stores a key-value pair.
func (m *MockRedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry{value: value, expiresAt: m.expiry(ttl)}
	return nil
}

// Get retrieves a value for a given key.
func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, exists := m.data[key]
	if !exists || e.expired(m.now()) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return e.value, nil
}

// AddLocationWithJSON adds geolocation with JSON data. The geo index itself
// does not expire; members whose JSON expired are skipped on read.
func (m *MockRedisClient) AddLocationWithJSON(ctx context.Context, geoKey, memberKey string, lat, lon float64, data interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.geoData[geoKey]; !exists {
		m.geoData[geoKey] = make(map[string]orb.Point)
	}
	m.geoData[geoKey][memberKey] = orb.Point{lon, lat}
	m.data[memberKey] = entry{value: string(jsonData), expiresAt: m.expiry(ttl)}
	return nil
}

// GetLocationsWithinRadius filters members by great-circle distance.
func (m *MockRedisClient) GetLocationsWithinRadius(ctx context.Context, key string, lat, lon, radius float64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, exists := m.geoData[key]
	if !exists {
		return nil, nil
	}

	type hit struct {
		member   string
		distance float64
	}
	center := orb.Point{lon, lat}
	var hits []hit
	for member, p := range members {
		if d := geo.Distance(center, p); d <= radius*1000 {
			hits = append(hits, hit{member: member, distance: d})
		}
	}
	slices.SortFunc(hits, func(a, b hit) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		}
		return 0
	})

	now := m.now()
	var results []string
	for _, h := range hits {
		if e, exists := m.data[h.member]; exists && !e.expired(now) {
			results = append(results, e.value)
		}
	}
	return results, nil
}

// Ping always succeeds.
func (m *MockRedisClient) Ping(ctx context.Context) error {
	return nil
}

// Keys returns the live keys, plain and geo, matching a glob pattern.
func (m *MockRedisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	var keys []string
	for k, e := range m.data {
		if e.expired(now) {
			continue
		}
		if ok, err := path.Match(pattern, k); err != nil {
			return nil, err
		} else if ok {
			keys = append(keys, k)
		}
	}
	for k := range m.geoData {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.geoData, k)
	}
	return nil
}
