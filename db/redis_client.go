package db

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get when the key does not exist or expired.
var ErrKeyNotFound = errors.New("key not found")

// RedisClient defines the methods available in the RedisClient
type RedisClient interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	// AddLocationWithJSON indexes memberKey at lat/lon under geoKey and stores
	// data as JSON under memberKey. A zero ttl never expires.
	AddLocationWithJSON(ctx context.Context, geoKey, memberKey string, lat, lon float64, data interface{}, ttl time.Duration) error
	// GetLocationsWithinRadius returns the JSON of the members of key within
	// radius kilometers, nearest first.
	GetLocationsWithinRadius(ctx context.Context, key string, lat, lon, radius float64) ([]string, error)
	Ping(ctx context.Context) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}
