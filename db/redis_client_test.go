package db

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clients under test. A GeoRedisClient against a live server can be added
// here for integration runs.
func clients() []struct {
	name   string
	client RedisClient
} {
	return []struct {
		name   string
		client RedisClient
	}{
		{"MockRedisClient", NewMockRedisClient()},
	}
}

func TestRedisClient_SetAndGet(t *testing.T) {
	ctx := context.Background()
	for _, test := range clients() {
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, test.client.Set(ctx, "test-key", "test-value", 0))

			got, err := test.client.Get(ctx, "test-key")
			require.NoError(t, err)
			assert.Equal(t, "test-value", got)

			_, err = test.client.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

func TestRedisClient_AddLocationWithJSONAndGetLocationsWithinRadius(t *testing.T) {
	ctx := context.Background()
	for _, test := range clients() {
		t.Run(test.name, func(t *testing.T) {
			// Notre-Dame is ~600 m from the center, La Défense ~9 km.
			require.NoError(t, test.client.AddLocationWithJSON(ctx, "venues", "far", 48.8924, 2.2360, map[string]string{"id": "far"}, 0))
			require.NoError(t, test.client.AddLocationWithJSON(ctx, "venues", "near", 48.8530, 2.3499, map[string]string{"id": "near"}, 0))
			require.NoError(t, test.client.AddLocationWithJSON(ctx, "venues", "center", 48.8566, 2.3522, map[string]string{"id": "center"}, 0))

			results, err := test.client.GetLocationsWithinRadius(ctx, "venues", 48.8566, 2.3522, 1)
			require.NoError(t, err)
			require.Len(t, results, 2)

			var first, second map[string]string
			require.NoError(t, json.Unmarshal([]byte(results[0]), &first))
			require.NoError(t, json.Unmarshal([]byte(results[1]), &second))
			assert.Equal(t, "center", first["id"])
			assert.Equal(t, "near", second["id"])

			results, err = test.client.GetLocationsWithinRadius(ctx, "venues", 48.8566, 2.3522, 20)
			require.NoError(t, err)
			assert.Len(t, results, 3)

			results, err = test.client.GetLocationsWithinRadius(ctx, "unknown", 48.8566, 2.3522, 20)
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestRedisClient_KeysAndDel(t *testing.T) {
	ctx := context.Background()
	for _, test := range clients() {
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, test.client.Set(ctx, "venues_a:1", "1", 0))
			require.NoError(t, test.client.Set(ctx, "venues_a:2", "2", 0))
			require.NoError(t, test.client.Set(ctx, "other", "3", 0))
			require.NoError(t, test.client.AddLocationWithJSON(ctx, "venues_geo", "venues_a:3", 1, 1, "x", 0))

			keys, err := test.client.Keys(ctx, "venues_*")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"venues_a:1", "venues_a:2", "venues_a:3", "venues_geo"}, keys)

			require.NoError(t, test.client.Del(ctx, keys...))

			keys, err = test.client.Keys(ctx, "*")
			require.NoError(t, err)
			assert.Equal(t, []string{"other"}, keys)
		})
	}
}

func TestRedisClient_Ping(t *testing.T) {
	for _, test := range clients() {
		t.Run(test.name, func(t *testing.T) {
			assert.NoError(t, test.client.Ping(context.Background()))
		})
	}
}

func TestMockRedisClient_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	client := NewMockRedisClient()
	client.now = func() time.Time { return now }

	require.NoError(t, client.Set(ctx, "short", "v", time.Minute))
	require.NoError(t, client.AddLocationWithJSON(ctx, "geo", "member", 1, 1, "x", time.Minute))
	require.NoError(t, client.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Minute)

	_, err := client.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	results, err := client.GetLocationsWithinRadius(ctx, "geo", 1, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, results)

	got, err := client.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
