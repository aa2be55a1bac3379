// Package cache holds the optional Redis-backed cache of parsed station
// playlists.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"mpdfm/logger"
	"mpdfm/playlist"

	"github.com/redis/go-redis/v9"
)

const stationKeyPrefix = "mpdfm:playlist:"

// StationCache caches parsed m3u playlist content keyed by playlist name.
// A nil *StationCache is valid and caches nothing, so callers need no
// Redis-configured check.
type StationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStationCache wraps a Redis client. ttl bounds how long a parsed
// playlist is served without re-reading the file.
func NewStationCache(client *redis.Client, ttl time.Duration) *StationCache {
	return &StationCache{client: client, ttl: ttl}
}

// Get returns the cached stations for a playlist name, if present.
func (c *StationCache) Get(ctx context.Context, name string) ([]playlist.Station, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, stationKeyPrefix+name).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("station cache get failed", logger.ErrorField(err), logger.String("playlist", name))
		}
		return nil, false
	}
	var stations []playlist.Station
	if err := json.Unmarshal(raw, &stations); err != nil {
		logger.Warn("station cache decode failed", logger.ErrorField(err), logger.String("playlist", name))
		return nil, false
	}
	return stations, true
}

// Set stores parsed stations under the playlist name.
func (c *StationCache) Set(ctx context.Context, name string, stations []playlist.Station) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(stations)
	if err != nil {
		logger.Warn("station cache encode failed", logger.ErrorField(err), logger.String("playlist", name))
		return
	}
	if err := c.client.Set(ctx, stationKeyPrefix+name, raw, c.ttl).Err(); err != nil {
		logger.Warn("station cache set failed", logger.ErrorField(err), logger.String("playlist", name))
	}
}

// Invalidate drops the cached entry for a playlist name.
func (c *StationCache) Invalidate(ctx context.Context, name string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, stationKeyPrefix+name).Err(); err != nil {
		logger.Warn("station cache invalidate failed", logger.ErrorField(err), logger.String("playlist", name))
	}
}
