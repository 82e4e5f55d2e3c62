// Package cache keeps completed snapshots in Redis so a finished job keeps
// reporting complete even if its status rows are later pruned.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/model"
)

const keyPrefix = "video:snapshot:"

// SnapshotCache stores snapshots by video id and locale. Default texts are
// localized, so one rendering is never served to another locale.
type SnapshotCache interface {
	Get(ctx context.Context, videoID, locale string) (*model.StatusSnapshot, bool)
	Put(ctx context.Context, snap *model.StatusSnapshot, locale string)
}

// RedisSnapshotCache implements SnapshotCache. Redis failures are logged and
// treated as misses.
type RedisSnapshotCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
	log zerolog.Logger
}

func NewRedisSnapshotCache(rdb redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisSnapshotCache {
	return &RedisSnapshotCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "snapshot_cache").Logger(),
	}
}

func Key(videoID, locale string) string {
	return keyPrefix + locale + ":" + videoID
}

func (c *RedisSnapshotCache) Get(ctx context.Context, videoID, locale string) (*model.StatusSnapshot, bool) {
	key := Key(videoID, locale)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("video_id", videoID).Msg("snapshot cache read failed")
		}
		return nil, false
	}

	var snap model.StatusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.log.Warn().Err(err).Str("video_id", videoID).Msg("dropping corrupt cached snapshot")
		c.rdb.Del(ctx, key)
		return nil, false
	}
	return &snap, true
}

func (c *RedisSnapshotCache) Put(ctx context.Context, snap *model.StatusSnapshot, locale string) {
	data, err := json.Marshal(snap)
	if err != nil {
		c.log.Error().Err(err).Str("video_id", snap.VideoID).Msg("failed to marshal snapshot")
		return
	}
	if err := c.rdb.Set(ctx, Key(snap.VideoID, locale), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("video_id", snap.VideoID).Msg("snapshot cache write failed")
	}
}
