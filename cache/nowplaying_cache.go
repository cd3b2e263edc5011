package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"GeminiStream/config"
	"GeminiStream/model"

	"github.com/go-redis/redis/v8"
)

const (
	nowPlayingKey = "nowplaying:%s" // Hash: 当前播放信息
	nowPlayingTTL = 24 * time.Hour
)

// NowPlayingCache 把当前播放写入 Redis, 供其他设备展示媒体控制
type NowPlayingCache struct {
	client *redis.Client
	key    string
}

// NewNowPlayingCache 创建当前播放缓存
func NewNowPlayingCache() *NowPlayingCache {
	return &NowPlayingCache{client: RedisClient, key: fmt.Sprintf(nowPlayingKey, config.AppID)}
}

// Publish 写入当前播放信息, SongID 为空时删除
func (c *NowPlayingCache) Publish(ctx context.Context, np model.NowPlaying) error {
	if c.client == nil {
		return errNotInitialized
	}

	if np.SongID == "" {
		return c.client.Del(ctx, c.key).Err()
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, c.key, map[string]interface{}{
		"song_id":    np.SongID,
		"title":      np.Title,
		"artist":     np.Artist,
		"album":      np.Album,
		"artwork":    np.Artwork,
		"is_playing": np.IsPlaying,
		"position":   np.Position,
		"updated_at": time.Now().UnixMilli(),
	})
	pipe.Expire(ctx, c.key, nowPlayingTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Get 读取当前播放信息, 没有时返回 nil
func (c *NowPlayingCache) Get(ctx context.Context) (*model.NowPlaying, error) {
	if c.client == nil {
		return nil, errNotInitialized
	}

	result, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	np := &model.NowPlaying{
		SongID:  result["song_id"],
		Title:   result["title"],
		Artist:  result["artist"],
		Album:   result["album"],
		Artwork: result["artwork"],
	}
	if v, ok := result["is_playing"]; ok {
		np.IsPlaying = v == "1" || v == "true"
	}
	if v, ok := result["position"]; ok {
		np.Position, _ = strconv.ParseFloat(v, 64)
	}
	return np, nil
}
