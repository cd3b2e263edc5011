package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GeminiStream/config"
	"GeminiStream/logger"
	"GeminiStream/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	lyricsKey      = "lyrics:%s:%s:%s:%s" // String: 按服务器、歌词来源和歌曲ID存储歌词 JSON
	lyricsTTL      = 7 * 24 * time.Hour
	lyricsMissTTL  = time.Hour // 无歌词的歌曲更早重试
	lyricsMissMark = "-"
)

// LyricsFetcher 按歌曲查询歌词
type LyricsFetcher interface {
	GetLyrics(ctx context.Context, creds model.Credentials, song model.Song) *model.Lyrics
}

// LyricsCache 在 Redis 中缓存 LyricsFetcher 的结果, 包括未命中.
// Redis 出错时直接调用 fetcher
type LyricsCache struct {
	client *redis.Client
	next   LyricsFetcher
}

// NewLyricsCache 创建歌词缓存
func NewLyricsCache(next LyricsFetcher) *LyricsCache {
	return &LyricsCache{client: RedisClient, next: next}
}

// key 按服务器和是否启用 LrcLib 区分, 关闭回退时记录的未命中
// 在开启回退后不再生效
func (c *LyricsCache) key(creds model.Credentials, songID string) string {
	server := uuid.NewSHA1(uuid.NameSpaceURL, []byte(creds.BaseURL())).String()
	sources := "server"
	if creds.EnableLyricsFallback {
		sources = "lrclib"
	}
	return fmt.Sprintf(lyricsKey, config.AppID, server, sources, songID)
}

func (c *LyricsCache) GetLyrics(ctx context.Context, creds model.Credentials, song model.Song) *model.Lyrics {
	if c.client == nil {
		return c.next.GetLyrics(ctx, creds, song)
	}

	key := c.key(creds, song.ID)
	data, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && data == lyricsMissMark:
		return nil
	case err == nil:
		var l model.Lyrics
		if jerr := json.Unmarshal([]byte(data), &l); jerr == nil {
			logger.Debug("[LyricsCache] hit", logger.String("song_id", song.ID))
			return &l
		}
	case err != redis.Nil:
		logger.Warn("[LyricsCache] read failed", logger.String("song_id", song.ID), logger.ErrorField(err))
	}

	l := c.next.GetLyrics(ctx, creds, song)
	c.store(ctx, key, l)
	return l
}

func (c *LyricsCache) store(ctx context.Context, key string, l *model.Lyrics) {
	value, ttl := lyricsMissMark, lyricsMissTTL
	if l != nil {
		data, err := json.Marshal(l)
		if err != nil {
			return
		}
		value, ttl = string(data), lyricsTTL
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn("[LyricsCache] write failed", logger.String("key", key), logger.ErrorField(err))
	}
}
