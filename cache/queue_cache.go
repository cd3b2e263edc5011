package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GeminiStream/config"
	"GeminiStream/model"

	"github.com/go-redis/redis/v8"
)

const (
	queueKey        = "queue:%s"         // Sorted Set: score = 队列位置
	queueCurrentKey = "queue:%s:current" // String: 当前歌曲ID
	queueTTL        = 7 * 24 * time.Hour
)

// QueueCache 保存播放队列快照, 重启后可恢复
type QueueCache struct {
	client *redis.Client
	appID  string
}

// NewQueueCache 创建队列缓存
func NewQueueCache() *QueueCache {
	return &QueueCache{client: RedisClient, appID: config.AppID}
}

// SaveQueue 替换已保存的队列和当前歌曲ID
func (c *QueueCache) SaveQueue(ctx context.Context, songs []model.Song, currentID string) error {
	if c.client == nil {
		return errNotInitialized
	}

	key := fmt.Sprintf(queueKey, c.appID)
	curKey := fmt.Sprintf(queueCurrentKey, c.appID)

	members := make([]*redis.Z, 0, len(songs))
	for i, s := range songs {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}
		// 同一首歌可能出现多次, 用位置前缀保证成员唯一
		members = append(members, &redis.Z{Score: float64(i), Member: fmt.Sprintf("%06d|%s", i, data)})
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key, curKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, queueTTL)
	}
	if currentID != "" {
		pipe.Set(ctx, curKey, currentID, queueTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

// LoadQueue 按顺序返回队列和当前歌曲ID
func (c *QueueCache) LoadQueue(ctx context.Context) ([]model.Song, string, error) {
	if c.client == nil {
		return nil, "", errNotInitialized
	}

	key := fmt.Sprintf(queueKey, c.appID)
	raw, err := c.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load queue: %w", err)
	}

	songs := make([]model.Song, 0, len(raw))
	for _, member := range raw {
		if len(member) < 7 || member[6] != '|' {
			continue
		}
		var s model.Song
		if err := json.Unmarshal([]byte(member[7:]), &s); err != nil {
			continue
		}
		songs = append(songs, s)
	}

	currentID, err := c.client.Get(ctx, fmt.Sprintf(queueCurrentKey, c.appID)).Result()
	if err != nil && err != redis.Nil {
		return nil, "", fmt.Errorf("failed to load current song: %w", err)
	}
	return songs, currentID, nil
}
