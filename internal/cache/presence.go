package cache

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ahmaddaku97-design/Aim/internal/model"
)

// PresenceCache 在线状态缓存：心跳续期的TTL键，过期即视为离线
type PresenceCache struct {
	redis  *RedisManager
	prefix string
	expiry time.Duration
}

// NewPresenceCache 创建在线状态缓存
func NewPresenceCache(redis *RedisManager) *PresenceCache {
	return &PresenceCache{
		redis:  redis,
		prefix: "online:",
		expiry: 5 * time.Minute,
	}
}

// Touch 标记用户在线并续期
func (pc *PresenceCache) Touch(userID string) error {
	key := fmt.Sprintf("%s%s", pc.prefix, userID)
	return pc.redis.Set(key, time.Now().Unix(), pc.expiry)
}

// SetOffline 主动下线（登出）
func (pc *PresenceCache) SetOffline(userID string) error {
	key := fmt.Sprintf("%s%s", pc.prefix, userID)
	return pc.redis.Delete(key)
}

// Status 查询用户在线状态
func (pc *PresenceCache) Status(userID string) string {
	key := fmt.Sprintf("%s%s", pc.prefix, userID)
	exists, err := pc.redis.Exists(key)
	if err != nil && err != redis.Nil {
		// 查询失败按离线处理
		return model.FriendOffline
	}
	if exists {
		return model.FriendOnline
	}
	return model.FriendOffline
}
