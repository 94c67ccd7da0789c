package cache

import (
	"time"
)

// LeaderboardCache 排行榜缓存：短TTL兜住高频读取，过期后回源重查
// 签到推送仍走订阅通道，缓存只服务拉取接口，短暂滞后可接受
type LeaderboardCache struct {
	redis  *RedisManager
	key    string
	expiry time.Duration
}

// NewLeaderboardCache 创建排行榜缓存
func NewLeaderboardCache(redis *RedisManager) *LeaderboardCache {
	return &LeaderboardCache{
		redis:  redis,
		key:    "leaderboard:top",
		expiry: 30 * time.Second,
	}
}

// Get 读取缓存的榜单，未命中或反序列化失败返回错误
func (lc *LeaderboardCache) Get(dest interface{}) error {
	return lc.redis.GetObject(lc.key, dest)
}

// Set 写入榜单
func (lc *LeaderboardCache) Set(entries interface{}) error {
	return lc.redis.Set(lc.key, entries, lc.expiry)
}

// Invalidate 失效缓存（签到、注册等改变榜单的写入之后）
func (lc *LeaderboardCache) Invalidate() error {
	return lc.redis.Delete(lc.key)
}
