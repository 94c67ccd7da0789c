package cache

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionCache 会话缓存：不透明token -> 用户ID
type SessionCache struct {
	redis  *RedisManager
	prefix string
	expiry time.Duration
}

// NewSessionCache 创建会话缓存
func NewSessionCache(redis *RedisManager) *SessionCache {
	return &SessionCache{
		redis:  redis,
		prefix: "session:",
		expiry: 24 * time.Hour,
	}
}

// CreateSession 生成token并建立会话
func (sc *SessionCache) CreateSession(userID string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %v", err)
	}
	token := hex.EncodeToString(buf)

	key := fmt.Sprintf("%s%s", sc.prefix, token)
	if err := sc.redis.Set(key, userID, sc.expiry); err != nil {
		return "", err
	}
	return token, nil
}

// GetSession 按token取用户ID
func (sc *SessionCache) GetSession(token string) (string, error) {
	key := fmt.Sprintf("%s%s", sc.prefix, token)

	var userID string
	if err := sc.redis.GetObject(key, &userID); err != nil {
		return "", err
	}
	return userID, nil
}

// DeleteSession 删除会话（登出）
func (sc *SessionCache) DeleteSession(token string) error {
	key := fmt.Sprintf("%s%s", sc.prefix, token)
	return sc.redis.Delete(key)
}

// RefreshSession 刷新会话过期时间
func (sc *SessionCache) RefreshSession(token string) error {
	key := fmt.Sprintf("%s%s", sc.prefix, token)
	return sc.redis.Expire(key, sc.expiry)
}
