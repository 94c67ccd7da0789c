package security

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahmaddaku97-design/Aim/internal/logger"
)

// 聊天发送限流：每秒1条，突发最多5条
const (
	ChatSendRate  rate.Limit = 1
	ChatSendBurst            = 5
)

// RateLimitManager 限流管理器：按key管理令牌桶限流器
type RateLimitManager struct {
	limiters      map[string]*RateLimiter // key -> 令牌桶限流器
	mutex         sync.Mutex
	cleanupTicker *time.Ticker // 定时清理过期限流器
	stopChan      chan struct{}
}

// RateLimiter 令牌桶限流器：封装rate.Limiter及元数据
type RateLimiter struct {
	limiter     *rate.Limiter
	rate        rate.Limit // rps：每秒生成多少令牌
	burst       int        // 令牌桶容量
	lastRequest time.Time  // 上次请求时间，用于清理过期key
}

// NewRateLimitManager 创建令牌桶限流管理器
func NewRateLimitManager() *RateLimitManager {
	rlm := &RateLimitManager{
		limiters:      make(map[string]*RateLimiter),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopChan:      make(chan struct{}),
	}

	go rlm.startCleanupLoop()

	return rlm
}

// CheckLimit 检查请求是否允许
// key为限流对象标识（如 "chat:<userID>"），r为令牌生成速率，burst为桶容量
func (rlm *RateLimitManager) CheckLimit(key string, r rate.Limit, burst int) bool {
	rlm.mutex.Lock()
	defer rlm.mutex.Unlock()

	bucket, exists := rlm.limiters[key]
	if !exists {
		bucket = &RateLimiter{
			limiter:     rate.NewLimiter(r, burst),
			rate:        r,
			burst:       burst,
			lastRequest: time.Now(),
		}
		rlm.limiters[key] = bucket
	}

	// 若速率或容量变化，动态更新令牌桶
	if bucket.rate != r || bucket.burst != burst {
		bucket.rate = r
		bucket.burst = burst
		bucket.limiter.SetLimit(r)
		bucket.limiter.SetBurst(burst)
	}

	allowed := bucket.limiter.Allow()
	if allowed {
		bucket.lastRequest = time.Now()
	} else {
		logger.Warnf("rate limit exceeded for key: %s", key)
	}

	return allowed
}

// startCleanupLoop 启动定时清理协程
func (rlm *RateLimitManager) startCleanupLoop() {
	for {
		select {
		case <-rlm.cleanupTicker.C:
			rlm.cleanupExpiredBuckets()
		case <-rlm.stopChan:
			rlm.cleanupTicker.Stop()
			return
		}
	}
}

// cleanupExpiredBuckets 清理1小时内无请求的令牌桶
func (rlm *RateLimitManager) cleanupExpiredBuckets() {
	rlm.mutex.Lock()
	defer rlm.mutex.Unlock()

	now := time.Now()
	expiry := 1 * time.Hour

	for key, bucket := range rlm.limiters {
		if now.Sub(bucket.lastRequest) > expiry {
			delete(rlm.limiters, key)
		}
	}
}

// StopCleanup 停止清理协程
func (rlm *RateLimitManager) StopCleanup() {
	close(rlm.stopChan)
}
