package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ahmaddaku97-design/Aim/internal/logger"
)

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize     int           `mapstructure:"pool_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RedisManager Redis管理器
type RedisManager struct {
	client *redis.Client
	config *RedisConfig
	ctx    context.Context
}

// NewRedisManager 创建Redis管理器
func NewRedisManager(config *RedisConfig) (*RedisManager, error) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	})

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	logger.Infof("Redis connected: %s", config.Addr)
	return &RedisManager{
		client: client,
		config: config,
		ctx:    ctx,
	}, nil
}

// Set 设置键值，值JSON序列化后存储
func (rm *RedisManager) Set(key string, value interface{}, expiry time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %v", err)
	}
	return rm.client.Set(rm.ctx, key, data, expiry).Err()
}

// GetString 获取字符串值
func (rm *RedisManager) GetString(key string) (string, error) {
	return rm.client.Get(rm.ctx, key).Result()
}

// GetObject 获取并反序列化对象
func (rm *RedisManager) GetObject(key string, dest interface{}) error {
	data, err := rm.client.Get(rm.ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除键
func (rm *RedisManager) Delete(keys ...string) error {
	return rm.client.Del(rm.ctx, keys...).Err()
}

// Exists 键是否存在
func (rm *RedisManager) Exists(key string) (bool, error) {
	n, err := rm.client.Exists(rm.ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Expire 刷新过期时间
func (rm *RedisManager) Expire(key string, expiry time.Duration) error {
	return rm.client.Expire(rm.ctx, key, expiry).Err()
}

// GetClient 获取底层客户端
func (rm *RedisManager) GetClient() *redis.Client {
	return rm.client
}

// Close 关闭Redis连接
func (rm *RedisManager) Close() error {
	return rm.client.Close()
}
