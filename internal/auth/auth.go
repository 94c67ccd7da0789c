package auth

import (
	"context"
	"errors"

	"github.com/ahmaddaku97-design/Aim/internal/cache"
)

// 认证凭据本身由外部身份提供方管理，这里只消费其分配的不透明用户ID

var ErrInvalidToken = errors.New("invalid or expired token")

// Provider 外部身份提供方接口
type Provider interface {
	// Register 创建认证账号，返回分配的用户ID
	Register(ctx context.Context, email, password string) (string, error)
	// Authenticate 校验凭据，返回用户ID
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// TokenVerifier 会话token校验接口
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// SessionVerifier 基于Redis会话缓存的token校验实现
type SessionVerifier struct {
	sessions *cache.SessionCache
}

// NewSessionVerifier 创建会话校验器
func NewSessionVerifier(sessions *cache.SessionCache) *SessionVerifier {
	return &SessionVerifier{sessions: sessions}
}

// Verify 按token取用户ID，顺带续期
func (sv *SessionVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	userID, err := sv.sessions.GetSession(token)
	if err != nil || userID == "" {
		return "", ErrInvalidToken
	}

	sv.sessions.RefreshSession(token)
	return userID, nil
}
