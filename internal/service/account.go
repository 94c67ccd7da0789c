package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ahmaddaku97-design/Aim/internal/cache"
	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"github.com/ahmaddaku97-design/Aim/internal/monitoring"
	"github.com/ahmaddaku97-design/Aim/internal/storage"
)

const (
	MinPasswordLength = 8
	LeaderboardLimit  = 10
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrNameRequired     = errors.New("name is required")
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Streak int64  `json:"streak"`
}

// AccountService 账户管理：注册、资料更新、好友、排行榜
type AccountService struct {
	users       database.UserStore
	referral    *ReferralEngine
	presence    *cache.PresenceCache
	leaderboard *cache.LeaderboardCache
	blobs       storage.BlobStore
	hub         *feed.Hub
	metrics     *monitoring.MetricsCollector
}

// NewAccountService 创建账户服务
func NewAccountService(users database.UserStore, referral *ReferralEngine, presence *cache.PresenceCache, leaderboard *cache.LeaderboardCache, blobs storage.BlobStore, hub *feed.Hub, metrics *monitoring.MetricsCollector) *AccountService {
	return &AccountService{
		users:       users,
		referral:    referral,
		presence:    presence,
		leaderboard: leaderboard,
		blobs:       blobs,
		hub:         hub,
		metrics:     metrics,
	}
}

// ValidateSignup 注册前的本地校验，不通过则不发起任何网络调用
func (as *AccountService) ValidateSignup(name, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Signup 创建账户文档
// uid 来自外部身份提供方；邀请码命中时新账户带500金币，邀请人得1000
func (as *AccountService) Signup(ctx context.Context, uid, name, email, referralCode string) (*model.User, error) {
	user := &model.User{
		ID:           uid,
		Name:         name,
		Email:        email,
		Avatar:       defaultAvatar(name),
		Streak:       0,
		Coins:        0,
		ReferralCode: GenerateReferralCode(),
		FriendsList:  []model.Friend{},
		CreatedAt:    time.Now(),
	}

	referred, err := as.referral.Apply(ctx, user, referralCode)
	if err != nil {
		return nil, err
	}

	if err := as.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if as.metrics != nil {
		as.metrics.IncSignup(referred)
	}
	as.hub.Publish(feed.TopicLeaderboard, struct{}{})

	return user, nil
}

// Get 获取账户文档
func (as *AccountService) Get(ctx context.Context, userID string) (*model.User, error) {
	return as.users.GetByID(ctx, userID)
}

// UpdateName 更新昵称（邮箱注册后不可改）
func (as *AccountService) UpdateName(ctx context.Context, userID, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}

	if err := as.users.UpdateFields(ctx, userID, bson.M{"name": name}); err != nil {
		return err
	}

	as.pushAccount(ctx, userID)
	return nil
}

// SetAvatar 上传头像并写回URI
// 上传走外部对象存储，这里只消费返回的URI
func (as *AccountService) SetAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (string, error) {
	if as.blobs == nil {
		return "", errors.New("blob storage not configured")
	}

	key := fmt.Sprintf("avatars/%s_%d", userID, time.Now().UnixMilli())
	url, err := as.blobs.Put(ctx, key, r, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %v", err)
	}

	if err := as.users.UpdateFields(ctx, userID, bson.M{"avatar": url}); err != nil {
		return "", err
	}

	as.pushAccount(ctx, userID)
	return url, nil
}

// AddFriend 添加好友，按id去重，整表合并写回 friendsList 字段
func (as *AccountService) AddFriend(ctx context.Context, userID string, friend model.Friend) error {
	user, err := as.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.AddFriend(friend) {
		// 已存在，幂等返回
		return nil
	}

	if err := as.users.UpdateFields(ctx, userID, bson.M{"friendsList": user.FriendsList}); err != nil {
		return err
	}

	publishUser(as.hub, user)
	return nil
}

// Friends 好友列表，在线状态实时解析
func (as *AccountService) Friends(ctx context.Context, userID string) ([]model.Friend, error) {
	user, err := as.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]model.Friend, len(user.FriendsList))
	copy(friends, user.FriendsList)
	if as.presence != nil {
		for i := range friends {
			friends[i].Status = as.presence.Status(friends[i].ID)
		}
	}
	return friends, nil
}

// Leaderboard 按连续签到天数降序的排行榜
// 拉取接口走短TTL缓存，推送通道不走缓存
func (as *AccountService) Leaderboard(ctx context.Context) ([]*LeaderboardEntry, error) {
	if as.leaderboard != nil {
		var cached []*LeaderboardEntry
		if err := as.leaderboard.Get(&cached); err == nil {
			return cached, nil
		}
	}

	users, err := as.users.TopByStreak(ctx, LeaderboardLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, &LeaderboardEntry{
			ID:     u.ID,
			Name:   u.Name,
			Avatar: u.Avatar,
			Streak: u.Streak,
		})
	}

	if as.leaderboard != nil {
		if err := as.leaderboard.Set(entries); err != nil {
			logger.Warnf("failed to cache leaderboard: %v", err)
		}
	}
	return entries, nil
}

// WatchAccount 订阅账户文档变更
func (as *AccountService) WatchAccount(userID string) *feed.Subscription {
	return as.hub.Subscribe(feed.TopicUser(userID))
}

// WatchLeaderboard 订阅排行榜变更信号
func (as *AccountService) WatchLeaderboard() *feed.Subscription {
	return as.hub.Subscribe(feed.TopicLeaderboard)
}

// pushAccount 推送账户最新快照
func (as *AccountService) pushAccount(ctx context.Context, userID string) {
	if user, err := as.users.GetByID(ctx, userID); err == nil {
		publishUser(as.hub, user)
	}
}

// defaultAvatar 按昵称生成默认头像URI
func defaultAvatar(name string) string {
	seed := strings.ReplaceAll(name, " ", "")
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed
}
