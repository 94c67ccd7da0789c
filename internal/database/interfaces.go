package database

import (
	"context"

	"github.com/ahmaddaku97-design/Aim/internal/model"
	"go.mongodb.org/mongo-driver/bson"
)

// 注意：这里只放数据访问层的抽象接口，按集合分组；服务层依赖接口而非具体实现，便于测试

// ------------------------------
// users 集合
// ------------------------------

// UserStore users 集合数据访问抽象
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// UpdateFields 部分合并更新，绝不整文档覆盖（并发修改不同字段互不影响）
	UpdateFields(ctx context.Context, id string, fields bson.M) error
	// IncrCoins 金币原子增量（$inc），正数加负数减，不做下限检查
	IncrCoins(ctx context.Context, id string, delta int64) error
	// DebitCoins 条件扣减：仅当 coins >= amount 时原子扣除，否则返回 ErrInsufficientCoins
	DebitCoins(ctx context.Context, id string, amount int64) error
	FindByReferralCode(ctx context.Context, code string) (*model.User, error)
	TopByStreak(ctx context.Context, limit int64) ([]*model.User, error)
}

// ------------------------------
// rooms / messages 集合
// ------------------------------

// RoomStore rooms 集合数据访问抽象
type RoomStore interface {
	Create(ctx context.Context, room *model.Room) error
	GetByCode(ctx context.Context, code string) (*model.Room, error)
	List(ctx context.Context, limit int64) ([]*model.Room, error)
}

// MessageStore 消息数据访问抽象：世界频道 messages_world，房间频道 messages（按 roomId 划分）
type MessageStore interface {
	Append(ctx context.Context, scope model.ChatScope, msg *model.Message) error
	// Latest 最近 limit 条，按 timestamp 升序返回
	Latest(ctx context.Context, scope model.ChatScope, limit int64) ([]*model.Message, error)
}

// ------------------------------
// withdrawals 集合
// ------------------------------

// WithdrawalStore withdrawals 集合数据访问抽象
type WithdrawalStore interface {
	Create(ctx context.Context, req *model.WithdrawalRequest) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]*model.WithdrawalRequest, error)
}
