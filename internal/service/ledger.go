package service

import (
	"context"
	"fmt"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"github.com/ahmaddaku97-design/Aim/internal/monitoring"
)

// 金币流水来源
const (
	ReasonReferral     = "referral"
	ReasonWithdrawal   = "withdrawal"
	ReasonCompensation = "compensation"
)

// Ledger 金币账本：所有金币增减的唯一入口
// 全部走存储层原子增量（$inc），绝不本地读改写，并发增减不丢失
type Ledger struct {
	users   database.UserStore
	hub     *feed.Hub
	metrics *monitoring.MetricsCollector
}

// NewLedger 创建金币账本
func NewLedger(users database.UserStore, hub *feed.Hub, metrics *monitoring.MetricsCollector) *Ledger {
	return &Ledger{
		users:   users,
		hub:     hub,
		metrics: metrics,
	}
}

// Credit 入账金币
func (l *Ledger) Credit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("invalid credit amount: %d", amount)
	}

	if err := l.users.IncrCoins(ctx, userID, amount); err != nil {
		return err
	}

	if l.metrics != nil {
		l.metrics.AddCoinsCredited(reason, amount)
	}
	l.publishAccount(ctx, userID)
	return nil
}

// Debit 扣除金币
// 条件原子扣减：余额不足返回 database.ErrInsufficientCoins，绝不扣成负数
func (l *Ledger) Debit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("invalid debit amount: %d", amount)
	}

	if err := l.users.DebitCoins(ctx, userID, amount); err != nil {
		return err
	}

	if l.metrics != nil {
		l.metrics.AddCoinsDebited(reason, amount)
	}
	l.publishAccount(ctx, userID)
	return nil
}

// publishAccount 推送账户文档最新快照给订阅者
func (l *Ledger) publishAccount(ctx context.Context, userID string) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		logger.Warnf("failed to load account for feed push: user=%s err=%v", userID, err)
		return
	}
	l.hub.Publish(feed.TopicUser(userID), user)
}

// publishUser 推送给定账户快照（已有最新文档时避免二次读取）
func publishUser(hub *feed.Hub, user *model.User) {
	hub.Publish(feed.TopicUser(user.ID), user)
}
