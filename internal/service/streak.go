package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/monitoring"
)

var ErrAlreadyCheckedIn = errors.New("already checked in today")

// StreakTracker 每日签到
// 同一自然日只能签到一次，漏签不清零：streak 只增不减，这是产品规则而非缺陷
type StreakTracker struct {
	users   database.UserStore
	hub     *feed.Hub
	metrics *monitoring.MetricsCollector
}

// NewStreakTracker 创建签到服务
func NewStreakTracker(users database.UserStore, hub *feed.Hub, metrics *monitoring.MetricsCollector) *StreakTracker {
	return &StreakTracker{
		users:   users,
		hub:     hub,
		metrics: metrics,
	}
}

// CheckIn 签到
// 按自然日（now所在时区）判定资格，不是滚动24小时；当日已签到返回 ErrAlreadyCheckedIn
func (st *StreakTracker) CheckIn(ctx context.Context, userID string, now time.Time) (int64, error) {
	user, err := st.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	if user.HasCheckedIn() && sameCalendarDay(user.LastCheckIn, now) {
		return user.Streak, ErrAlreadyCheckedIn
	}

	newStreak := user.Streak + 1
	err = st.users.UpdateFields(ctx, userID, bson.M{
		"streak":      newStreak,
		"lastCheckIn": now,
	})
	if err != nil {
		return user.Streak, err
	}

	if st.metrics != nil {
		st.metrics.IncCheckin()
	}

	// 推送账户和排行榜变更
	user.Streak = newStreak
	user.LastCheckIn = now
	publishUser(st.hub, user)
	st.hub.Publish(feed.TopicLeaderboard, struct{}{})

	return newStreak, nil
}

// CheckedInToday 当日是否已签到（界面置灰用）
func (st *StreakTracker) CheckedInToday(ctx context.Context, userID string, now time.Time) (bool, error) {
	user, err := st.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.HasCheckedIn() && sameCalendarDay(user.LastCheckIn, now), nil
}

// sameCalendarDay 两个时间是否同一自然日，以b的时区为准
func sameCalendarDay(a, b time.Time) bool {
	y1, m1, d1 := a.In(b.Location()).Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
