package model

import "time"

// User 用户文档（users 集合）
// 字段名与线上文档保持一致，不能随意改动：coins / streak / lastCheckIn / referralCode / friendsList
type User struct {
	ID           string    `bson:"_id" json:"id"` // 认证方分配的用户ID
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	Avatar       string    `bson:"avatar" json:"avatar"`
	Streak       int64     `bson:"streak" json:"streak"`
	LastCheckIn  time.Time `bson:"lastCheckIn,omitempty" json:"lastCheckIn,omitempty"` // 零值表示从未签到
	Coins        int64     `bson:"coins" json:"coins"`                                 // 金币余额，任何时刻 >= 0
	ReferralCode string    `bson:"referralCode" json:"referralCode"`                   // 创建后不可变
	FriendsList  []Friend  `bson:"friendsList" json:"friendsList"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Friend 好友条目（users.friendsList 数组元素，按 id 去重）
type Friend struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Avatar string `bson:"avatar" json:"avatar"`
	Status string `bson:"status" json:"status"` // online / offline
}

// 好友在线状态
const (
	FriendOnline  = "online"
	FriendOffline = "offline"
)

// HasCheckedIn 是否签到过
func (u *User) HasCheckedIn() bool {
	return !u.LastCheckIn.IsZero()
}

// AddFriend 按 id 去重后追加好友，返回是否新增
func (u *User) AddFriend(f Friend) bool {
	for _, exist := range u.FriendsList {
		if exist.ID == f.ID {
			return false
		}
	}
	u.FriendsList = append(u.FriendsList, f)
	return true
}
