package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 聊天消息（messages_world 集合 / 房间 messages 集合）
// 创建后不可变，排序键为 timestamp 升序
type Message struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID     string             `bson:"senderId" json:"senderId"`
	SenderName   string             `bson:"senderName" json:"senderName"`
	SenderAvatar string             `bson:"senderAvatar" json:"senderAvatar"`
	Text         string             `bson:"text" json:"text"`
	Timestamp    int64              `bson:"timestamp" json:"timestamp"` // 客户端发送时间，毫秒
	IsSystem     bool               `bson:"isSystem,omitempty" json:"isSystem,omitempty"`
	RoomID       string             `bson:"roomId,omitempty" json:"-"` // 世界频道为空
}

// Room 私聊房间（rooms 集合）
type Room struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Code      string             `bson:"code" json:"code"` // 6位大写字母数字加入码
	CreatedBy string             `bson:"createdBy" json:"createdBy"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"` // 毫秒
}

// ChatScope 当前聊天范围：世界频道或某个房间，同一时刻只有一个生效
type ChatScope struct {
	RoomID string
}

// WorldScope 世界频道
func WorldScope() ChatScope {
	return ChatScope{}
}

// RoomScope 房间频道
func RoomScope(roomID string) ChatScope {
	return ChatScope{RoomID: roomID}
}

// IsWorld 是否世界频道
func (s ChatScope) IsWorld() bool {
	return s.RoomID == ""
}

// ChatHistoryLimit 每个频道客户端只保留最近50条
const ChatHistoryLimit = 50

// RoomListLimit 房间列表一页最多20个
const RoomListLimit = 20
