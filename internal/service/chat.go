package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"github.com/ahmaddaku97-design/Aim/internal/monitoring"
	"github.com/ahmaddaku97-design/Aim/internal/mq"
	"github.com/ahmaddaku97-design/Aim/internal/security"
)

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrRateLimited  = errors.New("sending messages too fast")
	ErrRoomNotFound = errors.New("room not found")
)

// ChatService 聊天：世界频道和私聊房间的消息、房间创建/加入/列表
type ChatService struct {
	rooms    database.RoomStore
	messages database.MessageStore
	hub      *feed.Hub
	limiter  *security.RateLimitManager
	events   EventPublisher
	metrics  *monitoring.MetricsCollector
}

// NewChatService 创建聊天服务
func NewChatService(rooms database.RoomStore, messages database.MessageStore, hub *feed.Hub, limiter *security.RateLimitManager, events EventPublisher, metrics *monitoring.MetricsCollector) *ChatService {
	return &ChatService{
		rooms:    rooms,
		messages: messages,
		hub:      hub,
		limiter:  limiter,
		events:   events,
		metrics:  metrics,
	}
}

// topicFor 频道对应的订阅主题
func topicFor(scope model.ChatScope) string {
	if scope.IsWorld() {
		return feed.TopicChatWorld
	}
	return feed.TopicChatRoom(scope.RoomID)
}

// Send 发送消息
// 空白文本本地拒绝，不触达存储；时间戳由客户端（本服务）在发送时刻赋值，毫秒
func (cs *ChatService) Send(ctx context.Context, scope model.ChatScope, sender *model.User, text string) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	if cs.limiter != nil && !cs.limiter.CheckLimit("chat:"+sender.ID, security.ChatSendRate, security.ChatSendBurst) {
		return nil, ErrRateLimited
	}

	msg := &model.Message{
		SenderID:     sender.ID,
		SenderName:   sender.Name,
		SenderAvatar: sender.Avatar,
		Text:         text,
		Timestamp:    time.Now().UnixMilli(),
	}

	if err := cs.messages.Append(ctx, scope, msg); err != nil {
		return nil, err
	}

	cs.hub.Publish(topicFor(scope), msg)

	if cs.events != nil {
		if err := cs.events.PublishChatMessage(scope, msg); err != nil {
			// 跨节点扩散失败只记日志，消息已落库
			logger.Warnf("failed to publish chat event: %v", err)
		}
	}

	if cs.metrics != nil {
		if scope.IsWorld() {
			cs.metrics.IncMessageSent("world")
		} else {
			cs.metrics.IncMessageSent("room")
		}
	}

	return msg, nil
}

// History 频道最近50条消息，按时间升序
func (cs *ChatService) History(ctx context.Context, scope model.ChatScope) ([]*model.Message, error) {
	return cs.messages.Latest(ctx, scope, model.ChatHistoryLimit)
}

// CreateRoom 创建房间：随机6位加入码，默认房名取创建者昵称
func (cs *ChatService) CreateRoom(ctx context.Context, creator *model.User) (*model.Room, error) {
	room := &model.Room{
		Name:      fmt.Sprintf("%s's Room", creator.Name),
		Code:      generateRoomCode(),
		CreatedBy: creator.ID,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := cs.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	cs.hub.Publish(feed.TopicRooms, room)
	logger.Infof("room created: id=%s code=%s by=%s", room.ID.Hex(), room.Code, creator.ID)
	return room, nil
}

// JoinRoom 按加入码进入房间，码统一转大写比较；不存在返回 ErrRoomNotFound
func (cs *ChatService) JoinRoom(ctx context.Context, code string) (*model.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	room, err := cs.rooms.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// ListRooms 房间列表，顺序不保证，一页最多20个
// 没有按用户的成员索引，全量翻页是规模上的已知限制
func (cs *ChatService) ListRooms(ctx context.Context) ([]*model.Room, error) {
	return cs.rooms.List(ctx, model.RoomListLimit)
}

// WatchRooms 订阅房间列表变化
func (cs *ChatService) WatchRooms() *feed.Subscription {
	return cs.hub.Subscribe(feed.TopicRooms)
}

// HandleRemoteMessage 其他节点扩散过来的消息，只投递本地订阅者，不再落库
func (cs *ChatService) HandleRemoteMessage(event *mq.ChatEvent) error {
	scope := model.ChatScope{RoomID: event.RoomID}
	cs.hub.Publish(topicFor(scope), event.Message)
	return nil
}
