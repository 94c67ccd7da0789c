package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmaddaku97-design/Aim/internal/model"
)

// 事件主题
const (
	TopicWithdrawalCreated = "withdrawal_created" // 管理端提现处理队列
	TopicChatMessages      = "chat_messages"      // 聊天消息跨节点扩散
)

// EventBroker 业务事件代理：封装NSQ主题与事件编解码
type EventBroker struct {
	nsq    *NSQManager
	nodeID string
}

// NewEventBroker 创建业务事件代理
func NewEventBroker(nsq *NSQManager, nodeID string) *EventBroker {
	return &EventBroker{
		nsq:    nsq,
		nodeID: nodeID,
	}
}

// WithdrawalEvent 提现创建事件，投递给管理端处理队列
type WithdrawalEvent struct {
	NodeID    string                   `json:"node_id"`
	Request   *model.WithdrawalRequest `json:"request"`
	Timestamp int64                    `json:"timestamp"`
}

// PublishWithdrawalCreated 发布提现创建事件
func (eb *EventBroker) PublishWithdrawalCreated(req *model.WithdrawalRequest) error {
	event := &WithdrawalEvent{
		NodeID:    eb.nodeID,
		Request:   req,
		Timestamp: time.Now().UnixMilli(),
	}
	return eb.nsq.PublishJSON(TopicWithdrawalCreated, event)
}

// ChatEvent 聊天消息事件，用于多节点部署时扩散到其他节点的订阅者
type ChatEvent struct {
	NodeID  string         `json:"node_id"`
	RoomID  string         `json:"room_id,omitempty"` // 世界频道为空
	Message *model.Message `json:"message"`
}

// PublishChatMessage 发布聊天消息事件
func (eb *EventBroker) PublishChatMessage(scope model.ChatScope, msg *model.Message) error {
	event := &ChatEvent{
		NodeID:  eb.nodeID,
		RoomID:  scope.RoomID,
		Message: msg,
	}
	return eb.nsq.PublishJSON(TopicChatMessages, event)
}

// ChatEventHandler 聊天消息事件处理器
// 忽略本节点发出的事件，避免重复投递给本地订阅者
type ChatEventHandler struct {
	nodeID    string
	onMessage func(*ChatEvent) error
}

// NewChatEventHandler 创建聊天消息事件处理器
func NewChatEventHandler(nodeID string, onMessage func(*ChatEvent) error) *ChatEventHandler {
	return &ChatEventHandler{
		nodeID:    nodeID,
		onMessage: onMessage,
	}
}

// HandleMessage 实现MessageHandler接口
func (h *ChatEventHandler) HandleMessage(topic, channel string, data []byte) error {
	var event ChatEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal chat event: %v", err)
	}

	if event.NodeID == h.nodeID {
		return nil
	}
	return h.onMessage(&event)
}

// SubscribeChatMessages 订阅其他节点的聊天消息
func (eb *EventBroker) SubscribeChatMessages(handler *ChatEventHandler) error {
	channel := fmt.Sprintf("node_%s", eb.nodeID)
	return eb.nsq.Subscribe(TopicChatMessages, channel, handler)
}
