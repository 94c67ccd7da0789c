package feed

import (
	"sync"

	"github.com/ahmaddaku97-design/Aim/internal/logger"
)

// 订阅主题，按文档/查询划分
const (
	TopicLeaderboard = "leaderboard"
	TopicRooms       = "rooms"
	TopicChatWorld   = "chat:world"
)

// TopicUser 用户文档主题
func TopicUser(userID string) string {
	return "user:" + userID
}

// TopicChatRoom 房间聊天主题
func TopicChatRoom(roomID string) string {
	return "chat:room:" + roomID
}

// Hub 进程内订阅中心：写入方发布变更，订阅方收到推送快照
// 每个逻辑订阅对应一个 Subscription，取消后保证不再投递
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// Subscription 一条活跃订阅
type Subscription struct {
	topic string
	hub   *Hub
	ch    chan interface{}
	once  sync.Once
}

// NewHub 创建订阅中心
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe 订阅主题
func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic: topic,
		hub:   h,
		ch:    make(chan interface{}, 16),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	return sub
}

// Publish 向主题投递事件，慢消费者丢弃而不阻塞写入方
func (h *Hub) Publish(topic string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[topic] {
		select {
		case sub.ch <- data:
		default:
			logger.Warnf("feed subscriber lagging, event dropped: topic=%s", topic)
		}
	}
}

// Count 当前活跃订阅总数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, set := range h.subs {
		total += len(set)
	}
	return total
}

// Events 事件通道，订阅取消后关闭
func (s *Subscription) Events() <-chan interface{} {
	return s.ch
}

// Topic 订阅的主题
func (s *Subscription) Topic() string {
	return s.topic
}

// Cancel 取消订阅
// 返回后保证不再有事件投递：摘除在持有写锁时完成，与所有进行中的 Publish 互斥
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		h := s.hub

		h.mu.Lock()
		if set, ok := h.subs[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.topic)
			}
		}
		h.mu.Unlock()

		close(s.ch)
	})
}
