package service

import (
	"context"
	"sync"

	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/model"
)

// Synchronizer 单个客户端的聊天同步器
// 同一时刻只维护一个活跃频道的有序视图：切换频道会取消旧订阅，
// 旧订阅上的消息在切换后绝不会再进入展示列表
type Synchronizer struct {
	svc *ChatService

	mu     sync.Mutex
	gen    int // 切换代数，旧泵协程据此退出
	scope  model.ChatScope
	sub    *feed.Subscription
	buf    []*model.Message
	out    chan []*model.Message
	closed bool
}

// NewSynchronizer 创建聊天同步器
func NewSynchronizer(svc *ChatService) *Synchronizer {
	return &Synchronizer{
		svc: svc,
		out: make(chan []*model.Message, 4),
	}
}

// Snapshots 有序消息快照通道，每次变更推一份完整列表
func (s *Synchronizer) Snapshots() <-chan []*model.Message {
	return s.out
}

// Scope 当前活跃频道
func (s *Synchronizer) Scope() model.ChatScope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Switch 切换活跃频道
// 先订阅后拉历史，订阅期间到达的消息按ID去重，不会丢也不会重
func (s *Synchronizer) Switch(ctx context.Context, scope model.ChatScope) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	s.gen++
	gen := s.gen
	s.scope = scope

	sub := s.svc.hub.Subscribe(topicFor(scope))
	s.sub = sub
	s.mu.Unlock()

	history, err := s.svc.History(ctx, scope)
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			sub.Cancel()
			s.sub = nil
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.gen != gen || s.closed {
		// 已被更新的切换取代
		s.mu.Unlock()
		return nil
	}
	s.buf = append(s.buf[:0:0], history...)
	s.emitLocked()
	s.mu.Unlock()

	go s.pump(sub, gen)
	return nil
}

// pump 消费订阅事件，合并进有序视图
func (s *Synchronizer) pump(sub *feed.Subscription, gen int) {
	for ev := range sub.Events() {
		msg, ok := ev.(*model.Message)
		if !ok {
			continue
		}

		s.mu.Lock()
		if s.gen != gen || s.closed {
			s.mu.Unlock()
			return
		}
		s.insertLocked(msg)
		s.emitLocked()
		s.mu.Unlock()
	}
}

// insertLocked 按timestamp升序插入，同时间戳按到达顺序；去重；超出上限丢最旧
func (s *Synchronizer) insertLocked(msg *model.Message) {
	for _, exist := range s.buf {
		if !exist.ID.IsZero() && exist.ID == msg.ID {
			return
		}
	}

	// 绝大多数消息时间戳递增，从尾部找插入点
	pos := len(s.buf)
	for pos > 0 && s.buf[pos-1].Timestamp > msg.Timestamp {
		pos--
	}
	s.buf = append(s.buf, nil)
	copy(s.buf[pos+1:], s.buf[pos:])
	s.buf[pos] = msg

	if len(s.buf) > model.ChatHistoryLimit {
		s.buf = s.buf[len(s.buf)-model.ChatHistoryLimit:]
	}
}

// emitLocked 推送当前视图快照，消费不及时丢弃旧快照
func (s *Synchronizer) emitLocked() {
	snapshot := make([]*model.Message, len(s.buf))
	copy(snapshot, s.buf)

	select {
	case s.out <- snapshot:
	default:
		// 丢掉一份积压快照再放入最新的
		select {
		case <-s.out:
		default:
		}
		select {
		case s.out <- snapshot:
		default:
			logger.Warnf("chat snapshot dropped: scope=%+v", s.scope)
		}
	}
}

// Close 关闭同步器，取消活跃订阅
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	close(s.out)
	s.mu.Unlock()
}
