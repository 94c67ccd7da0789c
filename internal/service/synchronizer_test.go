package service

import (
	"context"
	"testing"
	"time"

	"github.com/ahmaddaku97-design/Aim/internal/model"
)

// waitSnapshot 等待下一份快照
func waitSnapshot(t *testing.T, s *Synchronizer) []*model.Message {
	t.Helper()
	select {
	case snapshot, ok := <-s.Snapshots():
		if !ok {
			t.Fatalf("snapshot channel closed")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return nil
	}
}

func TestSwitchEmitsHistory(t *testing.T) {
	svc, _, _ := newChatFixture()
	sender := testSender()

	if _, err := svc.Send(context.Background(), model.WorldScope(), sender, "first"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := svc.Send(context.Background(), model.WorldScope(), sender, "second"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	sync := NewSynchronizer(svc)
	defer sync.Close()

	if err := sync.Switch(context.Background(), model.WorldScope()); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}

	snapshot := waitSnapshot(t, sync)
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(snapshot))
	}
	if snapshot[0].Text != "first" || snapshot[1].Text != "second" {
		t.Fatalf("unexpected order: %q, %q", snapshot[0].Text, snapshot[1].Text)
	}
}

func TestLiveMessagesAppended(t *testing.T) {
	svc, _, _ := newChatFixture()
	sender := testSender()

	sync := NewSynchronizer(svc)
	defer sync.Close()

	if err := sync.Switch(context.Background(), model.WorldScope()); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}
	waitSnapshot(t, sync) // 空历史快照

	if _, err := svc.Send(context.Background(), model.WorldScope(), sender, "live"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	snapshot := waitSnapshot(t, sync)
	if len(snapshot) != 1 || snapshot[0].Text != "live" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestSwitchDropsOldScope(t *testing.T) {
	svc, _, _ := newChatFixture()
	sender := testSender()

	sync := NewSynchronizer(svc)
	defer sync.Close()

	if err := sync.Switch(context.Background(), model.WorldScope()); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}
	waitSnapshot(t, sync)

	// 切到房间后，世界频道的消息绝不能再进入视图
	if err := sync.Switch(context.Background(), model.RoomScope("r1")); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}

	if _, err := svc.Send(context.Background(), model.WorldScope(), sender, "stray"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := svc.Send(context.Background(), model.RoomScope("r1"), sender, "room-msg"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		var snapshot []*model.Message
		select {
		case snapshot = <-sync.Snapshots():
		case <-deadline:
			t.Fatalf("never saw room message")
		}

		sawRoom := false
		for _, m := range snapshot {
			if m.Text == "stray" {
				t.Fatalf("old-scope message leaked into view")
			}
			if m.Text == "room-msg" {
				sawRoom = true
			}
		}
		if sawRoom {
			return
		}
	}
}

func TestViewCappedAtHistoryLimit(t *testing.T) {
	svc, _, _ := newChatFixture()
	sender := testSender()

	sync := NewSynchronizer(svc)
	defer sync.Close()

	if err := sync.Switch(context.Background(), model.WorldScope()); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}

	for i := 0; i < model.ChatHistoryLimit+5; i++ {
		if _, err := svc.Send(context.Background(), model.WorldScope(), sender, "m"); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}

	// 消费到视图收满为止
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot := <-sync.Snapshots():
			if len(snapshot) > model.ChatHistoryLimit {
				t.Fatalf("view exceeded cap: %d", len(snapshot))
			}
			if len(snapshot) == model.ChatHistoryLimit {
				return
			}
		case <-deadline:
			t.Fatalf("view never reached cap")
		}
	}
}

func TestCloseStopsSnapshots(t *testing.T) {
	svc, _, _ := newChatFixture()

	sync := NewSynchronizer(svc)
	if err := sync.Switch(context.Background(), model.WorldScope()); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}
	waitSnapshot(t, sync)

	sync.Close()
	// 重复关闭安全
	sync.Close()

	for range sync.Snapshots() {
	}
}
