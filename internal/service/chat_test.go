package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/model"
	"github.com/ahmaddaku97-design/Aim/internal/security"
)

func newChatFixture() (*ChatService, *fakeRoomStore, *fakeMessageStore) {
	rooms := &fakeRoomStore{}
	messages := newFakeMessageStore()
	svc := NewChatService(rooms, messages, feed.NewHub(), nil, nil, nil)
	return svc, rooms, messages
}

func testSender() *model.User {
	return &model.User{ID: "u1", Name: "Ali", Avatar: "a.png"}
}

func TestSendWorldMessage(t *testing.T) {
	svc, _, messages := newChatFixture()

	msg, err := svc.Send(context.Background(), model.WorldScope(), testSender(), "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.SenderID != "u1" || msg.Text != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Timestamp == 0 {
		t.Fatalf("expected timestamp assigned")
	}
	if messages.appendCount() != 1 {
		t.Fatalf("expected 1 append, got %d", messages.appendCount())
	}
}

func TestSendEmptyRejectedBeforeStore(t *testing.T) {
	svc, _, messages := newChatFixture()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Send(context.Background(), model.WorldScope(), testSender(), text)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("text=%q: expected ErrEmptyMessage, got %v", text, err)
		}
	}
	// 空白文本不触达存储
	if messages.appendCount() != 0 {
		t.Fatalf("expected no appends, got %d", messages.appendCount())
	}
}

func TestSendRateLimited(t *testing.T) {
	rooms := &fakeRoomStore{}
	messages := newFakeMessageStore()
	limiter := security.NewRateLimitManager()
	defer limiter.StopCleanup()
	svc := NewChatService(rooms, messages, feed.NewHub(), limiter, nil, nil)

	sender := testSender()
	var limited bool
	for i := 0; i < security.ChatSendBurst+2; i++ {
		_, err := svc.Send(context.Background(), model.WorldScope(), sender, "spam")
		if errors.Is(err, ErrRateLimited) {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("expected rate limit to trigger within burst+2 sends")
	}
}

func TestScopesAreIsolated(t *testing.T) {
	svc, _, _ := newChatFixture()
	sender := testSender()

	if _, err := svc.Send(context.Background(), model.WorldScope(), sender, "world"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := svc.Send(context.Background(), model.RoomScope("r1"), sender, "room"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	world, err := svc.History(context.Background(), model.WorldScope())
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(world) != 1 || world[0].Text != "world" {
		t.Fatalf("unexpected world history: %+v", world)
	}

	room, err := svc.History(context.Background(), model.RoomScope("r1"))
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(room) != 1 || room[0].Text != "room" {
		t.Fatalf("unexpected room history: %+v", room)
	}
}

func TestHistoryCappedAndAscending(t *testing.T) {
	svc, _, _ := newChatFixture()
	sender := testSender()

	for i := 0; i < model.ChatHistoryLimit+10; i++ {
		if _, err := svc.Send(context.Background(), model.WorldScope(), sender, "m"); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}

	history, err := svc.History(context.Background(), model.WorldScope())
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != model.ChatHistoryLimit {
		t.Fatalf("expected %d messages, got %d", model.ChatHistoryLimit, len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp < history[i-1].Timestamp {
			t.Fatalf("history not ascending at %d", i)
		}
	}
}

func TestCreateRoom(t *testing.T) {
	svc, _, _ := newChatFixture()

	room, err := svc.CreateRoom(context.Background(), testSender())
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.Name != "Ali's Room" {
		t.Fatalf("expected default room name, got %q", room.Name)
	}
	if len(room.Code) != 6 || room.Code != strings.ToUpper(room.Code) {
		t.Fatalf("bad room code: %q", room.Code)
	}
	if room.CreatedBy != "u1" {
		t.Fatalf("expected createdBy u1, got %q", room.CreatedBy)
	}
}

func TestJoinRoomCaseInsensitive(t *testing.T) {
	svc, _, _ := newChatFixture()

	created, err := svc.CreateRoom(context.Background(), testSender())
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	// 小写和带空白的码都能进
	room, err := svc.JoinRoom(context.Background(), "  "+strings.ToLower(created.Code)+" ")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if room.ID != created.ID {
		t.Fatalf("joined wrong room")
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	svc, _, _ := newChatFixture()

	_, err := svc.JoinRoom(context.Background(), "NOPE99")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestListRoomsCapped(t *testing.T) {
	svc, _, _ := newChatFixture()

	for i := 0; i < model.RoomListLimit+5; i++ {
		if _, err := svc.CreateRoom(context.Background(), testSender()); err != nil {
			t.Fatalf("CreateRoom %d failed: %v", i, err)
		}
	}

	rooms, err := svc.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != model.RoomListLimit {
		t.Fatalf("expected %d rooms, got %d", model.RoomListLimit, len(rooms))
	}
}
