package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/model"
)

// 内存版存储实现，语义与mongodb仓库一致

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) put(u *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; ok {
		return errors.New("duplicate user")
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "streak":
			u.Streak = v.(int64)
		case "lastCheckIn":
			u.LastCheckIn = v.(time.Time)
		case "name":
			u.Name = v.(string)
		case "avatar":
			u.Avatar = v.(string)
		case "friendsList":
			u.FriendsList = v.([]model.Friend)
		}
	}
	return nil
}

func (f *fakeUserStore) IncrCoins(ctx context.Context, id string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Coins += delta
	return nil
}

func (f *fakeUserStore) DebitCoins(ctx context.Context, id string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	if u.Coins < amount {
		return database.ErrInsufficientCoins
	}
	u.Coins -= amount
	return nil
}

func (f *fakeUserStore) FindByReferralCode(ctx context.Context, code string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ReferralCode == code {
			clone := *u
			return &clone, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserStore) TopByStreak(ctx context.Context, limit int64) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*model.User, 0, len(f.users))
	for _, u := range f.users {
		clone := *u
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Streak > all[j].Streak })
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeUserStore) coins(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].Coins
}

type fakeRoomStore struct {
	mu    sync.Mutex
	rooms []*model.Room
}

func (f *fakeRoomStore) Create(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room.ID = primitive.NewObjectID()
	clone := *room
	f.rooms = append(f.rooms, &clone)
	return nil
}

func (f *fakeRoomStore) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.Code == code {
			clone := *r
			return &clone, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeRoomStore) List(ctx context.Context, limit int64) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		if int64(len(out)) >= limit {
			break
		}
		clone := *r
		out = append(out, &clone)
	}
	return out, nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	byScope  map[string][]*model.Message
	appendN  int
	failNext error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{byScope: make(map[string][]*model.Message)}
}

func (f *fakeMessageStore) Append(ctx context.Context, scope model.ChatScope, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	msg.ID = primitive.NewObjectID()
	msg.RoomID = scope.RoomID
	clone := *msg
	f.byScope[scope.RoomID] = append(f.byScope[scope.RoomID], &clone)
	f.appendN++
	return nil
}

func (f *fakeMessageStore) Latest(ctx context.Context, scope model.ChatScope, limit int64) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.byScope[scope.RoomID]
	if int64(len(msgs)) > limit {
		msgs = msgs[int64(len(msgs))-limit:]
	}
	out := make([]*model.Message, 0, len(msgs))
	for _, m := range msgs {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeMessageStore) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendN
}

type fakeWithdrawalStore struct {
	mu       sync.Mutex
	requests []*model.WithdrawalRequest
	failNext error
}

func (f *fakeWithdrawalStore) Create(ctx context.Context, req *model.WithdrawalRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	req.ID = primitive.NewObjectID()
	req.Timestamp = time.Now()
	clone := *req
	f.requests = append(f.requests, &clone)
	return nil
}

func (f *fakeWithdrawalStore) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.WithdrawalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.WithdrawalRequest, 0)
	for _, r := range f.requests {
		if r.UserID == userID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeEvents struct {
	mu          sync.Mutex
	withdrawals []*model.WithdrawalRequest
	messages    []*model.Message
}

func (f *fakeEvents) PublishWithdrawalCreated(req *model.WithdrawalRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdrawals = append(f.withdrawals, req)
	return nil
}

func (f *fakeEvents) PublishChatMessage(scope model.ChatScope, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}
