package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ahmaddaku97-design/Aim/internal/database"
	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/model"
)

func TestCreditAndDebit(t *testing.T) {
	users := newFakeUserStore()
	users.put(&model.User{ID: "u1", Coins: 100})
	ledger := NewLedger(users, feed.NewHub(), nil)

	if err := ledger.Credit(context.Background(), "u1", 400, ReasonReferral); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if got := users.coins("u1"); got != 500 {
		t.Fatalf("expected 500 coins, got %d", got)
	}

	if err := ledger.Debit(context.Background(), "u1", 200, ReasonWithdrawal); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if got := users.coins("u1"); got != 300 {
		t.Fatalf("expected 300 coins, got %d", got)
	}
}

func TestDebitInsufficientRejected(t *testing.T) {
	users := newFakeUserStore()
	users.put(&model.User{ID: "u1", Coins: 100})
	ledger := NewLedger(users, feed.NewHub(), nil)

	// 余额不足整笔拒绝，不扣到0也不扣成负数
	err := ledger.Debit(context.Background(), "u1", 200, ReasonWithdrawal)
	if !errors.Is(err, database.ErrInsufficientCoins) {
		t.Fatalf("expected ErrInsufficientCoins, got %v", err)
	}
	if got := users.coins("u1"); got != 100 {
		t.Fatalf("expected balance untouched at 100, got %d", got)
	}
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	users := newFakeUserStore()
	users.put(&model.User{ID: "u1", Coins: 100})
	ledger := NewLedger(users, feed.NewHub(), nil)

	for _, amount := range []int64{0, -50} {
		if err := ledger.Credit(context.Background(), "u1", amount, ReasonReferral); err == nil {
			t.Fatalf("expected credit of %d rejected", amount)
		}
		if err := ledger.Debit(context.Background(), "u1", amount, ReasonWithdrawal); err == nil {
			t.Fatalf("expected debit of %d rejected", amount)
		}
	}
	if got := users.coins("u1"); got != 100 {
		t.Fatalf("expected balance untouched at 100, got %d", got)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	users := newFakeUserStore()
	users.put(&model.User{ID: "u1", Coins: 500})
	ledger := NewLedger(users, feed.NewHub(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Debit(context.Background(), "u1", 100, ReasonWithdrawal)
		}()
	}
	wg.Wait()

	if got := users.coins("u1"); got < 0 {
		t.Fatalf("balance went negative: %d", got)
	}
	if got := users.coins("u1"); got != 0 {
		t.Fatalf("expected exactly 5 debits to land, balance %d", got)
	}
}

func TestCreditPushesAccountSnapshot(t *testing.T) {
	users := newFakeUserStore()
	users.put(&model.User{ID: "u1", Coins: 0})
	hub := feed.NewHub()
	ledger := NewLedger(users, hub, nil)

	sub := hub.Subscribe(feed.TopicUser("u1"))
	defer sub.Cancel()

	if err := ledger.Credit(context.Background(), "u1", 500, ReasonReferral); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	ev := <-sub.Events()
	user, ok := ev.(*model.User)
	if !ok {
		t.Fatalf("expected *model.User event, got %T", ev)
	}
	if user.Coins != 500 {
		t.Fatalf("expected snapshot with 500 coins, got %d", user.Coins)
	}
}
