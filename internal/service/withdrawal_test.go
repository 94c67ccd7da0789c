package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/model"
)

func newWithdrawalFixture(coins int64) (*WithdrawalWorkflow, *fakeUserStore, *fakeWithdrawalStore, *fakeEvents) {
	users := newFakeUserStore()
	users.put(&model.User{ID: "u1", Name: "Ali", Avatar: "a.png", Coins: coins})
	store := &fakeWithdrawalStore{}
	events := &fakeEvents{}
	ledger := NewLedger(users, feed.NewHub(), nil)
	return NewWithdrawalWorkflow(users, store, ledger, events, nil), users, store, events
}

func TestSubmitWithdrawal(t *testing.T) {
	ww, users, store, events := newWithdrawalFixture(model.WithdrawCoins + 500)

	req, err := ww.Submit(context.Background(), "u1", model.MethodEasypaisa, "Ali Khan", "03001234567")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if req.Status != model.WithdrawalPending {
		t.Fatalf("expected pending status, got %q", req.Status)
	}
	if req.Amount != model.WithdrawAmountRs {
		t.Fatalf("expected amount %d, got %d", model.WithdrawAmountRs, req.Amount)
	}
	if req.CoinsDeducted != model.WithdrawCoins {
		t.Fatalf("expected coinsDeducted %d, got %d", model.WithdrawCoins, req.CoinsDeducted)
	}
	if got := users.coins("u1"); got != 500 {
		t.Fatalf("expected 500 coins left, got %d", got)
	}
	if len(store.requests) != 1 {
		t.Fatalf("expected 1 stored request, got %d", len(store.requests))
	}
	if len(events.withdrawals) != 1 {
		t.Fatalf("expected withdrawal event published")
	}
}

func TestSubmitBelowThresholdRejected(t *testing.T) {
	ww, users, store, _ := newWithdrawalFixture(model.WithdrawCoins - 1)

	_, err := ww.Submit(context.Background(), "u1", model.MethodJazzCash, "Ali Khan", "03001234567")
	if !errors.Is(err, ErrWithdrawalLocked) {
		t.Fatalf("expected ErrWithdrawalLocked, got %v", err)
	}

	// 拒绝时不产生任何变更
	if got := users.coins("u1"); got != model.WithdrawCoins-1 {
		t.Fatalf("expected balance untouched, got %d", got)
	}
	if len(store.requests) != 0 {
		t.Fatalf("expected no stored request, got %d", len(store.requests))
	}
}

func TestSubmitInvalidMethod(t *testing.T) {
	ww, users, _, _ := newWithdrawalFixture(model.WithdrawCoins)

	_, err := ww.Submit(context.Background(), "u1", "paypal", "Ali Khan", "03001234567")
	if !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
	if got := users.coins("u1"); got != model.WithdrawCoins {
		t.Fatalf("expected balance untouched, got %d", got)
	}
}

func TestSubmitMissingAccountDetails(t *testing.T) {
	ww, _, _, _ := newWithdrawalFixture(model.WithdrawCoins)

	cases := []struct{ title, number string }{
		{"", "03001234567"},
		{"Ali Khan", ""},
		{"  ", "  "},
	}
	for _, c := range cases {
		_, err := ww.Submit(context.Background(), "u1", model.MethodEasypaisa, c.title, c.number)
		if !errors.Is(err, ErrAccountDetails) {
			t.Fatalf("title=%q number=%q: expected ErrAccountDetails, got %v", c.title, c.number, err)
		}
	}
}

func TestSubmitCreateFailureCompensates(t *testing.T) {
	ww, users, store, events := newWithdrawalFixture(model.WithdrawCoins)
	store.failNext = errors.New("write failed")

	_, err := ww.Submit(context.Background(), "u1", model.MethodEasypaisa, "Ali Khan", "03001234567")
	if err == nil {
		t.Fatalf("expected Submit to fail")
	}

	// 建单失败后补偿入账，余额回到原值
	if got := users.coins("u1"); got != model.WithdrawCoins {
		t.Fatalf("expected balance restored to %d, got %d", model.WithdrawCoins, got)
	}
	if len(events.withdrawals) != 0 {
		t.Fatalf("expected no event on failed submit")
	}
}

func TestWithdrawalHistory(t *testing.T) {
	ww, _, _, _ := newWithdrawalFixture(2 * model.WithdrawCoins)

	for i := 0; i < 2; i++ {
		if _, err := ww.Submit(context.Background(), "u1", model.MethodEasypaisa, "Ali Khan", "03001234567"); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}

	history, err := ww.History(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
}

func TestPayoutValue(t *testing.T) {
	if got := model.PayoutValue(100000); got != 2800 {
		t.Fatalf("expected 100000 coins = 2800, got %v", got)
	}
	if got := model.PayoutValue(10000); got != 280 {
		t.Fatalf("expected 10000 coins = 280, got %v", got)
	}
}
