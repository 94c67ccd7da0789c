package feed

import (
	"sync"
	"testing"
)

func TestPublishDelivers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t1")
	defer sub.Cancel()

	hub.Publish("t1", "hello")

	ev := <-sub.Events()
	if ev != "hello" {
		t.Fatalf("expected hello, got %v", ev)
	}
}

func TestFanOut(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("t1")
	b := hub.Subscribe("t1")
	defer a.Cancel()
	defer b.Cancel()

	hub.Publish("t1", 42)

	if ev := <-a.Events(); ev != 42 {
		t.Fatalf("subscriber a got %v", ev)
	}
	if ev := <-b.Events(); ev != 42 {
		t.Fatalf("subscriber b got %v", ev)
	}
}

func TestTopicsIsolated(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t1")
	defer sub.Cancel()

	hub.Publish("t2", "other")
	hub.Publish("t1", "mine")

	if ev := <-sub.Events(); ev != "mine" {
		t.Fatalf("expected mine, got %v", ev)
	}
}

func TestNoDeliveryAfterCancel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t1")

	sub.Cancel()
	hub.Publish("t1", "late")

	// 取消后通道已关闭且为空
	if ev, ok := <-sub.Events(); ok {
		t.Fatalf("received event after cancel: %v", ev)
	}
}

func TestCancelIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t1")

	sub.Cancel()
	sub.Cancel()

	if hub.Count() != 0 {
		t.Fatalf("expected 0 subscriptions, got %d", hub.Count())
	}
}

func TestCount(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("t1")
	b := hub.Subscribe("t2")

	if hub.Count() != 2 {
		t.Fatalf("expected 2, got %d", hub.Count())
	}

	a.Cancel()
	if hub.Count() != 1 {
		t.Fatalf("expected 1, got %d", hub.Count())
	}
	b.Cancel()
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("t1")
	defer sub.Cancel()

	// 超出缓冲的事件被丢弃，发布方不阻塞
	for i := 0; i < 100; i++ {
		hub.Publish("t1", i)
	}
}

func TestConcurrentPublishAndCancel(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub := hub.Subscribe("t1")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range sub.Events() {
			}
		}()
		go func() {
			defer wg.Done()
			sub.Cancel()
		}()
	}

	for i := 0; i < 100; i++ {
		hub.Publish("t1", i)
	}
	wg.Wait()

	if hub.Count() != 0 {
		t.Fatalf("expected 0 subscriptions, got %d", hub.Count())
	}
}
