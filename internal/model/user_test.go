package model

import (
	"testing"
	"time"
)

func TestHasCheckedIn(t *testing.T) {
	u := &User{}
	if u.HasCheckedIn() {
		t.Fatalf("expected fresh user not checked in")
	}

	u.LastCheckIn = time.Now()
	if !u.HasCheckedIn() {
		t.Fatalf("expected checked in after setting lastCheckIn")
	}
}

func TestAddFriendDedup(t *testing.T) {
	u := &User{}

	if !u.AddFriend(Friend{ID: "f1", Name: "Sara"}) {
		t.Fatalf("expected first add to succeed")
	}
	if u.AddFriend(Friend{ID: "f1", Name: "Sara Renamed"}) {
		t.Fatalf("expected duplicate id rejected")
	}
	if !u.AddFriend(Friend{ID: "f2", Name: "Omar"}) {
		t.Fatalf("expected distinct id accepted")
	}
	if len(u.FriendsList) != 2 {
		t.Fatalf("expected 2 friends, got %d", len(u.FriendsList))
	}
}

func TestValidMethod(t *testing.T) {
	if !ValidMethod(MethodEasypaisa) || !ValidMethod(MethodJazzCash) {
		t.Fatalf("expected supported methods valid")
	}
	for _, m := range []string{"", "paypal", "Easypaisa", "EASYPAISA"} {
		if ValidMethod(m) {
			t.Fatalf("expected %q invalid", m)
		}
	}
}

func TestChatScope(t *testing.T) {
	if !WorldScope().IsWorld() {
		t.Fatalf("expected world scope")
	}
	if RoomScope("r1").IsWorld() {
		t.Fatalf("expected room scope not world")
	}
	if RoomScope("r1").RoomID != "r1" {
		t.Fatalf("expected room id preserved")
	}
}
