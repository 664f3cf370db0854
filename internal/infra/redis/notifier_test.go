package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNotifierDeliversAcrossClients(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	sender := NewNotifier(newClient(mr))
	receiver := NewNotifier(newClient(mr))

	got := make(chan string, 1)
	cancel := receiver.Subscribe(func(couponID string) { got <- couponID })
	defer cancel()

	// Give the subscriber a moment to register before publishing.
	time.Sleep(50 * time.Millisecond)
	sender.Notify(context.Background(), "c1")

	select {
	case id := <-got:
		if id != "c1" {
			t.Fatalf("expected c1, got %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("signal never delivered")
	}
}

func TestNotifierRecordsLastSignal(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	n := NewNotifier(newClient(mr))
	n.clock = func() time.Time { return time.UnixMilli(1700000000000) }
	n.Notify(context.Background(), "c1")

	raw, err := mr.Get(lastSignalKey)
	if err != nil {
		t.Fatalf("last-signal key missing: %v", err)
	}
	var sig signal
	if err := json.Unmarshal([]byte(raw), &sig); err != nil {
		t.Fatalf("unmarshal signal: %v", err)
	}
	if sig.CouponID != "c1" || sig.Timestamp != 1700000000000 {
		t.Fatalf("unexpected signal %+v", sig)
	}
}

func TestNotifierNoReplayForLateSubscriber(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	n := NewNotifier(newClient(mr))
	n.Notify(context.Background(), "c0")

	got := make(chan string, 1)
	cancel := n.Subscribe(func(couponID string) { got <- couponID })
	defer cancel()

	select {
	case id := <-got:
		t.Fatalf("late subscriber replayed %s", id)
	case <-time.After(200 * time.Millisecond):
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
