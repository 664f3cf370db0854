package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// changeChannel fans the "scoring inputs changed" signal out to every
	// process with open result views.
	changeChannel = "kupong:results_update"
	// lastSignalKey records the most recent signal for inspection. It is a
	// best-effort marker, not a replay log: late subscribers re-fetch full
	// state instead of reading it.
	lastSignalKey = "kupong:results_last_update"
)

type signal struct {
	CouponID  string `json:"couponId"`
	Timestamp int64  `json:"timestamp"`
}

// Notifier broadcasts coupon change signals over Redis pub/sub. Notify is
// best-effort: failures are logged and never surface to the mutation that
// triggered them.
type Notifier struct {
	client *redis.Client
	clock  func() time.Time
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client, clock: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, couponID string) {
	payload, err := json.Marshal(signal{CouponID: couponID, Timestamp: n.clock().UnixMilli()})
	if err == nil {
		if err := n.client.Set(ctx, lastSignalKey, payload, 0).Err(); err != nil {
			log.Printf("notify: last-signal marker for coupon %s failed: %v", couponID, err)
		}
	}
	if err := n.client.Publish(ctx, changeChannel, couponID).Err(); err != nil {
		log.Printf("notify: publish for coupon %s failed: %v", couponID, err)
	}
}

func (n *Notifier) Subscribe(fn func(couponID string)) func() {
	pubsub := n.client.Subscribe(context.Background(), changeChannel)
	go func() {
		for msg := range pubsub.Channel() {
			fn(msg.Payload)
		}
	}()
	return func() {
		_ = pubsub.Close()
	}
}
