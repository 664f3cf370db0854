// Package notify carries the "scoring inputs changed" signal from facit
// updates to any open results view. Delivery is best-effort, at least once to
// currently subscribed listeners, with no replay: a late subscriber must
// re-fetch full state itself.
package notify

import "context"

// Notifier broadcasts coupon change signals. Notify must never block or fail
// the mutation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, couponID string)
	// Subscribe registers a listener and returns its cancel function. The
	// callback receives the coupon ID of each signal observed after
	// subscribing.
	Subscribe(fn func(couponID string)) (cancel func())
}
