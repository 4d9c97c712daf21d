package utils

import (
	"context"
	"time"
)

// Sleep waits for d or until ctx is cancelled, whichever comes first.
// Used for inter-request pacing so a cancellation never has to wait
// out a full delay.
func Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
