package notifier

import (
	"time"

	"farebot/internal/transport"
)

type Config struct {
	Enabled bool

	Workers   int
	QueueSize int

	// RatePerSec caps outbound sends (token bucket, burst = rate).
	RatePerSec int

	// Retry policy for failed sends: RetryMax extra attempts with jittered
	// exponential backoff from RetryBase up to RetryMaxDelay.
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

// Notification is one outbound message. ID is assigned at enqueue time and
// only used for log correlation.
type Notification struct {
	ID      string
	Target  transport.ChatTarget
	Text    string
	Options *transport.SendOptions
}
