package vehicle

import (
	"time"

	"gcslink/pkg/transfer"
)

// Config tunes one vehicle session.
type Config struct {
	// SystemID and ComponentID stamp outbound frames. 255/190 is the
	// conventional GCS identity.
	SystemID    uint8
	ComponentID uint8

	// Retry bounds mission-transfer retransmission.
	Retry transfer.RetryPolicy

	// ConnectTimeout is the window for the first heartbeat.
	ConnectTimeout time.Duration

	// LinkTimeout declares link loss after this much inbound silence.
	LinkTimeout time.Duration

	// HeartbeatInterval paces outbound GCS heartbeats.
	HeartbeatInterval time.Duration

	// CommandTimeout is the COMMAND_ACK wait per attempt.
	CommandTimeout time.Duration

	// AutoRequestHome sends a one-shot HOME_POSITION request after the
	// first heartbeat.
	AutoRequestHome bool

	// CommandBuffer sizes the session mailbox.
	CommandBuffer int
}

// DefaultConfig returns the standard GCS session tuning.
func DefaultConfig() Config {
	return Config{
		SystemID:          255,
		ComponentID:       190,
		Retry:             transfer.DefaultRetryPolicy(),
		ConnectTimeout:    10 * time.Second,
		LinkTimeout:       3 * time.Second,
		HeartbeatInterval: time.Second,
		CommandTimeout:    3 * time.Second,
		AutoRequestHome:   true,
		CommandBuffer:     32,
	}
}
