package connection

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// SendError wraps a failed send with the connection state it failed in.
type SendError struct {
	Topic Topic
	Phase Phase
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send on %s (%s): %v", e.Topic, e.Phase, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Topic identifies a logical channel.
type Topic string

const (
	TopicNotifications Topic = "notifications"
	TopicOrders        Topic = "orders"
	TopicFlashSales    Topic = "flash-sales"
)

// Phase is the connection lifecycle phase.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
	PhaseReconnecting Phase = "reconnecting"
	PhaseErrored      Phase = "errored"
)

// CloseReason distinguishes caller-initiated closes. A manual close never
// schedules a reconnect; an abnormal close goes through the retry policy.
type CloseReason int

const (
	ManualClose CloseReason = iota
	AbnormalClose
)

func (r CloseReason) String() string {
	if r == ManualClose {
		return "manual"
	}
	return "abnormal"
}

// State is an observable snapshot of a topic's connection.
// It carries no business data; consumers use it for status display only.
type State struct {
	Topic     Topic
	Phase     Phase
	Attempt   int    // reconnect attempt count, 0 when connected
	LastError string // empty unless a failure was recorded
}

// TimestampedMessage wraps raw frame data with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// RawFrame is a frame handed from the Connection Manager to the Dispatcher.
type RawFrame struct {
	Topic      Topic
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures a single WebSocket client.
type ClientConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration // keepalive ping cadence
	PingTimeout      time.Duration // max silence before the connection is stale
	BufferSize       int
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		BufferSize:       256,
	}
}

// ManagerConfig configures a per-topic Connection Manager.
type ManagerConfig struct {
	Host              string // e.g. "shop.example.com"
	Secure            bool   // wss when true, ws otherwise
	Token             string // credential; empty disables the channel
	ReconnectInterval time.Duration
	MaxAttempts       int
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
	BufferSize        int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectInterval: 3 * time.Second,
		MaxAttempts:       5,
		WriteTimeout:      5 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		BufferSize:        256,
	}
}
