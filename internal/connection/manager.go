package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager owns the persistent channel for a single topic and drives its
// connection state machine.
type Manager struct {
	cfg    ManagerConfig
	topic  Topic
	logger *slog.Logger

	// Outputs
	frames chan RawFrame
	states chan State

	mu        sync.Mutex
	phase     Phase
	attempt   int
	lastErr   string
	client    Client
	gen       uint64 // invalidates late completions from superseded connects
	watchStop chan struct{}
	retry     *time.Timer
	ctx       context.Context
	cancel    context.CancelFunc

	// newClient is the client factory; replaced in tests.
	newClient func(ClientConfig, *slog.Logger) Client
}

// NewManager creates a Connection Manager for one topic.
func NewManager(topic Topic, cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cfg:       cfg,
		topic:     topic,
		logger:    logger.With("topic", topic),
		frames:    make(chan RawFrame, cfg.BufferSize),
		states:    make(chan State, 32),
		phase:     PhaseDisconnected,
		newClient: NewClient,
	}
}

// Frames returns the channel of inbound frames for the Dispatcher.
func (m *Manager) Frames() <-chan RawFrame {
	return m.frames
}

// States returns the channel of observable connection-state transitions.
func (m *Manager) States() <-chan State {
	return m.states
}

// State returns the current connection state snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Topic: m.topic, Phase: m.phase, Attempt: m.attempt, LastError: m.lastErr}
}

// Open starts the channel. Without a credential it is a no-op: realtime
// features degrade to absent rather than erroring. An explicit Open resets
// the attempt counter, including out of the terminal Errored state.
func (m *Manager) Open(ctx context.Context) error {
	if m.cfg.Token == "" {
		m.logger.Info("no credential, realtime channel disabled")
		return nil
	}

	m.mu.Lock()
	m.teardownLocked()
	if m.cancel != nil {
		m.cancel()
	}
	m.attempt = 0
	m.lastErr = ""
	m.ctx, m.cancel = context.WithCancel(ctx)
	gen := m.gen
	m.setPhaseLocked(PhaseConnecting)
	m.mu.Unlock()

	go m.connect(gen)
	return nil
}

// Close shuts the channel down. A ManualClose cancels any pending reconnect
// and leaves the manager Disconnected until the next Open; an AbnormalClose
// drops the socket and lets the retry policy take over.
func (m *Manager) Close(reason CloseReason) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("closing channel", "reason", reason.String())
	m.teardownLocked()

	if reason == ManualClose {
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.setPhaseLocked(PhaseDisconnected)
		return
	}

	m.setPhaseLocked(PhaseDisconnected)
	m.scheduleRetryLocked()
}

// Send marshals payload and writes it to the channel. It fails immediately
// with a *SendError while not Connected; nothing is ever queued.
func (m *Manager) Send(payload any) error {
	m.mu.Lock()
	phase := m.phase
	cli := m.client
	m.mu.Unlock()

	if phase != PhaseConnected || cli == nil {
		return &SendError{Topic: m.topic, Phase: phase, Err: ErrNotConnected}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Topic: m.topic, Phase: phase, Err: err}
	}

	if err := cli.Send(data); err != nil {
		return &SendError{Topic: m.topic, Phase: phase, Err: err}
	}
	return nil
}

// teardownLocked invalidates the current connection and stops pending retries.
func (m *Manager) teardownLocked() {
	m.gen++
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.watchStop != nil {
		close(m.watchStop)
		m.watchStop = nil
	}
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
}

// connect dials the topic endpoint. Late completions against a superseded
// generation are discarded.
func (m *Manager) connect(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	m.mu.Unlock()

	clientCfg := DefaultClientConfig()
	clientCfg.URL = m.targetURL()
	clientCfg.WriteTimeout = m.cfg.WriteTimeout
	clientCfg.HandshakeTimeout = m.cfg.HandshakeTimeout
	clientCfg.BufferSize = m.cfg.BufferSize

	cli := m.newClient(clientCfg, m.logger)
	err := cli.Connect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		// Superseded while dialing; drop the result.
		if err == nil {
			cli.Close()
		}
		return
	}

	if err != nil {
		m.logger.Warn("connect failed", "attempt", m.attempt, "error", err)
		m.lastErr = err.Error()
		m.scheduleRetryLocked()
		return
	}

	m.client = cli
	m.attempt = 0
	m.lastErr = ""
	m.watchStop = make(chan struct{})
	m.setPhaseLocked(PhaseConnected)
	m.logger.Info("channel connected")

	go m.watchLoop(cli, gen, m.watchStop)
}

// scheduleRetryLocked applies the backoff policy after a closure or a failed
// dial. The interval is fixed rather than exponential since attempts are
// capped.
func (m *Manager) scheduleRetryLocked() {
	if m.attempt >= m.cfg.MaxAttempts {
		m.setPhaseLocked(PhaseErrored)
		m.logger.Error("reconnect attempts exhausted", "attempts", m.attempt)
		return
	}

	m.attempt++
	m.setPhaseLocked(PhaseReconnecting)
	m.logger.Info("scheduling reconnect",
		"attempt", m.attempt,
		"max_attempts", m.cfg.MaxAttempts,
		"interval", m.cfg.ReconnectInterval,
	)

	gen := m.gen
	m.retry = time.AfterFunc(m.cfg.ReconnectInterval, func() {
		m.mu.Lock()
		if gen != m.gen {
			m.mu.Unlock()
			return
		}
		m.setPhaseLocked(PhaseConnecting)
		m.mu.Unlock()

		m.connect(gen)
	})
}

// watchLoop pumps frames out of one live connection and reacts to closure.
func (m *Manager) watchLoop(cli Client, gen uint64, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case err := <-cli.Errors():
			m.handleClosure(gen, err)
			return

		case msg, ok := <-cli.Messages():
			if !ok {
				return
			}
			frame := RawFrame{Topic: m.topic, Data: msg.Data, ReceivedAt: msg.ReceivedAt}
			select {
			case m.frames <- frame:
			case <-stop:
				return
			default:
				m.logger.Warn("frame channel full, dropping frame")
			}
		}
	}
}

// handleClosure applies the reconnect policy to a server- or network-side
// closure. A normal closure code from the server is treated like a manual
// close and suppresses reconnection.
func (m *Manager) handleClosure(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}

	m.logger.Warn("channel closed", "error", err)
	m.lastErr = err.Error()
	m.gen++
	m.watchStop = nil
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.setPhaseLocked(PhaseDisconnected)

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		m.logger.Info("normal closure from server, not reconnecting")
		return
	}

	m.scheduleRetryLocked()
}

// setPhaseLocked records the phase and publishes the transition. Publication
// is best effort; a slow status consumer never blocks the state machine.
func (m *Manager) setPhaseLocked(phase Phase) {
	m.phase = phase
	state := State{Topic: m.topic, Phase: phase, Attempt: m.attempt, LastError: m.lastErr}
	select {
	case m.states <- state:
	default:
	}
}

// targetURL builds the topic endpoint address. The credential rides as a
// query parameter; the scheme follows the page's security.
func (m *Manager) targetURL() string {
	scheme := "ws"
	if m.cfg.Secure {
		scheme = "wss"
	}

	u := url.URL{
		Scheme: scheme,
		Host:   m.cfg.Host,
		Path:   "/ws/" + string(m.topic) + "/",
	}
	if m.cfg.Token != "" {
		q := url.Values{}
		q.Set("token", m.cfg.Token)
		u.RawQuery = q.Encode()
	}

	return u.String()
}
