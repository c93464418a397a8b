package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"skirmish/world"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrClosed           = errors.New("connection closed")
)

const (
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = time.Second
	DefaultDialTimeout          = 5 * time.Second
	DefaultInboxSize            = 1024

	writeTimeout = 5 * time.Second
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

type Options struct {
	Dialer Dialer
	// MaxReconnectAttempts bounds retries after an unexpected close.
	MaxReconnectAttempts int
	// ReconnectDelay is multiplied by the attempt number, so retries back off linearly.
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	// InboxSize bounds frames waiting for Poll. Frames past it are dropped.
	InboxSize int
	Logger    *slog.Logger
	Now       func() time.Time
	AfterFunc func(time.Duration, func()) Timer
}

func (o Options) withDefaults() Options {
	if o.Dialer == nil {
		o.Dialer = WebsocketDialer{}
	}
	if o.MaxReconnectAttempts < 0 {
		o.MaxReconnectAttempts = 0
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.InboxSize <= 0 {
		o.InboxSize = DefaultInboxSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		}
	}
	return o
}

// inbound is either a decoded envelope or a lifecycle change, queued in
// arrival order until Poll.
type inbound struct {
	env    *Envelope
	status State
}

// Manager owns one transport, its reconnect policy and the inbound queue.
// Frames are read on a background goroutine but only dispatched from Poll,
// so subscribers all run on the goroutine that calls Poll.
type Manager struct {
	*Dispatcher

	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	endpoint  string
	name      string
	transport Transport
	connCtx   context.Context
	cancel    context.CancelFunc
	attempts  int
	retry     Timer
	// epoch changes on every Connect and Disconnect so that stale dials
	// and retries can tell they have been superseded.
	epoch uint64
	queue []inbound

	statusMu       sync.Mutex
	statusHandlers []func(State)
}

func NewManager(opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		Dispatcher: NewDispatcher(opts.Logger),
		opts:       opts,
		logger:     opts.Logger,
	}
}

// OnStatus subscribes to lifecycle changes. Like message handlers, it runs from Poll.
func (m *Manager) OnStatus(fn func(State)) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.statusHandlers = append(m.statusHandlers, fn)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Connected() bool {
	return m.State() == Connected
}

// Attempts is the number of reconnect attempts made since the last successful open.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Connect opens the transport and sends a join for name. A failure here is
// returned to the caller and never retried.
func (m *Manager) Connect(ctx context.Context, endpoint, name string) error {
	m.mu.Lock()
	if m.state == Connected || m.state == Connecting {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.stopRetryLocked()
	m.epoch++
	epoch := m.epoch
	m.endpoint, m.name = endpoint, name
	m.attempts = 0
	m.setStateLocked(Connecting)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	defer cancel()
	if err := m.open(ctx, epoch); err != nil {
		m.mu.Lock()
		if m.epoch == epoch && m.state == Connecting {
			m.setStateLocked(Disconnected)
		}
		m.mu.Unlock()
		m.logger.Warn("connect failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("connect %s: %w", endpoint, err)
	}
	return nil
}

// Disconnect closes the connection and cancels any pending reconnect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.epoch++
	m.stopRetryLocked()
	t := m.transport
	m.transport = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.attempts = 0
	if m.state != Disconnected {
		m.setStateLocked(Disconnected)
	}
	m.mu.Unlock()

	if t != nil {
		if err := t.Close(); err != nil {
			m.logger.Debug("close transport", "error", err)
		}
	}
}

// open dials and, if the attempt has not been superseded, installs the
// transport, starts the reader and sends the join.
func (m *Manager) open(ctx context.Context, epoch uint64) error {
	m.mu.Lock()
	endpoint, name := m.endpoint, m.name
	m.mu.Unlock()

	t, err := m.opts.Dialer.Dial(ctx, endpoint)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.epoch != epoch || m.state != Connecting {
		m.mu.Unlock()
		t.Close()
		return ErrClosed
	}
	connCtx, cancel := context.WithCancel(context.Background())
	m.transport, m.connCtx, m.cancel = t, connCtx, cancel
	m.attempts = 0
	m.setStateLocked(Connected)
	m.mu.Unlock()

	m.logger.Info("connected", "endpoint", endpoint)
	go m.readLoop(connCtx, t)

	if !m.Send(&Join{Name: name}) {
		m.logger.Warn("join not sent", "endpoint", endpoint)
	}
	return nil
}

func (m *Manager) readLoop(ctx context.Context, t Transport) {
	for {
		frame, err := t.Read(ctx)
		if err != nil {
			m.lost(t, err)
			return
		}
		env, err := Decode(frame)
		if err != nil {
			m.logger.Warn("dropping malformed frame", "error", err, "bytes", len(frame))
			continue
		}
		m.enqueue(inbound{env: &env})
	}
}

func (m *Manager) enqueue(item inbound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.env != nil && len(m.queue) >= m.opts.InboxSize {
		m.logger.Warn("inbox full, dropping frame", "type", item.env.Type)
		return
	}
	m.queue = append(m.queue, item)
}

// lost handles the reader stopping. Only the current transport closing
// while connected counts as unexpected.
func (m *Manager) lost(t Transport, err error) {
	m.mu.Lock()
	if m.transport != t || m.state != Connected {
		m.mu.Unlock()
		return
	}
	m.transport = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.logger.Warn("connection lost", "endpoint", m.endpoint, "error", err)
	m.scheduleRetryLocked()
	m.mu.Unlock()

	t.Close()
}

func (m *Manager) scheduleRetryLocked() {
	if m.attempts >= m.opts.MaxReconnectAttempts {
		m.logger.Warn("giving up reconnecting", "attempts", m.attempts)
		m.setStateLocked(Disconnected)
		return
	}
	m.attempts++
	attempt := m.attempts
	delay := time.Duration(attempt) * m.opts.ReconnectDelay
	epoch := m.epoch
	m.setStateLocked(Reconnecting)
	m.logger.Info("reconnect scheduled", "attempt", attempt, "max", m.opts.MaxReconnectAttempts, "delay", delay)
	m.retry = m.opts.AfterFunc(delay, func() {
		m.reconnect(epoch, attempt)
	})
}

func (m *Manager) reconnect(epoch uint64, attempt int) {
	m.mu.Lock()
	if m.epoch != epoch || m.state != Reconnecting {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	m.setStateLocked(Connecting)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.DialTimeout)
	defer cancel()
	if err := m.open(ctx, epoch); err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.epoch != epoch || m.state != Connecting {
			return
		}
		m.logger.Warn("reconnect failed", "attempt", attempt, "error", err)
		m.scheduleRetryLocked()
	}
}

func (m *Manager) stopRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.queue = append(m.queue, inbound{status: s})
}

// Poll dispatches everything received since the last call and returns how
// many items it handled.
func (m *Manager) Poll() int {
	m.mu.Lock()
	items := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, item := range items {
		if item.env != nil {
			m.Dispatch(*item.env)
			continue
		}
		m.statusMu.Lock()
		handlers := append([]func(State){}, m.statusHandlers...)
		m.statusMu.Unlock()
		for _, fn := range handlers {
			fn(item.status)
		}
	}
	return len(items)
}

// Send writes msg if connected. It never queues: a false return means the
// message is gone.
func (m *Manager) Send(msg Message) bool {
	m.mu.Lock()
	t, ctx, state := m.transport, m.connCtx, m.state
	m.mu.Unlock()
	if state != Connected || t == nil {
		return false
	}

	frame, err := Encode(msg)
	if err != nil {
		m.logger.Error("encode outbound", "type", msg.Type(), "error", err)
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := t.Write(ctx, frame); err != nil {
		m.logger.Debug("send failed", "type", msg.Type(), "error", err)
		return false
	}
	return true
}

func (m *Manager) timestamp() int64 {
	return m.opts.Now().UnixMilli()
}

func (m *Manager) SendUpdate(position, rotation, velocity world.Vector3, health float64) bool {
	return m.Send(&Update{
		Position:  position,
		Rotation:  rotation,
		Velocity:  velocity,
		Health:    health,
		Timestamp: m.timestamp(),
	})
}

func (m *Manager) SendShoot(position, rotation world.Vector3) bool {
	return m.Send(&Shoot{
		Position:  position,
		Rotation:  rotation,
		Timestamp: m.timestamp(),
	})
}

func (m *Manager) SendRespawn(position world.Vector3) bool {
	return m.Send(&Respawn{
		Position:  position,
		Timestamp: m.timestamp(),
	})
}
