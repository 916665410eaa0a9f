// Package wsconn owns the single websocket link to the tournament backend.
package wsconn

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/arena-console/internal/schedule"
)

const (
	DefaultReconnectDelay = 3000 * time.Millisecond
	defaultDialTimeout    = 10 * time.Second
	defaultWriteTimeout   = 5 * time.Second
	readLimit             = 1 << 20
)

type Options struct {
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	Scheduler      schedule.Scheduler
	Logger         *zap.Logger
	Header         http.Header
}

// Manager dials the backend, reads text frames and reconnects after a fixed
// delay whenever the link drops. At most one reconnect is pending at a time
// and a successful connect cancels it.
type Manager struct {
	url  string
	opts Options
	log  *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	gen       uint64
	reconnect schedule.Task
	retrySeq  uint64

	frameCbs []FrameCallback
	stateCbs []StateCallback
	cbM      sync.RWMutex

	writeM sync.Mutex

	rootCtx    context.Context
	rootCancel context.CancelFunc
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func New(url string, opts Options) *Manager {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Real{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &Manager{
		url:        url,
		opts:       opts,
		log:        logger,
		state:      StateDisconnected,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		stopCh:     make(chan struct{}),
	}
}

func (m *Manager) OnFrame(cb FrameCallback) {
	m.cbM.Lock()
	defer m.cbM.Unlock()
	m.frameCbs = append(m.frameCbs, cb)
}

func (m *Manager) OnStateChange(cb StateCallback) {
	m.cbM.Lock()
	defer m.cbM.Unlock()
	m.stateCbs = append(m.stateCbs, cb)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect performs one dial. A failed dial counts as a closure and arms the
// reconnect timer.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state == StateConnected || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.mu.Unlock()
	m.notifyState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, m.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      m.opts.Header,
	})
	if err != nil {
		m.log.Warn("ws_dial_failed", zap.String("url", m.url), zap.Error(err))
		m.lost()
		return err
	}
	conn.SetReadLimit(readLimit)

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		return ErrClosed
	}
	m.cancelReconnectLocked()
	m.gen++
	gen := m.gen
	m.conn = conn
	m.state = StateConnected
	m.wg.Add(1)
	m.mu.Unlock()

	m.log.Info("ws_connected", zap.String("url", m.url), zap.Uint64("generation", gen))
	m.notifyState(StateConnected)
	go m.listen(conn, gen)
	return nil
}

// Send writes cmd as one JSON text frame. While not connected the command is
// dropped and Send reports false.
func (m *Manager) Send(ctx context.Context, cmd any) bool {
	m.mu.Lock()
	conn, state := m.conn, m.state
	m.mu.Unlock()
	if conn == nil || state != StateConnected {
		m.log.Info("command_dropped", zap.String("state", state.String()))
		return false
	}

	dctx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, m.opts.WriteTimeout)
		defer cancel()
	}
	m.writeM.Lock()
	err := wsjson.Write(dctx, conn, cmd)
	m.writeM.Unlock()
	if err != nil {
		m.log.Warn("ws_write_failed", zap.Error(err))
		return false
	}
	return true
}

// Close stops reconnecting, closes the socket and waits for the reader.
func (m *Manager) Close(ctx context.Context) error {
	var conn *websocket.Conn
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.mu.Lock()
		m.cancelReconnectLocked()
		conn = m.conn
		m.conn = nil
		m.state = StateClosed
		m.mu.Unlock()
		m.notifyState(StateClosed)
	})
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		m.rootCancel()
		return ctx.Err()
	case <-done:
		m.rootCancel()
		return nil
	}
}

// listen reads text frames until the connection fails. Frames from an older
// generation are never delivered after a newer connection took over.
func (m *Manager) listen(conn *websocket.Conn, gen uint64) {
	defer m.wg.Done()
	for {
		typ, data, err := conn.Read(m.rootCtx)
		if err != nil {
			if m.isStopping() {
				return
			}
			m.mu.Lock()
			current := gen == m.gen && m.conn == conn
			if current {
				m.conn = nil
			}
			m.mu.Unlock()
			_ = conn.Close(websocket.StatusGoingAway, "reconnect")
			if !current {
				return
			}
			m.log.Warn("ws_disconnected", zap.Uint64("generation", gen), zap.Error(err))
			m.lost()
			return
		}
		if typ != websocket.MessageText {
			m.log.Debug("ws_binary_frame_ignored", zap.Int("bytes", len(data)))
			continue
		}
		m.cbM.RLock()
		callbacks := make([]FrameCallback, len(m.frameCbs))
		copy(callbacks, m.frameCbs)
		m.cbM.RUnlock()
		for _, cb := range callbacks {
			if cb != nil {
				cb(data)
			}
		}
	}
}

// lost records a closure and schedules exactly one reconnect.
func (m *Manager) lost() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	if m.reconnect == nil {
		m.retrySeq++
		seq := m.retrySeq
		m.reconnect = m.opts.Scheduler.AfterFunc(m.opts.ReconnectDelay, func() { m.fireReconnect(seq) })
		m.log.Info("ws_reconnect_scheduled", zap.Duration("delay", m.opts.ReconnectDelay))
	}
	m.mu.Unlock()
	m.notifyState(StateDisconnected)
}

func (m *Manager) fireReconnect(seq uint64) {
	m.mu.Lock()
	if seq != m.retrySeq || m.reconnect == nil {
		m.mu.Unlock()
		return
	}
	m.reconnect = nil
	m.mu.Unlock()
	_ = m.Connect(m.rootCtx)
}

func (m *Manager) cancelReconnectLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	// invalidates a callback that already fired but has not taken the lock yet
	m.retrySeq++
}

func (m *Manager) notifyState(state State) {
	m.cbM.RLock()
	callbacks := make([]StateCallback, len(m.stateCbs))
	copy(callbacks, m.stateCbs)
	m.cbM.RUnlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb(state)
		}
	}
}

func (m *Manager) isStopping() bool {
	select {
	case <-m.stopCh:
		return true
	default:
		return false
	}
}
