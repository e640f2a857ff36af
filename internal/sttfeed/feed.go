package sttfeed

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/voicechess/internal/obslog"
)

// Utterance is one recognized phrase pushed by the speech-to-text service.
type Utterance struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

type UtteranceCallback func(u Utterance)

type StateCallback func(s State)

type callbackEntry struct {
	id       int
	callback UtteranceCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// Feed maintains a websocket connection to the speech-to-text service and
// delivers each recognized utterance to registered callbacks. Utterances with
// empty text are dropped before delivery.
type Feed struct {
	wsURL string

	conn   *websocket.Conn
	state  State
	stateM sync.RWMutex

	uttCbs   []callbackEntry
	stateCbs []stateCallbackEntry
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration

	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func New(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration) *Feed {
	return &Feed{
		wsURL:                wsURL,
		state:                StateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
		uttCbs:               make([]callbackEntry, 0),
		stateCbs:             make([]stateCallbackEntry, 0),
	}
}

func (f *Feed) Connect(ctx context.Context) error {
	f.stateM.Lock()
	if f.state == StateConnected || f.state == StateConnecting {
		f.stateM.Unlock()
		return nil
	}
	f.stateM.Unlock()

	f.rootCtx, f.rootCancel = context.WithCancel(context.Background())
	f.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, f.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		f.setState(StateFailed)
		f.scheduleReconnect()
		return err
	}

	f.conn = conn
	f.setState(StateConnected)

	f.wg.Add(2)
	go f.listen()
	go f.pingLoop()
	return nil
}

func (f *Feed) listen() {
	defer f.wg.Done()
	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		if f.conn == nil {
			return
		}
		var utt Utterance
		if err := wsjson.Read(f.rootCtx, f.conn, &utt); err != nil {
			if f.isStopping() {
				return
			}
			obslog.L().Warn("stt_feed_read_failed", zap.Error(err))
			f.setState(StateDisconnected)
			_ = f.closeConn(websocket.StatusGoingAway, "reconnect")
			f.scheduleReconnect()
			return
		}
		if strings.TrimSpace(utt.Text) == "" {
			continue
		}

		f.cbM.RLock()
		callbacks := make([]callbackEntry, len(f.uttCbs))
		copy(callbacks, f.uttCbs)
		f.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(utt)
			}
		}
	}
}

func (f *Feed) pingLoop() {
	defer f.wg.Done()
	t := time.NewTicker(f.pingInterval)
	defer t.Stop()
	consecutivePingFailures := 0
	for {
		select {
		case <-f.stopCh:
			return
		case <-t.C:
			if f.conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(f.rootCtx, 3*time.Second)
			err := f.conn.Ping(ctx)
			cancel()
			if err != nil {
				consecutivePingFailures++
				if consecutivePingFailures >= 2 {
					if f.isStopping() {
						return
					}
					f.setState(StateDisconnected)
					_ = f.closeConn(websocket.StatusGoingAway, "ping failure")
					f.scheduleReconnect()
					consecutivePingFailures = 0
				}
				continue
			}
			consecutivePingFailures = 0
		}
	}
}

func (f *Feed) scheduleReconnect() {
	if f.maxReconnectAttempts <= 0 {
		return
	}
	f.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= f.maxReconnectAttempts; attempt++ {
			select {
			case <-f.stopCh:
				return
			case <-time.After(f.reconnectBackoff(attempt)):
			}

			dialCtx, cancel := context.WithTimeout(f.rootCtx, 10*time.Second)
			conn, _, err := websocket.Dial(dialCtx, f.wsURL, &websocket.DialOptions{
				CompressionMode: websocket.CompressionNoContextTakeover,
			})
			cancel()
			if err != nil {
				obslog.L().Debug("stt_feed_reconnect_failed",
					zap.Int("attempt", attempt), zap.Error(err))
				continue
			}

			f.conn = conn
			f.setState(StateConnected)

			f.wg.Add(2)
			go f.listen()
			go f.pingLoop()
			return
		}
		f.setState(StateFailed)
	}()
}

func (f *Feed) reconnectBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * f.reconnectDelay
}

func (f *Feed) OnUtterance(cb UtteranceCallback) int {
	f.cbM.Lock()
	defer f.cbM.Unlock()
	id := len(f.uttCbs) + 1
	f.uttCbs = append(f.uttCbs, callbackEntry{id: id, callback: cb})
	return id
}

func (f *Feed) RemoveUtteranceCallback(id int) {
	f.cbM.Lock()
	defer f.cbM.Unlock()
	for i, cb := range f.uttCbs {
		if cb.id == id {
			f.uttCbs = append(f.uttCbs[:i], f.uttCbs[i+1:]...)
			break
		}
	}
}

func (f *Feed) OnStateChange(cb StateCallback) int {
	f.cbM.Lock()
	defer f.cbM.Unlock()
	id := len(f.stateCbs) + 1
	f.stateCbs = append(f.stateCbs, stateCallbackEntry{id: id, callback: cb})
	return id
}

func (f *Feed) RemoveStateCallback(id int) {
	f.cbM.Lock()
	defer f.cbM.Unlock()
	for i, cb := range f.stateCbs {
		if cb.id == id {
			f.stateCbs = append(f.stateCbs[:i], f.stateCbs[i+1:]...)
			break
		}
	}
}

func (f *Feed) State() State {
	f.stateM.RLock()
	defer f.stateM.RUnlock()
	return f.state
}

func (f *Feed) setState(state State) {
	f.stateM.Lock()
	f.state = state
	f.stateM.Unlock()

	f.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(f.stateCbs))
	copy(callbacks, f.stateCbs)
	f.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (f *Feed) Close(ctx context.Context) error {
	f.stopOnce.Do(func() { close(f.stopCh) })
	_ = f.closeConn(websocket.StatusNormalClosure, "close")

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if f.rootCancel != nil {
			f.rootCancel()
		}
		return nil
	}
}

func (f *Feed) closeConn(code websocket.StatusCode, reason string) error {
	if f.conn == nil {
		return nil
	}
	defer func() { f.conn = nil }()
	return f.conn.Close(code, reason)
}

func (f *Feed) isStopping() bool {
	select {
	case <-f.stopCh:
		return true
	default:
		return false
	}
}
