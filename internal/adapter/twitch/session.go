package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultEventSubURL    = "wss://eventsub.wss.twitch.tv/ws"
	welcomeTimeout        = 15 * time.Second
	defaultKeepaliveGrace = 5 * time.Second
	closeWriteTimeout     = time.Second
)

var ErrSessionOpen = errors.New("eventsub session already open")

// SessionState is the lifecycle state of the EventSub WebSocket session.
type SessionState string

const (
	StateConnecting   SessionState = "connecting"
	StateWelcomed     SessionState = "welcomed"
	StateActive       SessionState = "active"
	StateReconnecting SessionState = "reconnecting"
	StateRevoked      SessionState = "revoked"
	StateClosed       SessionState = "closed"
)

// staleClearer removes subscriptions left over from earlier sessions.
type staleClearer interface {
	ClearStale(ctx context.Context) (int, error)
}

type connection struct {
	id        uuid.UUID
	ws        *websocket.Conn
	previous  *connection
	keepalive time.Duration
	retired   bool
}

// SessionManager keeps one live EventSub WebSocket session. On a reconnect
// request the old connection keeps delivering until the new one is welcomed.
type SessionManager struct {
	clearer        staleClearer
	events         *Dispatcher
	dialer         *websocket.Dialer
	url            string
	keepaliveGrace time.Duration
	metrics        Metrics

	mu        sync.Mutex
	state     SessionState
	sessionID string
	live      *connection
	pending   *connection
	conns     map[uuid.UUID]*connection
	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type SessionOption func(*SessionManager)

func WithEventSubURL(url string) SessionOption {
	return func(s *SessionManager) { s.url = url }
}

func WithDialer(dialer *websocket.Dialer) SessionOption {
	return func(s *SessionManager) { s.dialer = dialer }
}

// WithKeepaliveGrace sets how long past the keepalive timeout a silent
// connection is still trusted.
func WithKeepaliveGrace(d time.Duration) SessionOption {
	return func(s *SessionManager) { s.keepaliveGrace = d }
}

func WithSessionMetrics(metrics Metrics) SessionOption {
	return func(s *SessionManager) { s.metrics = metrics }
}

func NewSessionManager(clearer staleClearer, events *Dispatcher, opts ...SessionOption) *SessionManager {
	s := &SessionManager{
		clearer:        clearer,
		events:         events,
		dialer:         websocket.DefaultDialer,
		url:            DefaultEventSubURL,
		keepaliveGrace: defaultKeepaliveGrace,
		metrics:        nopMetrics{},
		state:          StateClosed,
		conns:          make(map[uuid.UUID]*connection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionManager) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *SessionManager) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect opens a fresh session. Stale subscriptions are cleared first; a
// failure there is logged and does not prevent the connection.
func (s *SessionManager) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateClosed && s.state != StateRevoked {
		s.mu.Unlock()
		return ErrSessionOpen
	}
	leftovers := s.retireAllLocked()
	if s.cancel != nil {
		s.cancel()
	}
	s.state = StateConnecting
	s.sessionID = ""
	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	closeConnections(leftovers)

	if s.clearer != nil {
		if _, err := s.clearer.ClearStale(ctx); err != nil {
			slog.WarnContext(ctx, "Connecting without clearing stale subscriptions", "error", err)
		}
	}

	return s.open(ctx, s.url, nil)
}

// Close shuts every connection down. It does not emit WebSocketDisconnected.
func (s *SessionManager) Close() error {
	s.mu.Lock()
	conns := s.retireAllLocked()
	s.state = StateClosed
	s.sessionID = ""
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	closeConnections(conns)
	s.wg.Wait()

	slog.Info("EventSub session closed")
	return nil
}

func (s *SessionManager) retireAllLocked() []*connection {
	conns := make([]*connection, 0, len(s.conns))
	for _, c := range s.conns {
		c.retired = true
		conns = append(conns, c)
	}
	s.live = nil
	s.pending = nil
	return conns
}

func closeConnections(conns []*connection) {
	for _, c := range conns {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
		_ = c.ws.Close()
	}
}

func (s *SessionManager) open(ctx context.Context, url string, previous *connection) error {
	reconnect := previous != nil
	slog.InfoContext(ctx, "Connecting to websocket", "url", url, "reconnect", reconnect)
	emit(s.events, WebSocketConnecting, ConnectingInfo{URL: url, Reconnect: reconnect})

	ws, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		s.mu.Lock()
		if !reconnect && s.state == StateConnecting {
			s.state = StateClosed
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to connect to eventsub: %w", err)
	}

	conn := &connection{id: uuid.New(), ws: ws, previous: previous}
	_ = ws.SetReadDeadline(time.Now().Add(welcomeTimeout))

	s.mu.Lock()
	if s.runCtx == nil || s.runCtx.Err() != nil || (previous != nil && previous.retired) {
		s.mu.Unlock()
		_ = ws.Close()
		return errors.New("eventsub session closed while connecting")
	}
	s.conns[conn.id] = conn
	if reconnect {
		s.pending = conn
	}
	s.mu.Unlock()

	s.wg.Go(func() { s.readLoop(conn) })
	return nil
}

func (s *SessionManager) readLoop(conn *connection) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			s.connectionEnded(conn, err)
			return
		}
		s.handle(conn, data)
	}
}

func (s *SessionManager) connectionEnded(conn *connection, err error) {
	_ = conn.ws.Close()

	s.mu.Lock()
	delete(s.conns, conn.id)
	if conn.retired {
		s.mu.Unlock()
		slog.Debug("Retired EventSub connection closed", "connection_id", conn.id)
		return
	}

	if s.live == conn {
		s.live = nil
	}
	if s.pending == conn {
		s.pending = nil
	}

	if s.live != nil || s.pending != nil {
		if s.live != nil && s.state == StateReconnecting {
			s.state = StateActive
		}
		s.mu.Unlock()
		slog.Warn("EventSub connection dropped, another connection is still open", "connection_id", conn.id, "error", err)
		return
	}

	if s.state == StateRevoked {
		s.mu.Unlock()
		slog.Warn("EventSub connection closed after revocation", "connection_id", conn.id, "error", err)
		return
	}

	sessionID := s.sessionID
	s.state = StateClosed
	s.sessionID = ""
	s.mu.Unlock()

	slog.Error("EventSub connection lost", "session_id", sessionID, "error", err)
	s.metrics.SessionEvent(SessionEventDisconnected)
	emit(s.events, WebSocketDisconnected, Disconnect{SessionID: sessionID, Err: err})
}

func (s *SessionManager) handle(conn *connection, data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("Ignoring malformed EventSub frame", "connection_id", conn.id, "error", err)
		return
	}

	s.extendDeadline(conn)

	switch f.Metadata.MessageType {
	case MessageSessionWelcome:
		s.handleWelcome(conn, f.Payload)
	case MessageSessionKeepalive:
		slog.Debug("EventSub keepalive", "connection_id", conn.id)
	case MessageSessionReconnect:
		s.handleReconnect(conn, f.Payload)
	case MessageNotification:
		s.handleNotification(f)
	case MessageRevocation:
		s.handleRevocation(f.Payload)
	default:
		slog.Debug("Ignoring unknown EventSub message", "message_type", f.Metadata.MessageType, "message_id", f.Metadata.MessageID)
	}
}

func (s *SessionManager) extendDeadline(conn *connection) {
	s.mu.Lock()
	keepalive := conn.keepalive
	s.mu.Unlock()

	if keepalive <= 0 {
		return
	}
	_ = conn.ws.SetReadDeadline(time.Now().Add(keepalive + s.keepaliveGrace))
}

func (s *SessionManager) handleWelcome(conn *connection, raw json.RawMessage) {
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Session.ID == "" {
		slog.Warn("Ignoring malformed session welcome", "connection_id", conn.id, "error", err)
		return
	}

	s.mu.Lock()
	if conn.retired {
		s.mu.Unlock()
		return
	}
	if s.state == StateRevoked {
		// Revocation is terminal until the next Connect.
		stale := s.pending == conn
		if stale {
			conn.retired = true
			s.pending = nil
		}
		s.mu.Unlock()
		slog.Warn("Ignoring session welcome after revocation", "connection_id", conn.id)
		if stale {
			closeConnections([]*connection{conn})
		}
		return
	}
	previous := conn.previous
	conn.previous = nil
	conn.keepalive = time.Duration(p.Session.KeepaliveTimeoutSeconds) * time.Second
	if previous != nil {
		previous.retired = true
	}
	if s.pending == conn {
		s.pending = nil
	}
	s.live = conn
	s.sessionID = p.Session.ID
	s.state = StateWelcomed
	s.mu.Unlock()

	if previous != nil {
		slog.Info("Closing superseded EventSub connection", "connection_id", previous.id)
		closeConnections([]*connection{previous})
	}

	s.extendDeadline(conn)

	s.mu.Lock()
	if s.live == conn && s.state == StateWelcomed {
		s.state = StateActive
	}
	s.mu.Unlock()

	reconnect := previous != nil
	if reconnect {
		s.metrics.SessionEvent(SessionEventReconnect)
	} else {
		s.metrics.SessionEvent(SessionEventConnected)
	}

	slog.Info("Connected to websocket", "session_id", p.Session.ID, "keepalive_seconds", p.Session.KeepaliveTimeoutSeconds, "reconnect", reconnect)
	emit(s.events, WebSocketConnected, SessionInfo{
		SessionID:        p.Session.ID,
		KeepaliveTimeout: p.Session.KeepaliveTimeoutSeconds,
		Reconnect:        reconnect,
	})
}

func (s *SessionManager) handleReconnect(conn *connection, raw json.RawMessage) {
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Session.ReconnectURL == "" {
		slog.Warn("Ignoring session reconnect without url", "connection_id", conn.id, "error", err)
		return
	}

	s.mu.Lock()
	if conn.retired || s.live != conn {
		s.mu.Unlock()
		return
	}
	if s.state == StateRevoked {
		s.mu.Unlock()
		slog.Warn("Ignoring session reconnect after revocation", "session_id", p.Session.ID)
		return
	}
	s.state = StateReconnecting
	ctx := s.runCtx
	s.mu.Unlock()

	slog.Warn("EventSub session reconnect requested", "session_id", p.Session.ID)
	s.wg.Go(func() {
		if err := s.open(ctx, p.Session.ReconnectURL, conn); err != nil {
			slog.Error("Failed to open reconnect connection", "error", err)
			s.mu.Lock()
			if s.live == conn && s.state == StateReconnecting {
				s.state = StateActive
			}
			s.mu.Unlock()
		}
	})
}

func (s *SessionManager) handleNotification(f frame) {
	var p notificationPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		slog.Warn("Ignoring malformed EventSub notification", "message_id", f.Metadata.MessageID, "error", err)
		return
	}
	if p.Subscription.Type == "" {
		p.Subscription.Type = f.Metadata.SubscriptionType
	}

	slog.Debug("Received EventSub notification", "type", p.Subscription.Type, "message_id", f.Metadata.MessageID)
	s.metrics.Notification(p.Subscription.Type)
	emit(s.events, EventReceived, domain.Notification{Subscription: p.Subscription, Event: p.Event})
}

func (s *SessionManager) handleRevocation(raw json.RawMessage) {
	var p revocationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		slog.Warn("Ignoring malformed EventSub revocation", "error", err)
		return
	}

	s.mu.Lock()
	s.state = StateRevoked
	s.mu.Unlock()

	sub := p.Subscription
	switch sub.Status {
	case domain.SubscriptionUserRemoved:
		slog.Warn("WebSocket session revoked, the user mentioned in the subscription no longer exists", "type", sub.Type)
	case domain.SubscriptionAuthorizationRevoked:
		slog.Warn("WebSocket session revoked, the user revoked the authorization token that the subscription relied on", "type", sub.Type)
	case domain.SubscriptionVersionRemoved:
		slog.Warn("WebSocket session revoked, the subscription type and version is no longer supported", "type", sub.Type)
	default:
		slog.Warn("WebSocket session revoked", "type", sub.Type, "status", sub.Status)
	}

	s.metrics.SessionEvent(SessionEventRevoked)
	emit(s.events, WebSocketRevoked, Revocation{Subscription: sub, Reason: sub.Status})
}
