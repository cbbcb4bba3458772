package twitch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/energypatrikhu/obs-ui/internal/domain"
)

// Event names a lifecycle signal of the Twitch client together with the type
// of its payload. The set is closed: only this package can declare events.
type Event[T any] struct {
	name string
}

func (e Event[T]) String() string { return e.name }

// ConnectingInfo is emitted before a connection to EventSub is dialed.
type ConnectingInfo struct {
	URL       string
	Reconnect bool
}

// SessionInfo describes a welcomed EventSub session. Reconnect is true when
// the session replaced a previous one and inherited its subscriptions.
type SessionInfo struct {
	SessionID        string
	KeepaliveTimeout int
	Reconnect        bool
}

// Revocation is emitted when Twitch revokes a subscription.
type Revocation struct {
	Subscription domain.Subscription
	Reason       string
}

// Disconnect is emitted when the live EventSub connection drops without an
// explicit Close.
type Disconnect struct {
	SessionID string
	Err       error
}

// SubscribeBatch describes a batch of subscriptions bound to one session.
type SubscribeBatch struct {
	SessionID string
	Types     []string
}

// SubscribeFailure reports the subscription that aborted a batch.
type SubscribeFailure struct {
	SessionID string
	Type      string
	Err       error
}

// ClearResult reports how many stale subscriptions were deleted.
type ClearResult struct {
	Deleted int
	Err     error
}

var (
	Ready                      = Event[struct{}]{name: "ready"}
	WebSocketConnecting        = Event[ConnectingInfo]{name: "websocket-connecting"}
	WebSocketConnected         = Event[SessionInfo]{name: "websocket-connected"}
	WebSocketRevoked           = Event[Revocation]{name: "websocket-revoked"}
	WebSocketDisconnected      = Event[Disconnect]{name: "websocket-disconnected"}
	EventReceived              = Event[domain.Notification]{name: "event-received"}
	SubscribingToEvents        = Event[SubscribeBatch]{name: "subscribing-to-websocket-events"}
	SubscribedToEvents         = Event[SubscribeBatch]{name: "subscribed-to-websocket-events"}
	FailedToSubscribe          = Event[SubscribeFailure]{name: "failed-to-subscribe-to-websocket-events"}
	ClearingSubscriptions      = Event[struct{}]{name: "clearing-eventsub-subscriptions"}
	ClearedSubscriptions       = Event[ClearResult]{name: "cleared-eventsub-subscriptions"}
	FailedToClearSubscriptions = Event[ClearResult]{name: "failed-to-clear-eventsub-subscriptions"}
)

// Dispatcher fans lifecycle events out to listeners. Every listener owns a
// mailbox drained by its own goroutine, so emitters never wait on listeners
// and each listener sees its events in emission order.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[string][]*listener
	nextID    uint64
	closed    bool
	wg        sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]*listener)}
}

type listener struct {
	id    uint64
	event string
	once  bool
	fn    func(any)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []any
	closed bool
}

func (l *listener) push(payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.queue = append(l.queue, payload)
	l.cond.Signal()
}

// close stops accepting payloads; already queued ones are still delivered.
func (l *listener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cond.Signal()
}

func (l *listener) run() {
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		payload := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.deliver(payload)
	}
}

func (l *listener) deliver(payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event listener panicked", "event", l.event, "panic", r)
		}
	}()
	l.fn(payload)
}

func (d *Dispatcher) add(event string, once bool, fn func(any)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return func() {}
	}

	d.nextID++
	l := &listener{id: d.nextID, event: event, once: once, fn: fn}
	l.cond = sync.NewCond(&l.mu)
	d.listeners[event] = append(d.listeners[event], l)

	d.wg.Go(l.run)

	return func() { d.remove(event, l.id) }
}

func (d *Dispatcher) remove(event string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ls := d.listeners[event]
	for i, l := range ls {
		if l.id == id {
			d.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			l.close()
			return
		}
	}
}

func (d *Dispatcher) publish(event string, payload any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	ls := d.listeners[event]
	kept := ls[:0:0]
	for _, l := range ls {
		l.push(payload)
		if l.once {
			l.close()
			continue
		}
		kept = append(kept, l)
	}
	d.listeners[event] = kept
}

// Close stops accepting events and listeners, then waits until every queued
// event has been delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ls := range d.listeners {
		for _, l := range ls {
			l.close()
		}
	}
	d.listeners = nil
	d.mu.Unlock()

	d.wg.Wait()
}

// On registers fn for every emission of ev and returns a function that
// removes it. Events queued before removal are still delivered.
func On[T any](d *Dispatcher, ev Event[T], fn func(T)) func() {
	return d.add(ev.name, false, func(p any) { fn(p.(T)) })
}

// Once registers fn for the next emission of ev only.
func Once[T any](d *Dispatcher, ev Event[T], fn func(T)) func() {
	return d.add(ev.name, true, func(p any) { fn(p.(T)) })
}

// Wait blocks until ev is emitted or ctx is done.
func Wait[T any](ctx context.Context, d *Dispatcher, ev Event[T]) (T, error) {
	ch := make(chan T, 1)
	unsubscribe := Once(d, ev, func(p T) { ch <- p })
	defer unsubscribe()

	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func emit[T any](d *Dispatcher, ev Event[T], payload T) {
	slog.Debug("Emitting event", "event", ev.name)
	d.publish(ev.name, payload)
}
