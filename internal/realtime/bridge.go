package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ConnState is the bridge connection status.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

// String returns the lowercase state label.
func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// TableCallbacks are the per-table handlers. Nil entries are skipped.
type TableCallbacks struct {
	OnInsert func(Event)
	OnUpdate func(Event)
	OnDelete func(Event)
}

// Bridge maintains one subscription per table and event kind against a
// Feed and reports connectivity through a state machine:
// Disconnected → Connecting → Connected, back to Disconnected on any
// setup error or teardown. Setup is best-effort: a failing feed leaves
// the bridge disconnected instead of failing the caller.
type Bridge struct {
	feed Feed
	log  *logrus.Logger

	mu            sync.Mutex
	state         ConnState
	onStateChange []func(ConnState)
}

// NewBridge creates a bridge over the given feed. A nil feed is
// allowed and behaves as permanently disconnected.
func NewBridge(feed Feed, log *logrus.Logger) *Bridge {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bridge{feed: feed, log: log, state: Disconnected}
}

// OnStateChange registers a connectivity callback. Callbacks run on
// the goroutine that triggered the transition.
func (b *Bridge) OnStateChange(fn func(ConnState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = append(b.onStateChange, fn)
}

// State returns the current connection state.
func (b *Bridge) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) setState(state ConnState) {
	b.mu.Lock()
	if b.state == state {
		b.mu.Unlock()
		return
	}
	b.state = state
	callbacks := append(([]func(ConnState))(nil), b.onStateChange...)
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn(state)
	}
}

// Subscription is a set of open table subscriptions. Unsubscribe
// closes every one of them; none outlives its owner.
type Subscription struct {
	bridge  *Bridge
	cancels []func()
	once    sync.Once
	active  bool
}

// Active reports whether the subscription set was established.
func (s *Subscription) Active() bool {
	return s.active
}

// Unsubscribe tears down every open subscription and moves the bridge
// to Disconnected. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
		s.cancels = nil
		s.bridge.setState(Disconnected)
	})
}

// Subscribe opens insert/update/delete subscriptions for every listed
// table. On any setup error the already-opened subscriptions are
// closed and an inactive subscription is returned; the caller observes
// the failure through the Disconnected state, never through an error.
func (b *Bridge) Subscribe(tables []string, callbacks map[string]TableCallbacks) *Subscription {
	sub := &Subscription{bridge: b}

	if b.feed == nil || len(tables) == 0 {
		b.log.Warn("change feed not configured, realtime sync disabled")
		b.setState(Disconnected)
		return sub
	}

	b.setState(Connecting)

	for _, table := range tables {
		cb := callbacks[table]

		for _, entry := range []struct {
			kind    EventKind
			handler func(Event)
		}{
			{EventInsert, cb.OnInsert},
			{EventUpdate, cb.OnUpdate},
			{EventDelete, cb.OnDelete},
		} {
			if entry.handler == nil {
				continue
			}
			cancel, err := b.feed.Subscribe(table, entry.kind, entry.handler)
			if err != nil {
				b.log.WithError(err).WithFields(logrus.Fields{
					"table": table,
					"kind":  string(entry.kind),
				}).Warn("realtime subscription setup failed")
				for _, c := range sub.cancels {
					c()
				}
				sub.cancels = nil
				b.setState(Disconnected)
				return sub
			}
			sub.cancels = append(sub.cancels, cancel)
		}
	}

	sub.active = true
	b.setState(Connected)
	return sub
}
