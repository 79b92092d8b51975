// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Matcher decides whether a message satisfies a pending request or belongs
// to a subscription.
type Matcher func(Message) bool

// MatchID matches any message decoded from the given wire ID, including the
// Malformed variant for that ID.
func MatchID(id uint8) Matcher {
	return func(m Message) bool { return m.MsgID() == id }
}

// MatchAck matches a universal acknowledgement redirecting to the given
// message ID.
func MatchAck(redirectID uint8) Matcher {
	return func(m Message) bool {
		ack, ok := m.(*UniversalAck)
		return ok && ack.RedirectID == redirectID
	}
}

// MatchAny matches every message.
func MatchAny(Message) bool { return true }

// PendingRequest is a one-shot registration waiting for the next message
// accepted by its matcher. It is fulfilled at most once; the terminal state
// is exactly one of fulfilled, timed out, cancelled, or failed by
// connection closure.
type PendingRequest struct {
	d       *Dispatcher
	match   Matcher
	created time.Time

	// settled, msg and err are guarded by d.mu; done is closed after they
	// are final.
	settled bool
	msg     Message
	err     error
	done    chan struct{}
}

// Await blocks until the request is fulfilled, the timeout elapses, or the
// connection closes. On timeout the request is removed from the correlation
// table so a late response cannot be misdelivered to it.
func (p *PendingRequest) Await(timeout time.Duration) (Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		p.settle(nil, ErrTimeout)
		<-p.done
	}
	return p.msg, p.err
}

// Cancel removes the request from the correlation table. A response that
// arrives later is routed to subscribers instead. Cancel after fulfillment
// is a no-op.
func (p *PendingRequest) Cancel() {
	p.settle(nil, ErrCancelled)
}

// settle transitions the request to a terminal state if it has not reached
// one yet, removing it from the dispatcher's table.
func (p *PendingRequest) settle(msg Message, err error) {
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	p.settleLocked(msg, err)
}

func (p *PendingRequest) settleLocked(msg Message, err error) {
	if p.settled {
		return
	}
	p.settled = true
	p.msg = msg
	p.err = err
	p.d.removeLocked(p)
	close(p.done)
}

// Subscription is a standing registration receiving every matching message
// until closed. Delivery never blocks the receiver loop: the channel is
// bounded, and when it is full the oldest unread message is dropped and
// counted.
type Subscription struct {
	id      uuid.UUID
	d       *Dispatcher
	ch      chan Message
	match   Matcher
	passive bool
	closed  bool // guarded by d.mu
	dropped atomic.Uint64
}

// ID returns the unique handle of this subscription.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Messages returns the delivery channel. It is closed when the subscription
// is closed or the connection ends; the sequence is finite only upon
// closure.
func (s *Subscription) Messages() <-chan Message { return s.ch }

// Dropped returns how many messages were discarded because the subscriber
// was not keeping up.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close deregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	delete(s.d.subs, s.id)
	close(s.ch)
}

// push delivers without blocking, dropping the oldest queued message when
// the buffer is full. Called with d.mu held, which also serializes against
// closeLocked.
func (s *Subscription) push(m Message) {
	for {
		select {
		case s.ch <- m:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
			subscriberDrops.Inc()
		default:
		}
	}
}

// SubscribeOption configures a Subscription.
type SubscribeOption func(*Subscription)

// WithBuffer sets the subscription queue depth (default 16).
func WithBuffer(n int) SubscribeOption {
	return func(s *Subscription) {
		if n > 0 {
			s.ch = make(chan Message, n)
		}
	}
}

// Passive marks the subscription as a passive observer: it receives
// matching messages even when a one-shot request claimed them. The status
// aggregator relies on this so a solicited status reply still updates the
// shared snapshot.
func Passive() SubscribeOption {
	return func(s *Subscription) { s.passive = true }
}

// Dispatcher routes each decoded message either to the first pending
// one-shot request whose matcher accepts it (in registration order) or to
// the matching subscriptions. All correlation state is serialized behind a
// single mutex; Deliver is called only from the receiver loop, in wire
// order.
type Dispatcher struct {
	mu       sync.Mutex
	pending  []*PendingRequest
	subs     map[uuid.UUID]*Subscription
	closed   bool
	closeErr error
	log      zerolog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		subs: make(map[uuid.UUID]*Subscription),
		log:  log,
	}
}

// Expect registers a one-shot request. Register before writing the request
// frame, or the response can race the registration. Fails immediately with
// ErrConnectionClosed once the stream has ended.
func (d *Dispatcher) Expect(match Matcher) (*PendingRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrConnectionClosed
	}
	p := &PendingRequest{
		d:       d,
		match:   match,
		created: time.Now(),
		done:    make(chan struct{}),
	}
	d.pending = append(d.pending, p)
	return p, nil
}

// Subscribe registers a standing subscription. On a closed dispatcher the
// returned subscription's channel is already closed.
func (d *Dispatcher) Subscribe(match Matcher, opts ...SubscribeOption) *Subscription {
	s := &Subscription{
		id:    uuid.New(),
		d:     d,
		ch:    make(chan Message, 16),
		match: match,
	}
	for _, opt := range opts {
		opt(s)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		s.closed = true
		close(s.ch)
		return s
	}
	d.subs[s.id] = s
	return s
}

// Deliver hands one decoded message to the correlation engine. Messages
// arrive strictly in wire order and are never duplicated.
func (d *Dispatcher) Deliver(m Message) {
	messagesDispatched.Inc()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	claimed := false
	for _, p := range d.pending {
		if p.match(m) {
			p.settleLocked(m, nil)
			claimed = true
			break
		}
	}

	for _, s := range d.subs {
		if claimed && !s.passive {
			continue
		}
		if s.match(m) {
			s.push(m)
		}
	}

	d.log.Debug().
		Uint8("id", m.MsgID()).
		Bool("claimed", claimed).
		Int("subscribers", len(d.subs)).
		Msg("dispatched message")
}

// Close fails every outstanding request with ErrConnectionClosed (or err,
// if non-nil) and terminates all subscriber sequences. Further deliveries
// are dropped and further registrations fail.
func (d *Dispatcher) Close(err error) {
	if err == nil {
		err = ErrConnectionClosed
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.closeErr = err

	for _, p := range append([]*PendingRequest(nil), d.pending...) {
		p.settleLocked(nil, err)
	}
	d.pending = nil

	for _, s := range d.subs {
		s.closed = true
		close(s.ch)
	}
	d.subs = map[uuid.UUID]*Subscription{}
}

// Err returns the terminal error once the dispatcher is closed, nil before.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeErr
}

func (d *Dispatcher) removeLocked(p *PendingRequest) {
	for i, q := range d.pending {
		if q == p {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			return
		}
	}
}
