// Package dispatch owns command fan-out.
//
// Ownership boundary:
// - typed topic registry
// - halt and broadcast-address publish semantics
// - the single worker decoupling producers from slow subscribers
package dispatch

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/legacyctl/internal/observability"
	"github.com/danmuck/legacyctl/internal/protocol"
)

var ErrClosed = errors.New("dispatch: dispatcher is shut down")

// Callback receives one dispatched command. Callbacks run on the
// dispatcher worker; a panic in one subscriber is isolated and logged.
type Callback func(*protocol.Request)

// Subscription identifies one registered callback for Unsubscribe.
type Subscription struct {
	topic Topic
	id    uint64
}

const offerDepth = 256

// Dispatcher fans commands out to topic subscribers. One worker drains
// the offer queue, so delivery for one command finishes before the next
// command is taken.
type Dispatcher struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[Topic]map[uint64]Callback

	offers chan *protocol.Request
	done   chan struct{}
	wg     sync.WaitGroup
	log    zerolog.Logger

	closeOnce sync.Once
}

func New(log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		topics: make(map[Topic]map[uint64]Callback),
		offers: make(chan *protocol.Request, offerDepth),
		done:   make(chan struct{}),
		log:    log.With().Str("component", "dispatcher").Logger(),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Subscribe registers cb against exactly one topic.
func (d *Dispatcher) Subscribe(topic Topic, cb Callback) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	subs := d.topics[topic]
	if subs == nil {
		subs = make(map[uint64]Callback)
		d.topics[topic] = subs
	}
	subs[d.nextID] = cb
	return Subscription{topic: topic, id: d.nextID}
}

func (d *Dispatcher) Unsubscribe(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	subs := d.topics[sub.topic]
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(d.topics, sub.topic)
	}
}

// SubscribeBroadcast registers cb for every dispatched command.
func (d *Dispatcher) SubscribeBroadcast(cb Callback) Subscription {
	return d.Subscribe(Broadcast(), cb)
}

func (d *Dispatcher) UnsubscribeBroadcast(sub Subscription) {
	d.Unsubscribe(sub)
}

// Offer enqueues a command for asynchronous fan-out.
func (d *Dispatcher) Offer(req *protocol.Request) error {
	select {
	case <-d.done:
		return ErrClosed
	default:
	}
	select {
	case d.offers <- req:
		return nil
	case <-d.done:
		return ErrClosed
	}
}

// Shutdown stops the worker after the in-flight command completes.
func (d *Dispatcher) Shutdown() {
	d.closeOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case req := <-d.offers:
			d.publish(req)
		case <-d.done:
			return
		}
	}
}

// publish computes every topic the command matches and delivers to each
// subscriber of those topics.
func (d *Dispatcher) publish(req *protocol.Request) {
	d.mu.RLock()
	targets := d.matchTopics(req)
	callbacks := make([]Callback, 0, 8)
	for _, topic := range targets {
		for _, cb := range d.topics[topic] {
			callbacks = append(callbacks, cb)
		}
	}
	d.mu.RUnlock()

	observability.CountDispatch(req.Scope().String())
	for _, cb := range callbacks {
		d.deliver(cb, req)
	}
}

func (d *Dispatcher) matchTopics(req *protocol.Request) []Topic {
	targets := make([]Topic, 0, 8)

	switch {
	case req.IsHalt():
		// Halt reaches every registered topic, whatever its shape.
		for topic := range d.topics {
			if topic.Kind != TopicBroadcast {
				targets = append(targets, topic)
			}
		}
	case req.IsMotiveHalt():
		for topic := range d.topics {
			if topic.Kind == TopicBroadcast {
				continue
			}
			if topic.Scope == protocol.ScopeEngine || topic.Scope == protocol.ScopeTrain {
				targets = append(targets, topic)
			}
		}
	case req.Address() == protocol.BroadcastAddress:
		// Scope-wide broadcast: every addressed topic under the scope.
		for topic := range d.topics {
			if topic.Kind == TopicBroadcast || topic.Scope != req.Scope() {
				continue
			}
			if topic.Kind == TopicCommand && topic.Command != req.Kind() {
				continue
			}
			targets = append(targets, topic)
		}
	default:
		if _, ok := d.topics[ScopeTopic(req.Scope())]; ok {
			targets = append(targets, ScopeTopic(req.Scope()))
		}
		if _, ok := d.topics[AddressTopic(req.Scope(), req.Address())]; ok {
			targets = append(targets, AddressTopic(req.Scope(), req.Address()))
		}
		if _, ok := d.topics[CommandTopic(req.Scope(), req.Address(), req.Kind())]; ok {
			targets = append(targets, CommandTopic(req.Scope(), req.Address(), req.Kind()))
		}
	}

	// Broadcast subscribers see everything; halt and scope-broadcast
	// fan-out does not short-circuit this.
	if _, ok := d.topics[Broadcast()]; ok {
		targets = append(targets, Broadcast())
	}
	return targets
}

func (d *Dispatcher) deliver(cb Callback, req *protocol.Request) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("command", req.String()).Msg("subscriber panicked")
		}
	}()
	cb(req)
}
