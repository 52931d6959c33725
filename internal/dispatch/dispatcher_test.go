package dispatch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/danmuck/legacyctl/internal/protocol"
	"github.com/danmuck/legacyctl/internal/testutil/testlog"
)

func mustRequest(t *testing.T, kind protocol.Kind, address uint8, data uint32) *protocol.Request {
	t.Helper()
	req, err := protocol.NewRequest(kind, address, data)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return req
}

// counter subscribes and counts deliveries; hits() polls because the
// worker delivers asynchronously.
type counter struct {
	n atomic.Int64
}

func (c *counter) cb(*protocol.Request) { c.n.Add(1) }

func (c *counter) hits(t *testing.T, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.n.Load() == want {
			// Settle briefly to catch overshoot.
			time.Sleep(20 * time.Millisecond)
			if got := c.n.Load(); got != want {
				t.Fatalf("deliveries %d, want %d", got, want)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("deliveries %d, want %d", c.n.Load(), want)
}

func TestFanOutMatrix(t *testing.T) {
	log := testlog.Start(t)
	d := New(log)
	defer d.Shutdown()

	var all, engineScope, engine13, bell13, bell13Wrong, switch13 counter
	d.SubscribeBroadcast(all.cb)
	d.Subscribe(ScopeTopic(protocol.ScopeEngine), engineScope.cb)
	d.Subscribe(AddressTopic(protocol.ScopeEngine, 13), engine13.cb)
	d.Subscribe(CommandTopic(protocol.ScopeEngine, 13, protocol.KindTmcc1RingBell), bell13.cb)
	d.Subscribe(CommandTopic(protocol.ScopeEngine, 7, protocol.KindTmcc1RingBell), bell13Wrong.cb)
	d.Subscribe(AddressTopic(protocol.ScopeSwitch, 13), switch13.cb)

	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, 13, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	all.hits(t, 1)
	engineScope.hits(t, 1)
	engine13.hits(t, 1)
	bell13.hits(t, 1)
	bell13Wrong.hits(t, 0)
	switch13.hits(t, 0)

	// A different engine address reaches the scope topic only.
	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, 7, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}
	all.hits(t, 2)
	engineScope.hits(t, 2)
	engine13.hits(t, 1)
	bell13Wrong.hits(t, 1)
}

func TestHaltReachesEveryTopic(t *testing.T) {
	log := testlog.Start(t)
	d := New(log)
	defer d.Shutdown()

	var all, engine, sw, acc counter
	d.SubscribeBroadcast(all.cb)
	d.Subscribe(AddressTopic(protocol.ScopeEngine, 5), engine.cb)
	d.Subscribe(ScopeTopic(protocol.ScopeSwitch), sw.cb)
	d.Subscribe(CommandTopic(protocol.ScopeAccessory, 9, protocol.KindAccAux1On), acc.cb)

	if err := d.Offer(mustRequest(t, protocol.KindHalt, 0, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	all.hits(t, 1)
	engine.hits(t, 1)
	sw.hits(t, 1)
	acc.hits(t, 1)
}

func TestMotiveHaltSkipsNonMotiveScopes(t *testing.T) {
	log := testlog.Start(t)
	d := New(log)
	defer d.Shutdown()

	engine, train, sw := &counter{}, &counter{}, &counter{}
	d.Subscribe(AddressTopic(protocol.ScopeEngine, 5), engine.cb)
	d.Subscribe(ScopeTopic(protocol.ScopeTrain), train.cb)
	d.Subscribe(ScopeTopic(protocol.ScopeSwitch), sw.cb)

	if err := d.Offer(mustRequest(t, protocol.KindSystemHalt, 0, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	engine.hits(t, 1)
	train.hits(t, 1)
	sw.hits(t, 0)
}

func TestBroadcastAddressExpands(t *testing.T) {
	log := testlog.Start(t)
	d := New(log)
	defer d.Shutdown()

	e5, e70, bell5, speed5, sw := &counter{}, &counter{}, &counter{}, &counter{}, &counter{}
	d.Subscribe(AddressTopic(protocol.ScopeEngine, 5), e5.cb)
	d.Subscribe(AddressTopic(protocol.ScopeEngine, 70), e70.cb)
	d.Subscribe(CommandTopic(protocol.ScopeEngine, 5, protocol.KindTmcc1RingBell), bell5.cb)
	d.Subscribe(CommandTopic(protocol.ScopeEngine, 5, protocol.KindTmcc1AbsoluteSpeed), speed5.cb)
	d.Subscribe(AddressTopic(protocol.ScopeSwitch, 5), sw.cb)

	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, protocol.BroadcastAddress, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	e5.hits(t, 1)
	e70.hits(t, 1)
	bell5.hits(t, 1)
	speed5.hits(t, 0)
	sw.hits(t, 0)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	log := testlog.Start(t)
	d := New(log)
	defer d.Shutdown()

	var c counter
	sub := d.Subscribe(AddressTopic(protocol.ScopeEngine, 5), c.cb)

	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, 5, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}
	c.hits(t, 1)

	d.Unsubscribe(sub)
	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, 5, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}
	c.hits(t, 1)
}

func TestSubscriberPanicIsIsolated(t *testing.T) {
	log := testlog.Start(t)
	d := New(log)
	defer d.Shutdown()

	var c counter
	d.Subscribe(ScopeTopic(protocol.ScopeEngine), func(*protocol.Request) { panic("boom") })
	d.SubscribeBroadcast(c.cb)

	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, 5, 0)); err != nil {
		t.Fatalf("offer failed: %v", err)
	}
	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, 5, 0)); err != nil {
		t.Fatalf("offer after panic failed: %v", err)
	}
	c.hits(t, 2)
}

func TestOfferAfterShutdown(t *testing.T) {
	log := testlog.Start(t)
	d := New(log)
	d.Shutdown()

	if err := d.Offer(mustRequest(t, protocol.KindTmcc1RingBell, 5, 0)); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
