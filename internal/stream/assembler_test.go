package stream

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danmuck/legacyctl/internal/observability"
	"github.com/danmuck/legacyctl/internal/protocol"
	"github.com/danmuck/legacyctl/internal/protocol/pdi"
	"github.com/danmuck/legacyctl/internal/testutil/testlog"
)

func collectSink(t *testing.T) (Sink, <-chan *protocol.Request) {
	t.Helper()
	out := make(chan *protocol.Request, 16)
	return func(req *protocol.Request) { out <- req }, out
}

func waitFor(t *testing.T, out <-chan *protocol.Request) *protocol.Request {
	t.Helper()
	select {
	case req := <-out:
		return req
	case <-time.After(2 * time.Second):
		t.Fatalf("no command assembled in time")
		return nil
	}
}

func expectNone(t *testing.T, out <-chan *protocol.Request) {
	t.Helper()
	select {
	case req := <-out:
		t.Fatalf("unexpected command %s", req)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTMCCAssemblerResync(t *testing.T) {
	log := testlog.Start(t)
	sink, out := collectSink(t)
	a := NewTMCCAssembler(sink, log)
	defer a.Stop()

	valid, err := protocol.NewRequest(protocol.KindTmcc2AbsoluteSpeed, 13, 40)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// Two garbage bytes ahead of a valid group must cost exactly the
	// garbage, not the group.
	before := testutil.ToFloat64(observability.DiscardedByteCounter("tmcc"))
	a.Feed(append([]byte{0x00, 0x42}, valid.Bytes()...))

	got := waitFor(t, out)
	if got.Kind() != protocol.KindTmcc2AbsoluteSpeed || got.Address() != 13 || got.Data() != 40 {
		t.Fatalf("assembled %s", got)
	}
	expectNone(t, out)

	// Discards are counted one byte at a time, ahead of the decode.
	if discarded := testutil.ToFloat64(observability.DiscardedByteCounter("tmcc")) - before; discarded != 2 {
		t.Fatalf("counted %v discarded bytes, want 2", discarded)
	}
}

func TestTMCCAssemblerSplitFeeds(t *testing.T) {
	log := testlog.Start(t)
	sink, out := collectSink(t)
	a := NewTMCCAssembler(sink, log)
	defer a.Stop()

	valid, err := protocol.NewRequest(protocol.KindTmcc1RingBell, 7, 0)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// One byte at a time still assembles exactly one group.
	for _, b := range valid.Bytes() {
		a.Feed([]byte{b})
	}

	got := waitFor(t, out)
	if got.Kind() != protocol.KindTmcc1RingBell || got.Address() != 7 {
		t.Fatalf("assembled %s", got)
	}
}

func TestTMCCAssemblerMultiWordWaits(t *testing.T) {
	log := testlog.Start(t)
	sink, out := collectSink(t)
	a := NewTMCCAssembler(sink, log)
	defer a.Stop()

	multi, err := protocol.NewRequest(protocol.KindParamSmokeLevel, 20, 2)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	wire := multi.Bytes()

	// Four bytes reveal a multi-word group; the assembler must wait for
	// the rest rather than take three bytes off the front.
	a.Feed(wire[:4])
	expectNone(t, out)

	a.Feed(wire[4:])
	got := waitFor(t, out)
	if got.Kind() != protocol.KindParamSmokeLevel || got.Address() != 20 || got.Data() != 2 {
		t.Fatalf("assembled %s", got)
	}
}

func TestTMCCAssemblerDropsBadGroupAndContinues(t *testing.T) {
	log := testlog.Start(t)
	sink, out := collectSink(t)
	a := NewTMCCAssembler(sink, log)
	defer a.Stop()

	valid, err := protocol.NewRequest(protocol.KindSwitchOut, 3, 0)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// A well-prefixed but unknown word is dropped as a whole group.
	a.Feed(append([]byte{0xFE, 0x00, 0x3B}, valid.Bytes()...))

	got := waitFor(t, out)
	if got.Kind() != protocol.KindSwitchOut || got.Address() != 3 {
		t.Fatalf("assembled %s", got)
	}
	expectNone(t, out)
}

func TestPDIAssemblerFrames(t *testing.T) {
	log := testlog.Start(t)
	sink, out := collectSink(t)
	a := NewPDIAssembler(sink, log)
	defer a.Stop()

	frame := pdi.Encode(pdi.Frame{Command: pdi.CmdStm2Set, ID: 6, Payload: []byte{pdi.ActionFire, 1}})

	// Garbage ahead of the SOP is discarded byte by byte.
	a.Feed(append([]byte{0x11, 0x22}, frame...))

	got := waitFor(t, out)
	if got.Kind() != protocol.KindPdiFire || got.Scope() != protocol.ScopeSwitch || got.Address() != 6 {
		t.Fatalf("assembled %s", got)
	}
}

func TestPDIAssemblerEscapedEOP(t *testing.T) {
	log := testlog.Start(t)
	sink, out := collectSink(t)
	a := NewPDIAssembler(sink, log)
	defer a.Stop()

	// The payload embeds every framing byte; the assembler must not end
	// the frame at an escaped EOP.
	frame := pdi.Encode(pdi.Frame{
		Command: pdi.CmdSer2Rx, ID: 4,
		Payload: []byte{pdi.ActionData, pdi.EOP, pdi.Stuff, pdi.SOP},
	})

	half := len(frame) / 2
	a.Feed(frame[:half])
	expectNone(t, out)
	a.Feed(frame[half:])

	got := waitFor(t, out)
	if got.Kind() != protocol.KindPdiStatusReply {
		t.Fatalf("assembled %s", got)
	}
	body := got.Payload()
	if len(body) != 6 || body[3] != pdi.EOP || body[4] != pdi.Stuff || body[5] != pdi.SOP {
		t.Fatalf("payload bytes lost to framing: % X", body)
	}
}
