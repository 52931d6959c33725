package stream

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/legacyctl/internal/observability"
	"github.com/danmuck/legacyctl/internal/protocol"
)

// Sink receives every successfully decoded command.
type Sink func(*protocol.Request)

const feedDepth = 64

// TMCCAssembler frames TMCC byte groups out of an unbounded stream.
type TMCCAssembler struct {
	buf  Buffer
	sink Sink
	log  zerolog.Logger

	feed chan []byte
	done chan struct{}
	wg   sync.WaitGroup
}

func NewTMCCAssembler(sink Sink, log zerolog.Logger) *TMCCAssembler {
	a := &TMCCAssembler{
		sink: sink,
		log:  log.With().Str("assembler", "tmcc").Logger(),
		feed: make(chan []byte, feedDepth),
		done: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Feed hands a chunk of raw bytes to the assembler worker. Safe for use
// by one producer; blocks when the worker is behind.
func (a *TMCCAssembler) Feed(p []byte) {
	chunk := append([]byte(nil), p...)
	select {
	case a.feed <- chunk:
	case <-a.done:
	}
}

// Stop shuts the worker down promptly; undrained bytes are abandoned.
func (a *TMCCAssembler) Stop() {
	close(a.done)
	a.wg.Wait()
}

func (a *TMCCAssembler) run() {
	defer a.wg.Done()
	for {
		select {
		case chunk := <-a.feed:
			a.buf.Append(chunk)
			a.drain()
		case <-a.done:
			return
		}
	}
}

// drain consumes as many complete byte groups as the buffer holds.
//
// Resynchronization rule: an unrecognized leading byte is discarded one
// at a time. A leading prefix with byte 3 equal to the multi-word prefix
// means a 9-byte group; if fewer than 9 bytes are buffered the assembler
// waits rather than mis-framing.
func (a *TMCCAssembler) drain() {
	for a.buf.Len() >= 3 {
		lead := a.buf.Peek(0)
		if !protocol.KnownPrefix(lead) {
			a.log.Warn().Uint8("byte", lead).Msg("ignoring stray byte")
			observability.CountDiscardedByte("tmcc")
			a.buf.Discard(1)
			continue
		}

		n := 3
		if a.buf.Len() >= 9 && a.buf.Peek(3) == protocol.PrefixMulti && a.buf.Peek(6) == protocol.PrefixMulti {
			n = 9
		} else if a.buf.Len() >= 4 && a.buf.Peek(3) == protocol.PrefixMulti && a.buf.Len() < 9 {
			return
		}

		group := a.buf.Take(n)
		req, err := protocol.Decode(group)
		if err != nil {
			a.log.Warn().Err(err).Hex("bytes", group).Msg("dropping undecodable group")
			observability.CountDecodeFailure("tmcc")
			continue
		}
		observability.CountFrame("tmcc")
		a.sink(req)
	}
}
