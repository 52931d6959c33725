package stream

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/legacyctl/internal/observability"
	"github.com/danmuck/legacyctl/internal/protocol/pdi"
)

// PDIAssembler frames SOP..EOP spans out of an unbounded stream.
type PDIAssembler struct {
	buf  Buffer
	sink Sink
	log  zerolog.Logger

	feed chan []byte
	done chan struct{}
	wg   sync.WaitGroup
}

func NewPDIAssembler(sink Sink, log zerolog.Logger) *PDIAssembler {
	a := &PDIAssembler{
		sink: sink,
		log:  log.With().Str("assembler", "pdi").Logger(),
		feed: make(chan []byte, feedDepth),
		done: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *PDIAssembler) Feed(p []byte) {
	chunk := append([]byte(nil), p...)
	select {
	case a.feed <- chunk:
	case <-a.done:
	}
}

func (a *PDIAssembler) Stop() {
	close(a.done)
	a.wg.Wait()
}

func (a *PDIAssembler) run() {
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

func (a *PDIAssembler) drain() {
	for {
		// Discard anything ahead of the first SOP, one byte at a time.
		for a.buf.Len() > 0 && a.buf.Peek(0) != pdi.SOP {
			a.log.Warn().Uint8("byte", a.buf.Peek(0)).Msg("ignoring stray byte")
			observability.CountDiscardedByte("pdi")
			a.buf.Discard(1)
		}
		if a.buf.Len() == 0 {
			return
		}

		end := a.findEOP()
		if end < 0 {
			return
		}

		span := a.buf.Take(end + 1)
		req, err := pdi.DecodeToRequest(span)
		if err != nil {
			a.log.Warn().Err(err).Hex("bytes", span).Msg("dropping undecodable frame")
			observability.CountDecodeFailure("pdi")
			continue
		}
		observability.CountFrame("pdi")
		a.sink(req)
	}
}

// findEOP returns the offset of the first genuine EOP, or -1 to wait for
// more input. The scan tracks stuffing state from the SOP forward so an
// escaped EOP byte is treated as payload data.
func (a *PDIAssembler) findEOP() int {
	escaped := false
	for i := 1; i < a.buf.Len(); i++ {
		b := a.buf.Peek(i)
		if escaped {
			escaped = false
			continue
		}
		switch b {
		case pdi.Stuff:
			escaped = true
		case pdi.EOP:
			return i
		}
	}
	return -1
}
