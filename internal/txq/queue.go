// Package txq owns the single throttled path to the physical port.
//
// Ownership boundary:
// - bounded FIFO of encoded byte groups
// - one writer worker enforcing the minimum inter-write interval
// - drain-vs-flush shutdown semantics
package txq

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/legacyctl/internal/observability"
)

var ErrClosed = errors.New("txq: queue is shut down")

// DefaultThrottle is the minimum elapsed time between consecutive
// physical writes. Command-control hardware drops words that arrive
// faster than it can relay them.
const DefaultThrottle = 30 * time.Millisecond

const defaultDepth = 512

type item struct {
	data []byte
	done chan struct{}
}

// Queue serializes writes to one port. All encoders enqueue; only the
// worker ever touches the writer.
type Queue struct {
	port     io.Writer
	interval time.Duration
	log      zerolog.Logger

	items chan item
	done  chan struct{}
	wg    sync.WaitGroup
	mu    sync.RWMutex

	discard   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once

	lastWrite time.Time
}

// New starts the writer worker. interval <= 0 selects DefaultThrottle;
// depth <= 0 selects the default queue depth.
func New(port io.Writer, interval time.Duration, depth int, log zerolog.Logger) *Queue {
	if interval <= 0 {
		interval = DefaultThrottle
	}
	if depth <= 0 {
		depth = defaultDepth
	}
	q := &Queue{
		port:     port,
		interval: interval,
		log:      log.With().Str("component", "txq").Logger(),
		items:    make(chan item, depth),
		done:     make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue queues one byte group for transmission.
func (q *Queue) Enqueue(b []byte) error {
	return q.enqueue(item{data: append([]byte(nil), b...)})
}

// EnqueueWait queues one byte group and blocks until the worker has
// written (or discarded) it.
func (q *Queue) EnqueueWait(b []byte) error {
	it := item{data: append([]byte(nil), b...), done: make(chan struct{})}
	if err := q.enqueue(it); err != nil {
		return err
	}
	<-it.done
	return nil
}

func (q *Queue) enqueue(it item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed.Load() {
		return ErrClosed
	}
	select {
	case q.items <- it:
		return nil
	case <-q.done:
		return ErrClosed
	}
}

// Shutdown stops the worker. immediate clears the queue and releases
// waiters without writing; otherwise already-queued items flush first.
func (q *Queue) Shutdown(immediate bool) {
	q.closeOnce.Do(func() {
		if immediate {
			q.discard.Store(true)
		}
		q.closed.Store(true)
		close(q.done)
	})
	q.wg.Wait()
	// A producer can pass the closed check and still win the send race
	// after the worker's final drain. The write lock waits out in-flight
	// producers; completing the stragglers here releases their waiters.
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case it := <-q.items:
			q.complete(it)
		default:
			return
		}
	}
}

// Interval reports the configured throttle interval.
func (q *Queue) Interval() time.Duration { return q.interval }

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case it := <-q.items:
			q.handle(it)
		case <-q.done:
			for {
				select {
				case it := <-q.items:
					q.handle(it)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) handle(it item) {
	defer q.complete(it)
	if q.discard.Load() {
		return
	}
	q.throttle()
	if q.discard.Load() {
		return
	}
	gap := time.Duration(0)
	if !q.lastWrite.IsZero() {
		gap = time.Since(q.lastWrite)
	}
	_, err := q.port.Write(it.data)
	q.lastWrite = time.Now()
	observability.CountSerialWrite(err, gap)
	if err != nil {
		// Transient serial faults are expected; drop the item and keep
		// writing.
		q.log.Error().Err(err).Int("len", len(it.data)).Msg("serial write failed")
	}
}

// throttle sleeps out the remainder of the inter-write interval, waking
// periodically so an immediate shutdown is observed sub-second.
func (q *Queue) throttle() {
	if q.lastWrite.IsZero() {
		return
	}
	for !q.discard.Load() {
		remaining := q.interval - time.Since(q.lastWrite)
		if remaining <= 0 {
			return
		}
		nap := remaining
		if nap > 250*time.Millisecond {
			nap = 250 * time.Millisecond
		}
		time.Sleep(nap)
	}
}

func (q *Queue) complete(it item) {
	if it.done != nil {
		close(it.done)
	}
}
