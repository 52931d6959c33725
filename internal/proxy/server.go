// Package proxy owns shared remote access to the one serial endpoint.
//
// Ownership boundary:
// - the TCP relay accepting remote byte streams into the outbound queue
// - the client-side sender used when this process is not the server
//
// The wire contract is a raw relay: no length prefixes, a fixed ack
// after every read chunk, and the whole accumulated stream is forwarded
// when the client closes.
package proxy

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/legacyctl/internal/observability"
	"github.com/danmuck/legacyctl/internal/txq"
)

// Ack is the fixed reply sent after every read chunk.
var Ack = []byte("ack")

const readChunk = 4096

// Server relays remote client bytes into the outbound queue. One
// connection is drained at a time; the command rate in this domain is
// far below the accept rate, so a concurrent server buys nothing.
type Server struct {
	queue *txq.Queue
	log   zerolog.Logger

	lis       net.Listener
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Listen binds a dual-stack TCP listener on port and starts the accept
// loop. The wildcard IPv6 address also accepts IPv4-mapped peers, so
// clients resolving localhost to 127.0.0.1 still reach the relay.
func Listen(port int, queue *txq.Queue, log zerolog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("[::]:%d", port))
	if err != nil {
		return nil, fmt.Errorf("proxy listen failed: %w", err)
	}
	s := &Server{
		queue: queue,
		log:   log.With().Str("component", "proxy").Logger(),
		lis:   lis,
		done:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr reports the bound listener address.
func (s *Server) Addr() net.Addr { return s.lis.Addr() }

// Shutdown closes the listener and waits for the in-flight connection.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.lis.Close()
	})
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.lis.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}
		observability.CountProxySession()
		s.handle(conn)
	}
}

// handle drains one connection: ack every chunk, accumulate everything,
// and forward the whole stream as one queue item on close.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	var pending []byte
	buf := make([]byte, readChunk)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if _, werr := conn.Write(Ack); werr != nil {
				s.log.Warn().Err(werr).Msg("ack write failed")
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Warn().Err(err).Msg("client read failed")
			}
			break
		}
	}

	if len(pending) == 0 {
		return
	}
	observability.CountProxyBytes(len(pending))
	if err := s.queue.Enqueue(pending); err != nil {
		s.log.Error().Err(err).Int("len", len(pending)).Msg("relay enqueue failed")
		return
	}
	s.log.Debug().Int("len", len(pending)).Str("peer", conn.RemoteAddr().String()).Msg("relayed client stream")
}
