// Package runtime owns process composition.
//
// One Context exists per process: it holds the single outbound queue,
// dispatcher, assemblers, state store, and servers, and tears them down
// in dependency order. Build is idempotent; repeated calls return the
// same Context.
package runtime

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/legacyctl/internal/config"
	"github.com/danmuck/legacyctl/internal/dispatch"
	"github.com/danmuck/legacyctl/internal/protocol"
	"github.com/danmuck/legacyctl/internal/proxy"
	"github.com/danmuck/legacyctl/internal/serialport"
	"github.com/danmuck/legacyctl/internal/state"
	"github.com/danmuck/legacyctl/internal/stream"
	"github.com/danmuck/legacyctl/internal/txq"
)

var (
	buildMu sync.Mutex
	built   *Context
)

// Context is the application context: one owned instance of each core
// component.
type Context struct {
	cfg config.Config
	log zerolog.Logger

	port       *serialport.Port
	reader     *serialport.Reader
	queue      *txq.Queue
	dispatcher *dispatch.Dispatcher
	store      *state.Store
	tmcc       *stream.TMCCAssembler
	pdi        *stream.PDIAssembler
	proxySrv   *proxy.Server
	client     *proxy.Client

	base3Conn net.Conn
	base3Stop chan struct{}
	base3WG   sync.WaitGroup
}

// Build constructs the process-wide Context, or returns the existing
// one. Thread-safe; the config of the first call wins.
func Build(cfg config.Config, log zerolog.Logger) (*Context, error) {
	buildMu.Lock()
	defer buildMu.Unlock()
	if built != nil {
		return built, nil
	}
	ctx, err := newContext(cfg, log)
	if err != nil {
		return nil, err
	}
	built = ctx
	return built, nil
}

// Reset forgets the built Context. Test hook only.
func Reset() {
	buildMu.Lock()
	built = nil
	buildMu.Unlock()
}

func newContext(cfg config.Config, log zerolog.Logger) (*Context, error) {
	ctx := &Context{cfg: cfg, log: log}

	if cfg.Mode == config.ModeClient {
		ctx.client = proxy.NewClient(cfg.Proxy.Server, 0)
		return ctx, nil
	}

	port, err := serialport.Open(serialport.Config{
		Device:   cfg.Serial.Device,
		BaudRate: cfg.Serial.BaudRate,
	}, log)
	if err != nil {
		return nil, err
	}
	ctx.port = port

	return ctx.wire(port)
}

// BuildWithWriter assembles a Context around an arbitrary port writer.
// Test hook: everything but the physical device is the real pipeline.
func BuildWithWriter(cfg config.Config, w io.Writer, log zerolog.Logger) (*Context, error) {
	ctx := &Context{cfg: cfg, log: log}
	return ctx.wire(w)
}

func (c *Context) wire(port io.Writer) (*Context, error) {
	c.queue = txq.New(port, c.cfg.Throttle(), c.cfg.Serial.QueueDepth, c.log)
	c.dispatcher = dispatch.New(c.log)
	c.store = state.NewStore(nil, c.log)

	// The state store folds every dispatched command.
	c.dispatcher.SubscribeBroadcast(c.store.OnCommand)

	offer := func(req *protocol.Request) {
		if err := c.dispatcher.Offer(req); err != nil {
			c.log.Warn().Err(err).Str("command", req.String()).Msg("dispatch offer failed")
		}
	}
	c.tmcc = stream.NewTMCCAssembler(offer, c.log)
	c.pdi = stream.NewPDIAssembler(offer, c.log)

	if c.port != nil {
		c.reader = serialport.NewReader(c.port, c.tmcc.Feed)
	}

	if c.cfg.Proxy.Port > 0 {
		srv, err := proxy.Listen(c.cfg.Proxy.Port, c.queue, c.log)
		if err != nil {
			c.teardownCore()
			return nil, err
		}
		c.proxySrv = srv
	}

	if c.cfg.Base3.Addr != "" {
		if err := c.connectBase3(); err != nil {
			c.log.Warn().Err(err).Str("addr", c.cfg.Base3.Addr).Msg("base3 unavailable, continuing without PDI feed")
		}
	}
	return c, nil
}

// connectBase3 streams PDI bytes from the network-attached command base
// into the PDI assembler.
func (c *Context) connectBase3() error {
	conn, err := net.Dial("tcp", c.cfg.Base3.Addr)
	if err != nil {
		return fmt.Errorf("base3 dial failed: %w", err)
	}
	c.base3Conn = conn
	c.base3Stop = make(chan struct{})
	c.base3WG.Add(1)
	go func() {
		defer c.base3WG.Done()
		buf := make([]byte, 512)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				c.pdi.Feed(buf[:n])
			}
			if err != nil {
				select {
				case <-c.base3Stop:
				default:
					c.log.Warn().Err(err).Msg("base3 stream closed")
				}
				return
			}
		}
	}()
	return nil
}

func (c *Context) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }
func (c *Context) Queue() *txq.Queue                { return c.queue }
func (c *Context) Store() *state.Store              { return c.store }
func (c *Context) Config() config.Config            { return c.cfg }

// TMCCFeed exposes the inbound TMCC byte path for non-serial sources.
func (c *Context) TMCCFeed(b []byte) { c.tmcc.Feed(b) }

// PDIFeed exposes the inbound PDI byte path for non-serial sources.
func (c *Context) PDIFeed(b []byte) { c.pdi.Feed(b) }

// Send routes an encoded command out: the local queue in server mode,
// the remote relay in client mode.
func (c *Context) Send(req *protocol.Request) error {
	if c.client != nil {
		return c.client.Send(req.Bytes())
	}
	return c.queue.Enqueue(req.Bytes())
}

// SendWait is Send plus blocking until the write has happened. Client
// mode is already synchronous.
func (c *Context) SendWait(req *protocol.Request) error {
	if c.client != nil {
		return c.client.Send(req.Bytes())
	}
	return c.queue.EnqueueWait(req.Bytes())
}

// Shutdown tears the context down in dependency order: stop accepting
// input, then drain the pipeline, then release the port.
func (c *Context) Shutdown(immediate bool) {
	if c.client != nil {
		return
	}
	if c.proxySrv != nil {
		c.proxySrv.Shutdown()
	}
	if c.base3Conn != nil {
		close(c.base3Stop)
		_ = c.base3Conn.Close()
		c.base3WG.Wait()
	}
	if c.reader != nil {
		c.reader.Stop()
	}
	c.tmcc.Stop()
	c.pdi.Stop()
	c.dispatcher.Shutdown()
	c.queue.Shutdown(immediate)
	if c.port != nil {
		_ = c.port.Close()
	}
}

func (c *Context) teardownCore() {
	c.tmcc.Stop()
	c.pdi.Stop()
	c.dispatcher.Shutdown()
	c.queue.Shutdown(true)
}
