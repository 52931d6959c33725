// Package serialport owns the physical SER2 link.
//
// The opened port is shared by exactly two goroutines: the outbound
// queue worker writes, the reader loop reads. Distinct directions, no
// race.
package serialport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/serial"
	"github.com/rs/zerolog"
)

const readBufSize = 512

// Config selects the device and line parameters.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// Port wraps the opened serial device.
type Port struct {
	port serial.Port
	log  zerolog.Logger
}

// Open opens the device 8N1 at the configured baud rate.
func Open(cfg Config, log zerolog.Logger) (*Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serialport: device required")
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 250 * time.Millisecond
	}
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serialport open %s: %w", cfg.Device, err)
	}
	return &Port{port: port, log: log.With().Str("component", "serial").Logger()}, nil
}

// Write satisfies io.Writer for the outbound queue worker.
func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *Port) Close() error {
	return p.port.Close()
}

// Reader pumps inbound bytes into sink until Stop. Read timeouts are
// the idle heartbeat, not errors.
type Reader struct {
	port *Port
	sink func([]byte)

	done chan struct{}
	wg   sync.WaitGroup
}

func NewReader(port *Port, sink func([]byte)) *Reader {
	r := &Reader{port: port, sink: sink, done: make(chan struct{})}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *Reader) Stop() {
	close(r.done)
	r.wg.Wait()
}

func (r *Reader) run() {
	defer r.wg.Done()
	buf := make([]byte, readBufSize)
	for {
		select {
		case <-r.done:
			return
		default:
		}
		n, err := r.port.port.Read(buf)
		if n > 0 {
			r.sink(buf[:n])
		}
		if err != nil && !errors.Is(err, serial.ErrTimeout) {
			// Transient serial faults are expected; keep reading.
			r.port.log.Warn().Err(err).Msg("serial read failed")
			time.Sleep(100 * time.Millisecond)
		}
	}
}
