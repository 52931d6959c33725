package proxy

import (
	"fmt"
	"net"
	"time"
)

// Client redirects Send to a remote relay instead of the local outbound
// queue. Each Send is one connection: write, collect the ack, close so
// the server flushes the stream to its queue.
type Client struct {
	addr    string
	timeout time.Duration
}

func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{addr: addr, timeout: timeout}
}

// Send relays one encoded byte group to the remote server.
func (c *Client) Send(b []byte) error {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return fmt.Errorf("proxy dial failed: %w", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.timeout))
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("proxy write failed: %w", err)
	}

	ack := make([]byte, len(Ack))
	if _, err := conn.Read(ack); err != nil {
		return fmt.Errorf("proxy ack read failed: %w", err)
	}
	if string(ack) != string(Ack) {
		return fmt.Errorf("proxy bad ack %q", ack)
	}
	return nil
}
