package tracking

import (
	"context"
	"net"
	"sync"

	"arzone/lib/osc"
	"arzone/lib/switchboard"
)

// Client sends events to a Server. It is what a tracker bridge or a test
// harness uses.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Send(ev switchboard.Event) error {
	addr, args := Encode(ev)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write(osc.Message(addr, args...))
	return err
}
