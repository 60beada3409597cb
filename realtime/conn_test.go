package realtime

import (
	"encoding/json"
	"errors"
	"sync"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   []Message
	failing  bool
	closed   bool
	incoming chan []byte
	done     chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case raw := <-c.incoming:
		return 1, raw, nil
	case <-c.done:
		return 0, nil, errors.New("closed")
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing || c.closed {
		return errors.New("broken pipe")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.frames = append(c.frames, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *fakeConn) setFailing() {
	c.mu.Lock()
	c.failing = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) last() Message {
	frames := c.sent()
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1]
}

func (c *fakeConn) types() []string {
	var out []string
	for _, f := range c.sent() {
		out = append(out, f.String("type"))
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}
