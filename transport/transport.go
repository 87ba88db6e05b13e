// Package transport provides byte-exact reads over a stream connection.
//
// A single goroutine drains the connection into an internal buffer. Reads
// for a fixed number of bytes are served straight from the buffer when enough
// data is available, otherwise they queue up and are satisfied in FIFO order
// as data arrives. A prioritized read is queued ahead of the others, and a
// partial read stops the delivery round it was satisfied in.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

var ErrClosed = errors.New("transport closed")

const readChunk = 16 * 1024

type pendingRead struct {
	n       int
	partial bool
	ch      chan []byte
}

// ReadOption tunes a single Read.
type ReadOption func(*pendingRead, *bool)

// Partial marks a read after which no further queued reads are served from
// the same incoming chunk.
func Partial() ReadOption {
	return func(r *pendingRead, _ *bool) { r.partial = true }
}

// Prioritized queues the read ahead of every other waiting read.
func Prioritized() ReadOption {
	return func(_ *pendingRead, front *bool) { *front = true }
}

type Transport struct {
	conn net.Conn
	log  *log.Logger

	mu      sync.Mutex
	buf     []byte
	readers []*pendingRead
	err     error

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// Dial connects to addr and starts the read loop.
func Dial(ctx context.Context, addr string, logger *log.Logger) (*Transport, error) {
	d := net.Dialer{KeepAlive: 30 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	t := New(conn, logger)
	t.log.Printf("connected to %s", addr)
	return t, nil
}

// New wraps an established connection and starts the read loop.
func New(conn net.Conn, logger *log.Logger) *Transport {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	t := &Transport{
		conn: conn,
		log:  logger,
		done: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	chunk := make([]byte, readChunk)
	for {
		n, err := t.conn.Read(chunk)
		if n > 0 {
			t.mu.Lock()
			t.buf = append(t.buf, chunk[:n]...)
			t.deliverLocked()
			t.mu.Unlock()
		}
		if err != nil {
			t.shutdown(err)
			return
		}
	}
}

func (t *Transport) deliverLocked() {
	for len(t.readers) > 0 {
		r := t.readers[0]
		data, ok := t.takeLocked(r.n)
		if !ok {
			return
		}
		t.readers = t.readers[1:]
		r.ch <- data
		if r.partial {
			return
		}
	}
}

func (t *Transport) takeLocked(n int) ([]byte, bool) {
	if len(t.buf) < n {
		return nil, false
	}
	data := make([]byte, n)
	copy(data, t.buf)
	t.buf = t.buf[n:]
	return data, true
}

// Read returns exactly n bytes. It blocks until they are available, the
// transport fails or ctx is done.
func (t *Transport) Read(ctx context.Context, n int, opts ...ReadOption) ([]byte, error) {
	r := &pendingRead{n: n, ch: make(chan []byte, 1)}
	front := false
	for _, opt := range opts {
		opt(r, &front)
	}

	t.mu.Lock()
	if data, ok := t.takeLocked(n); ok {
		t.mu.Unlock()
		return data, nil
	}
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return nil, err
	}
	if front {
		t.readers = append([]*pendingRead{r}, t.readers...)
	} else {
		t.readers = append(t.readers, r)
	}
	t.mu.Unlock()

	select {
	case data := <-r.ch:
		return data, nil
	case <-t.done:
		select {
		case data := <-r.ch:
			return data, nil
		default:
		}
		return nil, t.Err()
	case <-ctx.Done():
		if t.cancel(r) {
			return nil, ctx.Err()
		}
		// Either delivered while we were cancelling, in which case the
		// bytes are already off the buffer and must not be lost, or
		// dropped by a concurrent shutdown.
		select {
		case data := <-r.ch:
			return data, nil
		case <-t.done:
			select {
			case data := <-r.ch:
				return data, nil
			default:
			}
			return nil, t.Err()
		}
	}
}

func (t *Transport) cancel(r *pendingRead) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, p := range t.readers {
		if p == r {
			t.readers = append(t.readers[:i], t.readers[i+1:]...)
			return true
		}
	}
	return false
}

// Write sends p in full. Concurrent writes do not interleave.
func (t *Transport) Write(p []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.Err(); err != nil {
		return err
	}
	if _, err := t.conn.Write(p); err != nil {
		return fmt.Errorf("writing %d bytes: %w", len(p), err)
	}
	return nil
}

// Done is closed once the transport has failed or been closed.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err reports why the transport stopped, or nil while it is running.
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close tears down the connection. Pending reads fail with ErrClosed.
func (t *Transport) Close() error {
	t.shutdown(ErrClosed)
	return t.conn.Close()
}

func (t *Transport) shutdown(cause error) {
	t.once.Do(func() {
		t.mu.Lock()
		if errors.Is(cause, ErrClosed) || errors.Is(cause, net.ErrClosed) {
			t.err = ErrClosed
		} else {
			t.err = fmt.Errorf("%w: %w", ErrClosed, cause)
		}
		t.readers = nil
		t.mu.Unlock()
		close(t.done)
		t.log.Printf("connection closed: %v", cause)
	})
}
