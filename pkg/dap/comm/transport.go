package comm

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Port is the byte channel underneath a Transport.
// go.bug.st/serial.Port satisfies it. A Read returning (0, nil) means
// the read timeout expired without any data.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Transport provides exact-length reads and checked writes over a Port.
// It owns the Port.
type Transport struct {
	Name string

	port      Port
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewTransport wraps an opened Port.
func NewTransport(name string, port Port) *Transport {
	return &Transport{Name: name, port: port}
}

// WriteBytes writes the whole buffer.
func (t *Transport) WriteBytes(b []byte) (int, error) {
	if t.closed.Load() {
		return 0, NewError(TransportError, "write", ErrClosed)
	}
	n, err := t.port.Write(b)
	if err != nil {
		if t.closed.Load() {
			err = ErrClosed
		}
		return n, NewError(TransportError, "write", err)
	}
	if n != len(b) {
		return n, Errorf(TransportError, "write", "wrote %d of %d bytes", n, len(b))
	}
	if glog.V(2) {
		glog.Infof("%s TX % X", t.Name, b)
	}
	return n, nil
}

// ReadExact blocks until n bytes arrive or timeout elapses.
// It never returns a partial buffer with a nil error.
func (t *Transport) ReadExact(n int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, n)
	deadline := time.Now().Add(timeout)
	for got := 0; got < n; {
		if t.closed.Load() {
			return nil, NewError(TransportError, "read", ErrClosed)
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if glog.V(2) {
				glog.Infof("%s RX short %d/%d % X", t.Name, got, n, buf[:got])
			}
			return nil, &Error{
				Kind: TransportError,
				Op:   "read",
				Msg:  fmt.Sprintf("received %d of %d bytes", got, n),
				Err:  ErrShortRead,
			}
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return nil, t.readError(err)
		}
		k, err := t.port.Read(buf[got:])
		got += k
		if err != nil {
			return nil, t.readError(err)
		}
	}
	if glog.V(2) {
		glog.Infof("%s RX % X", t.Name, buf)
	}
	return buf, nil
}

// Close releases the Port. It is safe to call more than once and from
// another goroutine; a blocked ReadExact then fails with ErrClosed.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.port.Close()
		if t.closeErr != nil {
			glog.Warningf("%s close: %v", t.Name, t.closeErr)
		}
	})
	return t.closeErr
}

// Closed indicates Close has been called.
func (t *Transport) Closed() bool {
	return t.closed.Load()
}

func (t *Transport) readError(err error) error {
	if t.closed.Load() {
		err = ErrClosed
	}
	return NewError(TransportError, "read", err)
}
