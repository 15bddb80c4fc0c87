// Package sim simulates the PL firmware side of the DAP protocol.
package sim

import (
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dap.go/pkg/dap/comm"
)

// Module is a firmware module behind the DAP.
type Module interface {
	// Read returns the register value at offset.
	Read(offset uint32) uint32
	// Write stores value at offset. Returned bytes are streamed back to
	// the host verbatim, which is how a dump is emitted.
	Write(offset uint32, value uint32) []byte
}

// Device is an in-memory DAP endpoint implementing comm.Port.
type Device struct {
	// Corrupt, if set, may rewrite every chunk sent to the host.
	Corrupt func([]byte) []byte
	// Mute drops all replies, so reads time out.
	Mute bool

	lock        sync.Mutex
	modules     map[uint8]Module
	parser      comm.Parser
	out         []byte
	readTimeout time.Duration
	notifyCh    chan struct{}
	closeCh     chan struct{}
	closed      bool
	commands    []comm.Command
	dropped     int
}

// NewDevice creates a Device without modules.
func NewDevice() *Device {
	return &Device{
		modules:     make(map[uint8]Module),
		readTimeout: comm.DefaultTimeout,
		notifyCh:    make(chan struct{}, 1),
		closeCh:     make(chan struct{}),
	}
}

// NewBoard creates a Device populated like the PYNQ-Z2 build:
// Basic I/O as module 0 and the Debug Capture Module as module 1.
func NewBoard() *Device {
	return NewDevice().
		Attach(0, NewBasicIO()).
		Attach(1, NewCaptureModule(DefaultCaptureSize))
}

// Attach installs a module under id.
func (d *Device) Attach(id uint8, m Module) *Device {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.modules[id] = m
	return d
}

// Module returns the module installed under id.
func (d *Device) Module(id uint8) Module {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.modules[id]
}

// Commands returns all commands received so far.
func (d *Device) Commands() []comm.Command {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]comm.Command(nil), d.commands...)
}

// Dropped counts packets discarded because of a bad checksum.
func (d *Device) Dropped() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.dropped
}

// Send queues bytes to the host as if the firmware emitted them.
func (d *Device) Send(b []byte) {
	d.lock.Lock()
	d.sendLocked(b)
	d.lock.Unlock()
}

// Write implements comm.Port.
func (d *Device) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	for _, b := range p {
		pr := d.parser.Parse(b)
		if pr.Err != nil {
			d.dropped++
			glog.Warningf("sim: %v", pr.Err)
		}
		if pr.Command != nil {
			d.execute(*pr.Command)
		}
	}
	return len(p), nil
}

// Read implements comm.Port. It waits up to the read timeout and
// returns (0, nil) if nothing arrived.
func (d *Device) Read(p []byte) (int, error) {
	d.lock.Lock()
	timeout := d.readTimeout
	d.lock.Unlock()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		d.lock.Lock()
		if d.closed {
			d.lock.Unlock()
			return 0, io.ErrClosedPipe
		}
		if len(d.out) > 0 {
			n := copy(p, d.out)
			d.out = d.out[n:]
			d.lock.Unlock()
			return n, nil
		}
		d.lock.Unlock()
		select {
		case <-d.notifyCh:
		case <-d.closeCh:
		case <-timer.C:
			return 0, nil
		}
	}
}

// SetReadTimeout implements comm.Port.
func (d *Device) SetReadTimeout(t time.Duration) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.readTimeout = t
	return nil
}

// Close implements comm.Port.
func (d *Device) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.closed {
		d.closed = true
		close(d.closeCh)
	}
	return nil
}

func (d *Device) execute(cmd comm.Command) {
	d.commands = append(d.commands, cmd)
	m := d.modules[cmd.Address.Module]
	switch cmd.Op {
	case comm.OpRead:
		var v uint32
		if m != nil {
			v = m.Read(cmd.Address.Offset)
		}
		d.sendLocked(comm.EncodeResponse(v))
	case comm.OpWrite:
		if m != nil {
			if stream := m.Write(cmd.Address.Offset, cmd.Data); len(stream) > 0 {
				d.sendLocked(stream)
			}
		}
	}
}

func (d *Device) sendLocked(b []byte) {
	if d.Mute {
		return
	}
	if fn := d.Corrupt; fn != nil {
		b = fn(append([]byte(nil), b...))
	}
	d.out = append(d.out, b...)
	select {
	case d.notifyCh <- struct{}{}:
	default:
	}
}
