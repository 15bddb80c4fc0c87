package sim

import (
	"sync"
	"time"

	"github.com/robotalks/dap.go/pkg/dap/comm"
)

// Registers is a plain register file: every offset reads back the last
// value written to it, or zero.
type Registers struct {
	lock sync.Mutex
	regs map[uint32]uint32
}

// NewRegisters creates an empty register file.
func NewRegisters() *Registers {
	return &Registers{regs: make(map[uint32]uint32)}
}

// Read implements Module.
func (r *Registers) Read(offset uint32) uint32 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.regs[offset]
}

// Write implements Module.
func (r *Registers) Write(offset uint32, value uint32) []byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.regs[offset] = value
	return nil
}

// Basic I/O register offsets.
const (
	BasicIOCreationDate uint32 = 0
	BasicIOBuildDate    uint32 = 1
	BasicIOMicroTime    uint32 = 2
	BasicIOLEDs         uint32 = 3
	BasicIOLD4          uint32 = 4
	BasicIOLD5          uint32 = 5
	BasicIOSwitches     uint32 = 6
)

// BasicIO simulates firmware module 0 of the PYNQ-Z2 build.
type BasicIO struct {
	CreationDate uint32
	BuildDate    uint32
	// Switches holds SW1, SW0, BTN3..BTN0 in bits 5:0.
	Switches uint32
	// Now is the clock behind the microsecond timer.
	Now func() time.Time

	lock  sync.Mutex
	start time.Time
	leds  uint32
	ld4   uint32
	ld5   uint32
}

// NewBasicIO creates a BasicIO with fixed dates.
func NewBasicIO() *BasicIO {
	return &BasicIO{
		CreationDate: 0x25081612,
		BuildDate:    0x25082309,
		Now:          time.Now,
		start:        time.Now(),
	}
}

// Read implements Module.
func (b *BasicIO) Read(offset uint32) uint32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	switch offset {
	case BasicIOCreationDate:
		return b.CreationDate
	case BasicIOBuildDate:
		return b.BuildDate
	case BasicIOMicroTime:
		return uint32(b.Now().Sub(b.start)/time.Microsecond) & (1<<26 - 1)
	case BasicIOLEDs:
		return b.leds
	case BasicIOLD4:
		return b.ld4
	case BasicIOLD5:
		return b.ld5
	case BasicIOSwitches:
		return b.Switches & 0x3f
	}
	return 0
}

// Write implements Module. Only the implemented bits are kept.
func (b *BasicIO) Write(offset uint32, value uint32) []byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	switch offset {
	case BasicIOLEDs:
		b.leds = value & 0xf
	case BasicIOLD4:
		b.ld4 = value & 0x7
	case BasicIOLD5:
		b.ld5 = value & 0x7
	}
	return nil
}

// Debug Capture Module register offsets.
const (
	CaptureControl uint32 = 0x800000
	CaptureLength  uint32 = 0x800001
	CaptureSize    uint32 = 0x800002
	CaptureDec0    uint32 = 0x800003

	CapturePorts = 6

	CaptureControlClear uint32 = 1 << 0
	CaptureControlDump  uint32 = 1 << 1

	// DefaultCaptureSize is the buffer capacity in words (1<<ADDR_WIDTH).
	DefaultCaptureSize = 1 << 16

	decimationDiscard = 0xffff
)

// CaptureModule simulates the Debug Capture Module (firmware module 1).
type CaptureModule struct {
	lock       sync.Mutex
	size       int
	buf        []uint32
	decimation [CapturePorts]uint32
}

// NewCaptureModule creates an empty capture buffer of size words with
// every telemetry port discarding packets.
func NewCaptureModule(size int) *CaptureModule {
	m := &CaptureModule{size: size}
	for i := range m.decimation {
		m.decimation[i] = decimationDiscard
	}
	return m
}

// Append adds words to the buffer as telemetry packets would.
// Words beyond the capacity are discarded.
func (m *CaptureModule) Append(words ...uint32) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if room := m.size - len(m.buf); len(words) > room {
		words = words[:room]
	}
	m.buf = append(m.buf, words...)
}

// Words returns a copy of the buffer.
func (m *CaptureModule) Words() []uint32 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]uint32(nil), m.buf...)
}

// Read implements Module.
func (m *CaptureModule) Read(offset uint32) uint32 {
	m.lock.Lock()
	defer m.lock.Unlock()
	switch {
	case offset < uint32(m.size):
		if int(offset) < len(m.buf) {
			return m.buf[offset]
		}
		return 0
	case offset == CaptureControl:
		// dump and clear complete immediately.
		return 0
	case offset == CaptureLength:
		return uint32(len(m.buf))
	case offset == CaptureSize:
		return uint32(m.size)
	case offset >= CaptureDec0 && offset < CaptureDec0+CapturePorts:
		return m.decimation[offset-CaptureDec0]
	}
	return 0
}

// Write implements Module. Setting the dump bit latches the length and
// returns the dump stream; the clear bit empties the buffer afterwards.
func (m *CaptureModule) Write(offset uint32, value uint32) []byte {
	m.lock.Lock()
	defer m.lock.Unlock()
	switch {
	case offset == CaptureControl:
		var stream []byte
		if value&CaptureControlDump != 0 {
			stream = comm.EncodeDump(m.buf)
		}
		if value&CaptureControlClear != 0 {
			m.buf = nil
		}
		return stream
	case offset >= CaptureDec0 && offset < CaptureDec0+CapturePorts:
		m.decimation[offset-CaptureDec0] = value & 0xffff
	}
	return nil
}
