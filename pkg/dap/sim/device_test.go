package sim

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dap.go/pkg/dap/comm"
)

func newLoopback() (*Device, *comm.Session) {
	dev := NewDevice()
	for m := 0; m <= comm.MaxModule; m++ {
		dev.Attach(uint8(m), NewRegisters())
	}
	return dev, comm.NewSession(dev, comm.WithName("sim"), comm.WithTimeout(200*time.Millisecond))
}

func TestLoopback(t *testing.T) {
	_, s := newLoopback()
	defer s.Close()

	rnd := rand.New(rand.NewSource(1))
	modules := []uint8{0, 1, 63, 64, 126, 127}
	offsets := []uint32{0, 1, 0x7fffff, 0x800000, 0xfffffe, 0xffffff}
	data := []uint32{0, 1, 0x7fffffff, 0x80000000, 0xfffffffe, 0xffffffff}
	for i := 0; i < 64; i++ {
		modules = append(modules, uint8(rnd.Intn(comm.MaxModule+1)))
		offsets = append(offsets, uint32(rnd.Intn(comm.MaxOffset+1)))
		data = append(data, rnd.Uint32())
	}
	for i := range modules {
		m, off, v := modules[i], offsets[i%len(offsets)], data[(i*7)%len(data)]
		require.NoError(t, s.WriteRegister(m, off, v))
		got, err := s.ReadRegister(m, off)
		require.NoError(t, err)
		require.Equalf(t, v, got, "module %d offset 0x%06X", m, off)
	}
}

func TestDeviceScenario(t *testing.T) {
	dev := NewBoard()
	s := comm.NewSession(dev)
	defer s.Close()

	require.NoError(t, s.WriteRegister(0, 3, 5))
	v, err := s.ReadRegister(0, 3)
	require.NoError(t, err)
	require.Equal(t, uint32(5), v)

	cmds := dev.Commands()
	require.Len(t, cmds, 2)
	require.Equal(t, comm.Command{Op: comm.OpWrite, Address: comm.Address{Module: 0, Offset: 3}, Data: 5}, cmds[0])
	require.Equal(t, comm.OpRead, cmds[1].Op)
}

func TestDeviceUnknownModule(t *testing.T) {
	dev := NewDevice()
	s := comm.NewSession(dev)
	defer s.Close()
	require.NoError(t, s.WriteRegister(9, 0, 1))
	v, err := s.ReadRegister(9, 0)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestDeviceCorrupt(t *testing.T) {
	dev := NewBoard()
	s := comm.NewSession(dev)
	defer s.Close()

	dev.Corrupt = func(b []byte) []byte {
		b[0] = 0xC2
		return b
	}
	_, err := s.ReadRegister(0, 0)
	require.Equal(t, comm.ProtocolError, comm.KindOf(err))

	dev.Corrupt = func(b []byte) []byte {
		b[len(b)-1] ^= 0x10
		return b
	}
	_, err = s.ReadRegister(0, 0)
	require.Equal(t, comm.ChecksumError, comm.KindOf(err))
}

func TestDeviceDroppedCommand(t *testing.T) {
	dev := NewBoard()
	pkt, err := comm.EncodeWrite(0, BasicIOLEDs, 0xf)
	require.NoError(t, err)
	pkt[9] ^= 0xff
	_, err = dev.Write(pkt)
	require.NoError(t, err)
	require.Equal(t, 1, dev.Dropped())
	require.Zero(t, dev.Module(0).Read(BasicIOLEDs))
}

func TestDeviceMute(t *testing.T) {
	dev := NewBoard()
	dev.Mute = true
	s := comm.NewSession(dev, comm.WithTimeout(30*time.Millisecond))
	defer s.Close()
	_, err := s.ReadRegister(0, 0)
	require.True(t, errors.Is(err, comm.ErrShortRead))
}

func TestDeviceCloseUnblocks(t *testing.T) {
	dev := NewBoard()
	dev.Mute = true
	s := comm.NewSession(dev, comm.WithTimeout(5*time.Second))
	errCh := make(chan error, 1)
	go func() {
		_, err := s.ReadRegister(0, 0)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Close())
	select {
	case err := <-errCh:
		require.Equal(t, comm.TransportError, comm.KindOf(err))
		require.True(t, errors.Is(err, comm.ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("read not released")
	}
}

func TestCaptureDump(t *testing.T) {
	dev := NewBoard()
	s := comm.NewSession(dev)
	defer s.Close()
	capture := dev.Module(1).(*CaptureModule)
	capture.Append(0x04000010, 1, 2, 3)

	n, err := s.ReadRegister(1, CaptureLength)
	require.NoError(t, err)
	require.Equal(t, uint32(4), n)

	require.NoError(t, s.WriteRegister(1, CaptureControl, CaptureControlDump))
	words, err := s.ReadDump(comm.DefaultMaxDumpWords)
	require.NoError(t, err)
	require.Equal(t, []uint32{0x04000010, 1, 2, 3}, words)

	require.NoError(t, s.WriteRegister(1, CaptureControl, CaptureControlClear))
	require.NoError(t, s.WriteRegister(1, CaptureControl, CaptureControlDump))
	words, err = s.ReadDump(comm.DefaultMaxDumpWords)
	require.NoError(t, err)
	require.Empty(t, words)
}

func TestCaptureRegisters(t *testing.T) {
	m := NewCaptureModule(4)
	m.Append(1, 2, 3, 4, 5)
	require.Equal(t, []uint32{1, 2, 3, 4}, m.Words())
	require.Equal(t, uint32(4), m.Read(CaptureSize))
	require.Equal(t, uint32(3), m.Read(2))
	for p := uint32(0); p < CapturePorts; p++ {
		require.Equal(t, uint32(0xffff), m.Read(CaptureDec0+p))
	}
	m.Write(CaptureDec0+2, 0x10009)
	require.Equal(t, uint32(9), m.Read(CaptureDec0+2))
}

func TestBasicIO(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBasicIO()
	b.start = now
	b.Now = func() time.Time { return now.Add(3 * time.Second) }
	require.Equal(t, uint32(3000000), b.Read(BasicIOMicroTime))
	b.Write(BasicIOLEDs, 0xff)
	b.Write(BasicIOLD4, 0xff)
	require.Equal(t, uint32(0xf), b.Read(BasicIOLEDs))
	require.Equal(t, uint32(0x7), b.Read(BasicIOLD4))
	b.Switches = 0xff
	require.Equal(t, uint32(0x3f), b.Read(BasicIOSwitches))
}
