// Package dcm drives firmware module 1, the Debug Capture Module.
//
// The module appends telemetry packets from up to six ports to a 64K word
// buffer. Each packet begins with a word holding the packet type in bits
// 31:26 and a microsecond timestamp modulo 2^26 in bits 25:0. The host
// clears the buffer, sets per-port decimation and dumps the buffer over
// the debug serial port.
package dcm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/dap.go/pkg/dap/comm"
)

// Module is the firmware module identifier.
const Module uint8 = 1

// Register offsets. The buffer itself occupies 0..Size-1.
const (
	RegControl uint32 = 0x800000
	RegLength  uint32 = 0x800001
	RegSize    uint32 = 0x800002
	RegDec0    uint32 = 0x800003
)

// Control register bits.
const (
	ControlClear uint32 = 1 << 0
	ControlDump  uint32 = 1 << 1
)

const (
	// Ports is the number of telemetry ports.
	Ports = 6
	// MaxDecimation is the largest decimation value.
	MaxDecimation = 65535
)

// Session is the register and dump access DCM needs, usually a
// *comm.Session.
type Session interface {
	ReadRegister(module uint8, offset uint32) (uint32, error)
	WriteRegister(module uint8, offset uint32, data uint32) error
	ReadDump(maxWords int) ([]uint32, error)
	DumpLimit() int
}

// Status is a snapshot of the control registers.
type Status struct {
	Control    uint32        `json:"control"`
	Length     uint32        `json:"length"`
	Size       uint32        `json:"size"`
	Decimation [Ports]uint32 `json:"decimation"`
}

// DCM accesses module 1 through a borrowed Session.
type DCM struct {
	session Session
}

// New creates a DCM. It does not take ownership of s.
func New(s Session) *DCM {
	return &DCM{session: s}
}

func (m *DCM) read(reg uint32, name string) (uint32, error) {
	v, err := m.session.ReadRegister(Module, reg)
	if err != nil {
		return 0, fmt.Errorf("dcm: read %s: %w", name, err)
	}
	return v, nil
}

func (m *DCM) writeControl(bits uint32) error {
	if err := m.session.WriteRegister(Module, RegControl, bits); err != nil {
		return fmt.Errorf("dcm: write control: %w", err)
	}
	return nil
}

func validatePort(port int) error {
	if port < 0 || port >= Ports {
		return comm.Errorf(comm.ValidationError, "dcm", "telemetry port %d out of range 0..%d", port, Ports-1)
	}
	return nil
}

// Clear empties the buffer. A packet being appended completes first.
func (m *DCM) Clear() error {
	return m.writeControl(ControlClear)
}

// SetDecimation sets the decimation of a telemetry port: d:1 for d in
// 1..65535, or 0 to disable the port.
func (m *DCM) SetDecimation(port int, d uint32) error {
	if err := validatePort(port); err != nil {
		return err
	}
	if d > MaxDecimation {
		return comm.Errorf(comm.ValidationError, "dcm", "decimation %d out of range 0..%d", d, MaxDecimation)
	}
	if err := m.session.WriteRegister(Module, RegDec0+uint32(port), d); err != nil {
		return fmt.Errorf("dcm: write dec%d: %w", port, err)
	}
	return nil
}

// Decimation reads the decimation of a telemetry port.
func (m *DCM) Decimation(port int) (uint32, error) {
	if err := validatePort(port); err != nil {
		return 0, err
	}
	return m.read(RegDec0+uint32(port), fmt.Sprintf("dec%d", port))
}

// Control reads the control register.
func (m *DCM) Control() (uint32, error) {
	return m.read(RegControl, "control")
}

// Length reads the number of words in the buffer.
func (m *DCM) Length() (uint32, error) {
	return m.read(RegLength, "length")
}

// Size reads the buffer capacity in words.
func (m *DCM) Size() (uint32, error) {
	return m.read(RegSize, "size")
}

// Dump latches the buffer length and downloads that many words.
func (m *DCM) Dump() ([]uint32, error) {
	if err := m.writeControl(ControlDump); err != nil {
		return nil, err
	}
	words, err := m.session.ReadDump(m.session.DumpLimit())
	if err != nil {
		return nil, fmt.Errorf("dcm: %w", err)
	}
	return words, nil
}

// SaveDump dumps the buffer and writes it to path as raw little-endian
// words. The words are returned even when writing the file fails.
func (m *DCM) SaveDump(path string) ([]uint32, error) {
	words, err := m.Dump()
	if err != nil {
		return nil, err
	}
	if err := SaveWords(path, words); err != nil {
		return words, err
	}
	glog.V(1).Infof("saved %d words to %s", len(words), path)
	return words, nil
}

// Status reads all control registers.
func (m *DCM) Status() (st Status, err error) {
	if st.Control, err = m.Control(); err != nil {
		return
	}
	if st.Length, err = m.Length(); err != nil {
		return
	}
	if st.Size, err = m.Size(); err != nil {
		return
	}
	for i := range st.Decimation {
		if st.Decimation[i], err = m.Decimation(i); err != nil {
			return
		}
	}
	return
}

// PrintStatus reads and prints all control registers.
func (m *DCM) PrintStatus(w io.Writer) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	st.Print(w)
	return nil
}

// Print writes the status in the layout of the firmware tools.
func (st Status) Print(w io.Writer) {
	fmt.Fprintf(w, "Debug Capture Module (Firmware Module %d)\n", Module)
	fmt.Fprintf(w, "  control        =  0x%08X\n", st.Control)
	fmt.Fprintf(w, "                    bit 1: dump   =  %d\n", st.Control>>1&1)
	fmt.Fprintf(w, "                    bit 0: clear  =  %d\n", st.Control&1)
	fmt.Fprintf(w, "  length         =  %d 32-bit words\n", st.Length)
	fmt.Fprintf(w, "  size           =  %d 32-bit words\n", st.Size)
	for i, d := range st.Decimation {
		fmt.Fprintf(w, "  dec%d           =  %d  =  %s\n", i, d, DescribeDecimation(i, d))
	}
}

// DescribeDecimation explains a decimation register value.
func DescribeDecimation(port int, d uint32) string {
	switch d {
	case 0:
		return fmt.Sprintf("port %d is disabled", port)
	case 1:
		return fmt.Sprintf("port %d is not decimated", port)
	default:
		return fmt.Sprintf("port %d's decimation is %d:1", port, d)
	}
}

// PacketHeader splits the first word of a telemetry packet.
func PacketHeader(w uint32) (typ uint8, usTime uint32) {
	return uint8(w >> 26), w & (1<<26 - 1)
}

// WriteWords writes words as raw little-endian uint32 values.
func WriteWords(w io.Writer, words []uint32) error {
	return binary.Write(w, binary.LittleEndian, words)
}

// ReadWords reads raw little-endian uint32 values until EOF.
func ReadWords(r io.Reader) ([]uint32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("dcm: %d bytes is not a whole number of words", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return words, nil
}

// SaveWords writes words to the file at path, replacing it.
func SaveWords(path string, words []uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dcm: %w", err)
	}
	if err = WriteWords(f, words); err != nil {
		f.Close()
		return fmt.Errorf("dcm: write %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("dcm: close %s: %w", path, err)
	}
	return nil
}

// LoadWords reads a file written by SaveWords.
func LoadWords(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dcm: %w", err)
	}
	defer f.Close()
	return ReadWords(f)
}
