package comm

import (
	"encoding/binary"
	"math"
)

// Packet framing constants.
const (
	CommandHeader  byte = 0xC0
	ResponseHeader byte = 0xC1

	WritePacketSize    = 10
	ReadPacketSize     = 6
	ResponsePacketSize = 6

	// MaxModule is the largest module id (7 bits).
	MaxModule = 0x7f
	// MaxOffset is the largest register offset (24 bits).
	MaxOffset = 0x00ffffff

	opReadBit = uint32(1) << 31
)

// Op is the command opcode carried in bit 31 of the command word.
type Op byte

// Opcodes.
const (
	OpWrite Op = 0
	OpRead  Op = 1
)

// String implements fmt.Stringer.
func (o Op) String() string {
	if o == OpRead {
		return "read"
	}
	return "write"
}

// Address identifies a 32-bit register.
type Address struct {
	Module uint8
	Offset uint32
}

// Validate checks the module and offset ranges.
func (a Address) Validate() error {
	if a.Module > MaxModule {
		return Errorf(ValidationError, "encode", "module %d out of range 0..%d", a.Module, MaxModule)
	}
	if a.Offset > MaxOffset {
		return Errorf(ValidationError, "encode", "offset 0x%X out of range 0..0x%06X", a.Offset, MaxOffset)
	}
	return nil
}

// CommandWord builds the 32-bit command word for op at a.
// The address is not validated.
func (a Address) CommandWord(op Op) uint32 {
	w := uint32(a.Module)<<24 | a.Offset&MaxOffset
	if op == OpRead {
		w |= opReadBit
	}
	return w
}

// ParseCommandWord splits a command word into opcode and address.
func ParseCommandWord(w uint32) (Op, Address) {
	op := OpWrite
	if w&opReadBit != 0 {
		op = OpRead
	}
	return op, Address{Module: uint8(w>>24) & MaxModule, Offset: w & MaxOffset}
}

// Checksum computes the packet checksum of the given words:
// the complement of the XOR of all their bytes.
func Checksum(words ...uint32) byte {
	var x uint32
	for _, w := range words {
		x ^= w
	}
	return ^byte(x ^ x>>8 ^ x>>16 ^ x>>24)
}

// DataWord converts a signed or unsigned value into a data word.
// Values in -2^31..2^32-1 are accepted and truncated to 32 bits.
func DataWord(v int64) (uint32, error) {
	if v < math.MinInt32 || v > math.MaxUint32 {
		return 0, Errorf(ValidationError, "encode", "data %d out of range %d..%d", v, math.MinInt32, uint32(math.MaxUint32))
	}
	return uint32(v), nil
}

// EncodeWrite builds a write command packet.
func EncodeWrite(module uint8, offset uint32, data uint32) ([]byte, error) {
	addr := Address{Module: module, Offset: offset}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	cmd := addr.CommandWord(OpWrite)
	b := make([]byte, WritePacketSize)
	b[0] = CommandHeader
	binary.LittleEndian.PutUint32(b[1:5], cmd)
	binary.LittleEndian.PutUint32(b[5:9], data)
	b[9] = Checksum(cmd, data)
	return b, nil
}

// EncodeRead builds a read command packet.
func EncodeRead(module uint8, offset uint32) ([]byte, error) {
	addr := Address{Module: module, Offset: offset}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	cmd := addr.CommandWord(OpRead)
	b := make([]byte, ReadPacketSize)
	b[0] = CommandHeader
	binary.LittleEndian.PutUint32(b[1:5], cmd)
	b[5] = Checksum(cmd)
	return b, nil
}

// EncodeResponse builds a response packet, as sent by the firmware.
func EncodeResponse(data uint32) []byte {
	b := make([]byte, ResponsePacketSize)
	b[0] = ResponseHeader
	binary.LittleEndian.PutUint32(b[1:5], data)
	b[5] = Checksum(data)
	return b
}

// DecodeResponse validates a response packet and extracts the data word.
func DecodeResponse(b []byte) (uint32, error) {
	if len(b) != ResponsePacketSize {
		return 0, Errorf(ProtocolError, "decode", "response should be %d bytes but was %d", ResponsePacketSize, len(b))
	}
	if b[0] != ResponseHeader {
		return 0, Errorf(ProtocolError, "decode", "invalid header byte 0x%02X", b[0])
	}
	data := binary.LittleEndian.Uint32(b[1:5])
	if sum := Checksum(data); b[5] != sum {
		return 0, Errorf(ChecksumError, "decode", "expected 0x%02X but got 0x%02X", sum, b[5])
	}
	return data, nil
}
