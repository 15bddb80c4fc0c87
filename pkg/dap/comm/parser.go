package comm

import "encoding/binary"

// Command is a decoded command packet.
type Command struct {
	Op      Op
	Address Address
	// Data is only meaningful for OpWrite.
	Data uint32
}

// Bytes returns the encoded packet.
func (c Command) Bytes() ([]byte, error) {
	if c.Op == OpRead {
		return EncodeRead(c.Address.Module, c.Address.Offset)
	}
	return EncodeWrite(c.Address.Module, c.Address.Offset, c.Data)
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Command is set when a complete packet with a valid checksum is parsed.
	Command *Command
	// Err is set when a complete packet is dropped.
	Err error
	// Skipped is true when the byte was discarded while hunting for a header.
	Skipped bool
}

type parseState int

const (
	stateHeader   parseState = iota // waiting for CommandHeader
	stateCmdWord                    // receiving 4 bytes of command word
	stateDataWord                   // receiving 4 bytes of data word (write only)
	stateChecksum                   // waiting for checksum byte
)

// Parser recovers commands from the byte stream a host sends.
// It is used on the device side, e.g. by the simulator.
// The zero value is ready to use.
type Parser struct {
	state parseState
	buf   [8]byte
	n     int
}

// Reset drops any partially received packet.
func (p *Parser) Reset() {
	p.state, p.n = stateHeader, 0
}

// Receiving indicates a packet is partially received.
func (p *Parser) Receiving() bool {
	return p.state != stateHeader
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateHeader:
		if b != CommandHeader {
			pr.Skipped = true
			return
		}
		p.state, p.n = stateCmdWord, 0
	case stateCmdWord:
		p.buf[p.n] = b
		if p.n++; p.n < 4 {
			return
		}
		if binary.LittleEndian.Uint32(p.buf[:4])&opReadBit != 0 {
			p.state = stateChecksum
		} else {
			p.state = stateDataWord
		}
	case stateDataWord:
		p.buf[p.n] = b
		if p.n++; p.n < 8 {
			return
		}
		p.state = stateChecksum
	case stateChecksum:
		return p.packetReady(b)
	}
	return
}

// ParseBytes consumes a buffer and returns all parsed commands.
// Dropped packets are reported through errs.
func (p *Parser) ParseBytes(data []byte) (cmds []Command, errs []error) {
	for _, b := range data {
		pr := p.Parse(b)
		if pr.Command != nil {
			cmds = append(cmds, *pr.Command)
		}
		if pr.Err != nil {
			errs = append(errs, pr.Err)
		}
	}
	return
}

func (p *Parser) packetReady(sum byte) (pr ParseResult) {
	p.state = stateHeader
	w := binary.LittleEndian.Uint32(p.buf[:4])
	op, addr := ParseCommandWord(w)
	cmd := &Command{Op: op, Address: addr}
	var expected byte
	if op == OpWrite {
		cmd.Data = binary.LittleEndian.Uint32(p.buf[4:8])
		expected = Checksum(w, cmd.Data)
	} else {
		expected = Checksum(w)
	}
	if sum != expected {
		pr.Err = Errorf(ChecksumError, "parse", "%s command expected 0x%02X but got 0x%02X", op, expected, sum)
		return
	}
	pr.Command = cmd
	return
}
