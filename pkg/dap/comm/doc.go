// Package comm provides the Debug Access Port (DAP) protocol support.
package comm

// The DAP protocol is spoken between the Zynq PL firmware and a host
// over a plain serial line (8N1). The host is always the initiator and
// only one command is outstanding at any time:
//
//	write command  C0 cmd[4] data[4] sum    (no reply)
//	read command   C0 cmd[4] sum            (reply: C1 data[4] sum)
//
// Multi-byte fields are little-endian. The command word carries the
// opcode in bit 31 (0=write, 1=read), the module id in bits 30:24 and
// the register offset in bits 23:0. The checksum is the complement of
// the XOR of all word bytes in the packet.
//
// After the Debug Capture Module is told to dump, the firmware streams
// a length word N, N data words and a checksum word such that all N+1
// words sum to 0xFFFFFFFF. The dump stream has no packet framing.
//
// There are no sequence numbers, so a command must not be sent before
// the reply to the previous read is fully consumed.
//
// Producer: PL firmware
// Consumer: host tools
