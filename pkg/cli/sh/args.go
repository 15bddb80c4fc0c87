package sh

import (
	"strconv"

	"github.com/robotalks/dap.go/pkg/dap/comm"
)

// CheckArgs validates the number of arguments.
func CheckArgs(args []string, min, max int, usage string) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return comm.Errorf(comm.ValidationError, "args", "usage: %s", usage)
	}
	return nil
}

// ParseUint parses a decimal, 0x hex, 0o octal or 0b binary number
// no greater than max.
func ParseUint(s string, max uint64, what string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil || v > max {
		return 0, comm.Errorf(comm.ValidationError, "args", "%s %q must be in 0..%d", what, s, max)
	}
	return v, nil
}

// ParseAddress parses a module and an offset.
func ParseAddress(module, offset string) (uint8, uint32, error) {
	m, err := ParseUint(module, comm.MaxModule, "module")
	if err != nil {
		return 0, 0, err
	}
	off, err := ParseUint(offset, comm.MaxOffset, "offset")
	if err != nil {
		return 0, 0, err
	}
	return uint8(m), uint32(off), nil
}

// ParseData parses a 32-bit data word, signed or unsigned.
func ParseData(s string) (uint32, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, comm.Errorf(comm.ValidationError, "args", "invalid data %q", s)
	}
	return comm.DataWord(v)
}
