// Package basicio drives firmware module 0, the Basic I/O of the PYNQ-Z2
// build: firmware dates, a microsecond timer, the LEDs and the switches.
package basicio

import (
	"fmt"
	"io"
	"strconv"

	"github.com/robotalks/dap.go/pkg/dap/comm"
)

// Module is the firmware module identifier.
const Module uint8 = 0

// Register offsets.
const (
	RegCreationDate uint32 = iota
	RegBuildDate
	RegMicroTime
	RegLEDs
	RegLD4
	RegLD5
	RegSwitches
)

// Implemented bits.
const (
	LEDsMask     uint32 = 0xf
	RGBMask      uint32 = 0x7
	SwitchesMask uint32 = 0x3f

	// MicroTimeModulus is the wraparound of the microsecond timer.
	MicroTimeModulus = 1 << 26
)

var regNames = []string{
	"creationDate",
	"buildDate",
	"usTime",
	"leds",
	"LD4",
	"LD5",
	"sw",
}

// Registers is the register access BasicIO needs, usually a *comm.Session.
type Registers interface {
	ReadRegister(module uint8, offset uint32) (uint32, error)
	WriteRegister(module uint8, offset uint32, data uint32) error
}

// Switches is the sw register: SW1, SW0, BTN3..BTN0 in bits 5:0.
type Switches uint32

// Switch reports slide switch SW0 or SW1.
func (s Switches) Switch(n uint) bool {
	return n < 2 && s&(1<<(4+n)) != 0
}

// Button reports whether pushbutton BTN0..BTN3 is down.
func (s Switches) Button(n uint) bool {
	return n < 4 && s&(1<<n) != 0
}

// String implements fmt.Stringer.
func (s Switches) String() string {
	return fmt.Sprintf("0b%06b", uint32(s))
}

// Status is a snapshot of all registers.
type Status struct {
	CreationDate uint32   `json:"creation_date"`
	BuildDate    uint32   `json:"build_date"`
	MicroTime    uint32   `json:"us_time"`
	LEDs         uint32   `json:"leds"`
	LD4          uint32   `json:"ld4"`
	LD5          uint32   `json:"ld5"`
	Switches     Switches `json:"sw"`
}

// BasicIO accesses module 0 through a borrowed Registers.
type BasicIO struct {
	regs Registers
}

// New creates a BasicIO. It does not take ownership of regs.
func New(regs Registers) *BasicIO {
	return &BasicIO{regs: regs}
}

func (b *BasicIO) read(reg uint32) (uint32, error) {
	v, err := b.regs.ReadRegister(Module, reg)
	if err != nil {
		return 0, fmt.Errorf("basicio: read %s: %w", regNames[reg], err)
	}
	return v, nil
}

func (b *BasicIO) write(reg, mask, value uint32) error {
	if value&^mask != 0 {
		return comm.Errorf(comm.ValidationError, "write",
			"%s mask %d out of range 0..%d", regNames[reg], value, mask)
	}
	if err := b.regs.WriteRegister(Module, reg, value); err != nil {
		return fmt.Errorf("basicio: write %s: %w", regNames[reg], err)
	}
	return nil
}

// CreationDate reads the firmware creation date, 0xYYMMDDHH.
func (b *BasicIO) CreationDate() (uint32, error) {
	return b.read(RegCreationDate)
}

// BuildDate reads the firmware build date, 0xYYMMDDHH.
func (b *BasicIO) BuildDate() (uint32, error) {
	return b.read(RegBuildDate)
}

// MicroTime reads the current time in microseconds modulo 2^26.
func (b *BasicIO) MicroTime() (uint32, error) {
	return b.read(RegMicroTime)
}

// LEDs reads the LED0..LED3 enables.
func (b *BasicIO) LEDs() (uint32, error) {
	return b.read(RegLEDs)
}

// SetLEDs writes the LED0..LED3 enables, mask in 0..15.
func (b *BasicIO) SetLEDs(mask uint32) error {
	return b.write(RegLEDs, LEDsMask, mask)
}

// LD4 reads the red/green/blue enables of RGB LED LD4.
func (b *BasicIO) LD4() (uint32, error) {
	return b.read(RegLD4)
}

// SetLD4 writes the RGB enables of LD4, mask in 0..7.
func (b *BasicIO) SetLD4(mask uint32) error {
	return b.write(RegLD4, RGBMask, mask)
}

// LD5 reads the red/green/blue enables of RGB LED LD5.
func (b *BasicIO) LD5() (uint32, error) {
	return b.read(RegLD5)
}

// SetLD5 writes the RGB enables of LD5, mask in 0..7.
func (b *BasicIO) SetLD5(mask uint32) error {
	return b.write(RegLD5, RGBMask, mask)
}

// Switches reads the switches and pushbuttons.
func (b *BasicIO) Switches() (Switches, error) {
	v, err := b.read(RegSwitches)
	return Switches(v), err
}

// Status reads all registers in address order.
func (b *BasicIO) Status() (st Status, err error) {
	var vals [RegSwitches + 1]uint32
	for reg := range vals {
		if vals[reg], err = b.read(uint32(reg)); err != nil {
			return
		}
	}
	return Status{
		CreationDate: vals[RegCreationDate],
		BuildDate:    vals[RegBuildDate],
		MicroTime:    vals[RegMicroTime],
		LEDs:         vals[RegLEDs],
		LD4:          vals[RegLD4],
		LD5:          vals[RegLD5],
		Switches:     Switches(vals[RegSwitches]),
	}, nil
}

// PrintStatus reads and prints all registers.
func (b *BasicIO) PrintStatus(w io.Writer) error {
	st, err := b.Status()
	if err != nil {
		return err
	}
	st.Print(w)
	return nil
}

// Print writes the status in the layout of the firmware tools.
func (st Status) Print(w io.Writer) {
	fmt.Fprintf(w, "Basic I/O (Firmware Module %d)\n", Module)
	fmt.Fprintf(w, "  Creation Date  =  0x%08X  =  %s\n", st.CreationDate, FormatTimestamp(st.CreationDate))
	fmt.Fprintf(w, "  Build Date     =  0x%08X  =  %s\n", st.BuildDate, FormatTimestamp(st.BuildDate))
	fmt.Fprintf(w, "  usTime         =  %s microseconds modulo 2**26\n", groupDigits(st.MicroTime))
	fmt.Fprintf(w, "  leds           =  0b%04b\n", st.LEDs)
	fmt.Fprintf(w, "  LD4            =  0b%03b red/green/blue\n", st.LD4)
	fmt.Fprintf(w, "  LD5            =  0b%03b red/green/blue\n", st.LD5)
	fmt.Fprintf(w, "  sw             =  %s SW1/SW0/BTN3/BTN2/BTN1/BTN0\n", st.Switches)
}

// FormatTimestamp renders a 0xYYMMDDHH timestamp as "20YY-MM-DD HHh".
func FormatTimestamp(ts uint32) string {
	return fmt.Sprintf("20%02X-%02X-%02X %02Xh", ts>>24, ts>>16&0xff, ts>>8&0xff, ts&0xff)
}

// groupDigits separates thousands with underscores, e.g. 12_345_678.
func groupDigits(v uint32) string {
	s := strconv.FormatUint(uint64(v), 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "_" + s[i:]
	}
	return s
}
