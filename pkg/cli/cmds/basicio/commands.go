package basicio

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dap.go/pkg/cli/sh"
	"github.com/robotalks/dap.go/pkg/fw"
	"github.com/robotalks/dap.go/pkg/fw/basicio"
)

// maskRegister is a read/write LED register.
type maskRegister struct {
	name  string
	width int
	mask  uint32
	get   func(*basicio.BasicIO) (uint32, error)
	set   func(*basicio.BasicIO, uint32) error
}

var (
	ledsRegister = maskRegister{"leds", 4, basicio.LEDsMask, (*basicio.BasicIO).LEDs, (*basicio.BasicIO).SetLEDs}
	ld4Register  = maskRegister{"ld4", 3, basicio.RGBMask, (*basicio.BasicIO).LD4, (*basicio.BasicIO).SetLD4}
	ld5Register  = maskRegister{"ld5", 3, basicio.RGBMask, (*basicio.BasicIO).LD5, (*basicio.BasicIO).SetLD5}
)

// access sets the register when a MASK is given, otherwise prints it.
func (r *maskRegister) access(b *fw.Board, args []string, out *sh.Output) error {
	if err := sh.CheckArgs(args, 0, 1, r.name+" [MASK]"); err != nil {
		return err
	}
	if len(args) == 1 {
		mask, err := sh.ParseUint(args[0], uint64(r.mask), "mask")
		if err != nil {
			return err
		}
		if err := r.set(b.BasicIO, uint32(mask)); err != nil {
			return err
		}
		return out.OK()
	}
	v, err := r.get(b.BasicIO)
	if err != nil {
		return err
	}
	return out.Result(map[string]uint32{r.name: v}, "0b%0*b", r.width, v)
}

func (r *maskRegister) cmd(help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name:     r.name,
		Help:     "[MASK]",
		LongHelp: help,
		Func: sh.MustBeOpen(func(c *ishell.Context, b *fw.Board, out *sh.Output) error {
			return r.access(b, c.Args, out)
		}),
	}
}

// Switches prints the switches and pushbuttons.
func Switches(b *fw.Board, out *sh.Output) error {
	sw, err := b.BasicIO.Switches()
	if err != nil {
		return err
	}
	var buttons [4]bool
	for n := range buttons {
		buttons[n] = sw.Button(uint(n))
	}
	return out.Result(map[string]interface{}{
		"sw0":     sw.Switch(0),
		"sw1":     sw.Switch(1),
		"buttons": buttons,
	}, "%s SW1/SW0/BTN3/BTN2/BTN1/BTN0", sw)
}

// Time prints the firmware dates and the microsecond timer.
func Time(b *fw.Board, out *sh.Output) error {
	created, err := b.BasicIO.CreationDate()
	if err != nil {
		return err
	}
	built, err := b.BasicIO.BuildDate()
	if err != nil {
		return err
	}
	us, err := b.BasicIO.MicroTime()
	if err != nil {
		return err
	}
	text := fmt.Sprintf("created %s, built %s, usTime %d",
		basicio.FormatTimestamp(created), basicio.FormatTimestamp(built), us)
	return out.Result(map[string]uint32{
		"creation_date": created,
		"build_date":    built,
		"us_time":       us,
	}, "%s", text)
}

var (
	// LEDsCmd reads or sets LED0..LED3.
	LEDsCmd = ledsRegister.cmd("Read or set the LEDs' mask (0..15).")
	// LD4Cmd reads or sets RGB LED LD4.
	LD4Cmd = ld4Register.cmd("Read or set RGB LED LD4's red/green/blue mask (0..7).")
	// LD5Cmd reads or sets RGB LED LD5.
	LD5Cmd = ld5Register.cmd("Read or set RGB LED LD5's red/green/blue mask (0..7).")

	// SwitchesCmd prints the switches.
	SwitchesCmd = ishell.Cmd{
		Name: "sw",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, b *fw.Board, out *sh.Output) error {
			return Switches(b, out)
		}),
	}

	// TimeCmd prints the firmware dates and timer.
	TimeCmd = ishell.Cmd{
		Name: "time",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, b *fw.Board, out *sh.Output) error {
			return Time(b, out)
		}),
	}
)

func init() {
	sh.AddCmds(
		LEDsCmd,
		LD4Cmd,
		LD5Cmd,
		&SwitchesCmd,
		&TimeCmd,
	)
}
