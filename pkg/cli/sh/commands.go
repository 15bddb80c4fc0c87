package sh

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/dap.go/pkg/dap/comm/serial"
	"github.com/robotalks/dap.go/pkg/fw"
)

// RegisterValue is the result of a register read.
type RegisterValue struct {
	Module uint8  `json:"module"`
	Offset uint32 `json:"offset"`
	Data   uint32 `json:"data"`
}

// Read reads the register addressed by args: MOD ADDR.
func Read(b *fw.Board, args []string, out *Output) error {
	if err := CheckArgs(args, 2, 2, "read MOD ADDR"); err != nil {
		return err
	}
	m, off, err := ParseAddress(args[0], args[1])
	if err != nil {
		return err
	}
	v, err := b.Session.ReadRegister(m, off)
	if err != nil {
		return err
	}
	return out.Result(&RegisterValue{Module: m, Offset: off, Data: v}, "0x%08X (%d)", v, v)
}

// Write writes the register addressed by args: MOD ADDR DATA.
func Write(b *fw.Board, args []string, out *Output) error {
	if err := CheckArgs(args, 3, 3, "write MOD ADDR DATA"); err != nil {
		return err
	}
	m, off, err := ParseAddress(args[0], args[1])
	if err != nil {
		return err
	}
	data, err := ParseData(args[2])
	if err != nil {
		return err
	}
	if err = b.Session.WriteRegister(m, off, data); err != nil {
		return err
	}
	return out.OK()
}

// Status prints the status of all firmware modules.
func Status(b *fw.Board, out *Output) error {
	if !out.JSON {
		return b.PrintStatus(out)
	}
	bio, err := b.BasicIO.Status()
	if err != nil {
		return err
	}
	capture, err := b.DCM.Status()
	if err != nil {
		return err
	}
	return out.Result(map[string]interface{}{"basicio": bio, "dcm": capture}, "")
}

var (
	// OpenCmd opens the configured port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.Port = c.Args[0]
			}
			if err := s.Open(); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current session.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				NewOutput(contextWriter{c}, true).Result(ports, "")
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// ReadCmd reads a register.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "MOD ADDR",
		Func: MustBeOpen(func(c *ishell.Context, b *fw.Board, out *Output) error {
			return Read(b, c.Args, out)
		}),
	}

	// WriteCmd writes a register.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "MOD ADDR DATA",
		Func: MustBeOpen(func(c *ishell.Context, b *fw.Board, out *Output) error {
			return Write(b, c.Args, out)
		}),
	}

	// StatusCmd prints the status of all firmware modules.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context, b *fw.Board, out *Output) error {
			return Status(b, out)
		}),
	}
)
