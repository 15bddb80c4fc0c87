package dcm

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dap.go/pkg/cli/sh"
	"github.com/robotalks/dap.go/pkg/fw"
	"github.com/robotalks/dap.go/pkg/fw/dcm"
)

// wordsPerLine is the width of a printed dump.
const wordsPerLine = 8

// Clear clears the capture buffer.
func Clear(b *fw.Board, out *sh.Output) error {
	if err := b.DCM.Clear(); err != nil {
		return err
	}
	return out.OK()
}

// Decimation sets the decimation of PORT when D is given, otherwise
// prints it. args: PORT [D].
func Decimation(b *fw.Board, args []string, out *sh.Output) error {
	if err := sh.CheckArgs(args, 1, 2, "dcm.dec PORT [D]"); err != nil {
		return err
	}
	port, err := sh.ParseUint(args[0], dcm.Ports-1, "port")
	if err != nil {
		return err
	}
	if len(args) == 2 {
		d, err := sh.ParseUint(args[1], dcm.MaxDecimation, "decimation")
		if err != nil {
			return err
		}
		if err = b.DCM.SetDecimation(int(port), uint32(d)); err != nil {
			return err
		}
		return out.OK()
	}
	d, err := b.DCM.Decimation(int(port))
	if err != nil {
		return err
	}
	return out.Result(map[string]uint32{"port": uint32(port), "decimation": d},
		"%d  =  %s", d, dcm.DescribeDecimation(int(port), d))
}

// Dump downloads the capture buffer, saves it to FILE if given and
// prints it otherwise. args: [FILE].
func Dump(b *fw.Board, args []string, out *sh.Output) error {
	if err := sh.CheckArgs(args, 0, 1, "dcm.dump [FILE]"); err != nil {
		return err
	}
	if len(args) == 1 {
		words, err := b.DCM.SaveDump(args[0])
		if err != nil {
			return err
		}
		return out.Result(map[string]interface{}{"words": len(words), "file": args[0]},
			"%d words saved to %s", len(words), args[0])
	}
	words, err := b.DCM.Dump()
	if err != nil {
		return err
	}
	if out.JSON {
		return out.Result(words, "")
	}
	for i := 0; i < len(words); i += wordsPerLine {
		line := fmt.Sprintf("%06X:", i)
		for _, w := range words[i:min(i+wordsPerLine, len(words))] {
			line += fmt.Sprintf(" %08X", w)
		}
		fmt.Fprintln(out, line)
	}
	_, err = fmt.Fprintf(out, "%d words\n", len(words))
	return err
}

// Status prints the capture module status.
func Status(b *fw.Board, out *sh.Output) error {
	if !out.JSON {
		return b.DCM.PrintStatus(out)
	}
	st, err := b.DCM.Status()
	if err != nil {
		return err
	}
	return out.Result(st, "")
}

var (
	// ClearCmd clears the capture buffer.
	ClearCmd = ishell.Cmd{
		Name: "dcm.clear",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, b *fw.Board, out *sh.Output) error {
			return Clear(b, out)
		}),
	}

	// DecimationCmd reads or sets a telemetry port's decimation.
	DecimationCmd = ishell.Cmd{
		Name:     "dcm.dec",
		Help:     "PORT [D]",
		LongHelp: "Read or set the decimation of telemetry port 0..5: D:1 for D in 1..65535, or 0 to disable.",
		Func: sh.MustBeOpen(func(c *ishell.Context, b *fw.Board, out *sh.Output) error {
			return Decimation(b, c.Args, out)
		}),
	}

	// DumpCmd dumps the capture buffer.
	DumpCmd = ishell.Cmd{
		Name: "dcm.dump",
		Help: "[FILE]",
		Func: sh.MustBeOpen(func(c *ishell.Context, b *fw.Board, out *sh.Output) error {
			return Dump(b, c.Args, out)
		}),
	}

	// StatusCmd prints the capture module status.
	StatusCmd = ishell.Cmd{
		Name: "dcm.status",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, b *fw.Board, out *sh.Output) error {
			return Status(b, out)
		}),
	}
)

func init() {
	sh.AddCmds(
		&ClearCmd,
		&DecimationCmd,
		&DumpCmd,
		&StatusCmd,
	)
}
