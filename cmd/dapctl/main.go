package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"io"
	"log"
	"math"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/dap.go/pkg/cli/sh"
	"github.com/robotalks/dap.go/pkg/dap/comm"
	"github.com/robotalks/dap.go/pkg/env"
	"github.com/robotalks/dap.go/pkg/fw"

	_ "github.com/robotalks/dap.go/pkg/cli/cmds/all"
)

// actions selected by flags, applied in this order.
type actions struct {
	status   bool
	leds     int
	ld4      int
	ld5      int
	dumpFile string
}

// unset marks a mask flag not given.
const unset = -1

var flags = actions{leds: unset, ld4: unset, ld5: unset}

func init() {
	env.SetupFlags()
	flag.BoolVar(&flags.status, "s", flags.status, "Print the firmware modules' status.")
	flag.IntVar(&flags.leds, "l", flags.leds, "LEDs' mask (0..15).")
	flag.IntVar(&flags.ld4, "LD4", flags.ld4, "RGB LED LD4's mask (0..7).")
	flag.IntVar(&flags.ld5, "LD5", flags.ld5, "RGB LED LD5's mask (0..7).")
	flag.StringVar(&flags.dumpFile, "dump", flags.dumpFile, "Dump the capture buffer to FILE.")
}

func (a *actions) any() bool {
	return a.status || a.leds != unset || a.ld4 != unset || a.ld5 != unset || a.dumpFile != ""
}

func (a *actions) validate() error {
	for _, m := range []struct {
		flag string
		v    int
	}{{"l", a.leds}, {"LD4", a.ld4}, {"LD5", a.ld5}} {
		if m.v != unset && m.v < 0 {
			return comm.Errorf(comm.ValidationError, "flags", "-%s: invalid mask %d", m.flag, m.v)
		}
	}
	return nil
}

func mask(v int) uint32 {
	if int64(v) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func (a *actions) run(b *fw.Board, w io.Writer) error {
	if err := a.validate(); err != nil {
		return err
	}
	if a.status {
		if err := b.PrintStatus(w); err != nil {
			return err
		}
	}
	if a.leds != unset {
		if err := b.BasicIO.SetLEDs(mask(a.leds)); err != nil {
			return err
		}
	}
	if a.ld4 != unset {
		if err := b.BasicIO.SetLD4(mask(a.ld4)); err != nil {
			return err
		}
	}
	if a.ld5 != unset {
		if err := b.BasicIO.SetLD5(mask(a.ld5)); err != nil {
			return err
		}
	}
	if a.dumpFile != "" {
		words, err := b.DCM.SaveDump(a.dumpFile)
		if err != nil {
			return err
		}
		glog.Infof("dumped %d words to %s", len(words), a.dumpFile)
	}
	return nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if !flags.any() {
		s := sh.New(env.Default()).WithAutoOpen(true)
		err := s.Run(flag.Args()...)
		s.Close()
		if err != nil {
			fatal(err)
		}
		return
	}

	if err := flags.validate(); err != nil {
		fatal(err)
	}
	session := env.Default().MustOpen()
	err := flags.run(fw.NewBoard(session), os.Stdout)
	session.Close()
	if err != nil {
		fatal(err)
	}
}

// fatalln exits the process, it bypasses deferred calls.
var fatalln = log.Fatalln

func fatal(err error) {
	glog.Flush()
	fatalln(err)
}
