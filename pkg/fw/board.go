// Package fw groups the firmware module facades of the PYNQ-Z2 build.
package fw

import (
	"fmt"
	"io"

	"github.com/robotalks/dap.go/pkg/dap/comm"
	"github.com/robotalks/dap.go/pkg/fw/basicio"
	"github.com/robotalks/dap.go/pkg/fw/dcm"
)

// Board exposes all firmware modules behind one session.
type Board struct {
	Session *comm.Session
	BasicIO *basicio.BasicIO
	DCM     *dcm.DCM
}

// NewBoard creates a Board on s. The caller keeps ownership of s.
func NewBoard(s *comm.Session) *Board {
	return &Board{
		Session: s,
		BasicIO: basicio.New(s),
		DCM:     dcm.New(s),
	}
}

// PrintStatus prints the status of every module.
func (b *Board) PrintStatus(w io.Writer) error {
	if err := b.BasicIO.PrintStatus(w); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return b.DCM.PrintStatus(w)
}
