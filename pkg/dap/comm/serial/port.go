// Package serial opens DAP sessions on serial ports.
package serial

import (
	"github.com/golang/glog"
	bugst "go.bug.st/serial"

	"github.com/robotalks/dap.go/pkg/dap/comm"
)

// DefaultBaudRate is the rate the PL firmware UART is built for.
const DefaultBaudRate = 921600

// Open opens a serial port 8N1 at baudRate.
func Open(name string, baudRate int) (comm.Port, error) {
	if baudRate <= 0 {
		return nil, comm.Errorf(comm.TransportError, "open", "invalid baud rate %d for %s", baudRate, name)
	}
	mode := &bugst.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	port, err := bugst.Open(name, mode)
	if err != nil {
		return nil, &comm.Error{Kind: comm.TransportError, Op: "open", Msg: name, Err: err}
	}
	if err := port.SetReadTimeout(comm.DefaultTimeout); err != nil {
		port.Close()
		return nil, &comm.Error{Kind: comm.TransportError, Op: "open", Msg: name, Err: err}
	}
	glog.V(1).Infof("opened serial port %s, 8N1, %d baud", name, baudRate)
	return port, nil
}

// OpenSession opens a serial port and starts a Session on it.
// The caller must Close the Session on every path.
func OpenSession(name string, baudRate int, opts ...comm.Option) (*comm.Session, error) {
	port, err := Open(name, baudRate)
	if err != nil {
		return nil, err
	}
	opts = append([]comm.Option{comm.WithName(name)}, opts...)
	return comm.NewSession(port, opts...), nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, comm.NewError(comm.TransportError, "list", err)
	}
	return ports, nil
}
